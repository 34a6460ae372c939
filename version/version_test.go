package version_test

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"go.jacobcolvin.com/annotate/version"
)

func TestString(t *testing.T) {
	// Not parallel: mutates package variables.
	saved := []string{version.Version, version.Branch, version.BuildUser, version.BuildDate, version.Revision}
	t.Cleanup(func() {
		version.Version, version.Branch, version.BuildUser, version.BuildDate, version.Revision =
			saved[0], saved[1], saved[2], saved[3], saved[4]
	})

	platform := runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH

	version.Revision = "abc123"

	version.Version, version.Branch, version.BuildUser, version.BuildDate = "", "", "", ""
	assert.Equal(t, "annotate dev (revision abc123, "+platform+")", version.String())

	version.Version = "v0.3.0"
	version.Branch = "main"
	version.BuildDate = "2026-10-19"
	version.BuildUser = "ci"
	assert.Equal(t,
		"annotate v0.3.0 (revision main@abc123, "+platform+"), built 2026-10-19 by ci",
		version.String())
}
