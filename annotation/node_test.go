package annotation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/annotate/annotation"
	"go.jacobcolvin.com/annotate/annotation/phpdoc"
)

func TestLeafAt(t *testing.T) {
	t.Parallel()

	// Leaves: "/**" 100-103, " " 103-104, "@Route" 104-110, "(" 110-111,
	// "name" 111-115, "=" 115-116, "x" 116-117, ")" 117-118, " " 118-119,
	// "*/" 119-121.
	root := phpdoc.Parse("/** @Route(name=x) */", 100)

	tcs := map[string]struct {
		offset int
		kind   annotation.NodeKind
		text   string
		none   bool
	}{
		"before comment":          {offset: 99, none: true},
		"comment start":           {offset: 100, kind: annotation.NodeCommentStart, text: "/**"},
		"after whitespace":        {offset: 104, kind: annotation.NodeTagName, text: "@Route"},
		"inside tag name":         {offset: 106, kind: annotation.NodeTagName, text: "@Route"},
		"end of tag name":         {offset: 110, kind: annotation.NodeTagName, text: "@Route"},
		"after open paren":        {offset: 111, kind: annotation.NodeLParen, text: "("},
		"end of identifier":       {offset: 115, kind: annotation.NodeIdentifier, text: "name"},
		"after assign":            {offset: 116, kind: annotation.NodeAssign, text: "="},
		"end of value":            {offset: 117, kind: annotation.NodeText, text: "x"},
		"comment end":             {offset: 121, kind: annotation.NodeCommentEnd, text: "*/"},
		"after comment":           {offset: 122, none: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := root.LeafAt(tc.offset)
			if tc.none {
				assert.Nil(t, got)

				return
			}

			require.NotNil(t, got)
			assert.Equal(t, tc.kind, got.Kind)
			assert.Equal(t, tc.text, got.Text)
		})
	}
}
