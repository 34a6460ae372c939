// Package values provides a convenience function for registering the
// built-in value providers with an [annotation.Registry].
package values

import (
	"log/slog"

	"go.jacobcolvin.com/annotate/annotation"
	"go.jacobcolvin.com/annotate/annotation/values/defaults"
	"go.jacobcolvin.com/annotate/annotation/values/enum"
	"go.jacobcolvin.com/annotate/annotation/values/schemacatalog"
	"go.jacobcolvin.com/annotate/annotation/values/yamlcatalog"
)

// Options customizes the project-backed providers of [DefaultRegistry].
// Empty fields keep each provider's default location.
type Options struct {
	// Logger receives warnings about catalog documents that are skipped.
	Logger      *slog.Logger
	CatalogPath string
	SchemaDir   string
}

// DefaultRegistry returns an [annotation.Registry] populated with the four
// built-in providers: @Enum tags (enum), field defaults (defaults), the YAML
// value catalog (yaml-catalog), and JSON Schema documents (schema-catalog).
func DefaultRegistry(opts Options) annotation.Registry {
	var (
		yamlOpts   []yamlcatalog.Option
		schemaOpts []schemacatalog.Option
	)

	if opts.CatalogPath != "" {
		yamlOpts = append(yamlOpts, yamlcatalog.WithPath(opts.CatalogPath))
	}

	if opts.SchemaDir != "" {
		schemaOpts = append(schemaOpts, schemacatalog.WithDir(opts.SchemaDir))
	}

	if opts.Logger != nil {
		schemaOpts = append(schemaOpts, schemacatalog.WithLogger(opts.Logger))
	}

	r := make(annotation.Registry)
	r.Add(
		enum.New(),
		defaults.New(),
		yamlcatalog.New(yamlOpts...),
		schemacatalog.New(schemaOpts...),
	)

	return r
}
