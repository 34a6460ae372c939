// Package enum suggests the values listed by an @Enum tag on a schema field:
//
//	/** @Annotation */
//	class Cache
//	{
//	    /** @Enum({"redis", "memcached"}) */
//	    public $driver;
//	}
//
// Completing @Cache(driver="|") offers "redis" and "memcached". The default
// value slot, @Cache("|"), reads the "value" field, which is where
// Doctrine-style annotations store their unnamed argument.
package enum

import (
	"io/fs"

	"go.jacobcolvin.com/annotate/annotation"
	"go.jacobcolvin.com/annotate/annotation/phpdoc"
)

// DefaultProperty is the field consulted for default value requests.
const DefaultProperty = "value"

// Provider reads @Enum tags from field documentation.
type Provider struct{}

// New creates a new @Enum provider.
func New() *Provider {
	return &Provider{}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "enum"
}

// ForProject returns a new Provider. It keeps no project state.
func (p *Provider) ForProject(_ fs.FS) (annotation.Provider, error) {
	return New(), nil
}

// PropertyValues returns the @Enum values of the requested field.
func (p *Provider) PropertyValues(ref annotation.PropertyRef, _ annotation.Extras) []string {
	name := ref.Property
	if ref.Kind == annotation.RequestDefault {
		name = DefaultProperty
	}

	prop, ok := ref.Schema.Property(name)
	if !ok || prop.Doc == "" {
		return nil
	}

	return phpdoc.TagValues(prop.Doc, "Enum")
}
