// Package yamlcatalog suggests values listed in a YAML catalog kept in the
// project, by default ".annotate.yaml" at the project root:
//
//	schemas:
//	  App\Annotation\Cache:
//	    default: [short, long]
//	    properties:
//	      driver: [redis, memcached]
//
// Schema names are fully qualified and matched case-insensitively. The
// "default" list answers the unnamed default value slot. A project without
// a catalog file gets a provider that offers nothing.
package yamlcatalog

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goccy/go-yaml"

	"go.jacobcolvin.com/annotate/annotation"
)

// DefaultPath is the catalog location relative to the project root.
const DefaultPath = ".annotate.yaml"

// ErrInvalidCatalog indicates the catalog file could not be decoded.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is the decoded catalog file.
type Catalog struct {
	Schemas map[string]Entry `yaml:"schemas"`
}

// Entry lists the values of one schema.
type Entry struct {
	Properties map[string][]string `yaml:"properties"`
	Default    []string            `yaml:"default"`
}

// Provider answers from a [Catalog].
type Provider struct {
	schemas map[string]Entry
	path    string
}

// Option configures a [Provider].
type Option func(*Provider)

// WithPath sets the catalog location within the project.
func WithPath(path string) Option {
	return func(p *Provider) {
		p.path = path
	}
}

// New creates a new catalog provider prototype.
func New(opts ...Option) *Provider {
	p := &Provider{path: DefaultPath}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "yaml-catalog"
}

// ForProject reads and decodes the project's catalog file.
func (p *Provider) ForProject(fsys fs.FS) (annotation.Provider, error) {
	out := New(WithPath(p.path))

	data, err := fs.ReadFile(fsys, p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.path, err)
	}

	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.path, err)
	}

	out.schemas = make(map[string]Entry, len(cat.Schemas))
	for name, e := range cat.Schemas {
		out.schemas[key(name)] = e
	}

	return out, nil
}

// Parse decodes catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var cat Catalog

	err := yaml.Unmarshal(data, &cat)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}

	return &cat, nil
}

// PropertyValues returns the catalog values for ref.
func (p *Provider) PropertyValues(ref annotation.PropertyRef, _ annotation.Extras) []string {
	if ref.Schema == nil {
		return nil
	}

	e, ok := p.schemas[key(ref.Schema.Name)]
	if !ok {
		return nil
	}

	if ref.Kind == annotation.RequestDefault {
		return e.Default
	}

	return e.Properties[ref.Property]
}

func key(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, `\`))
}
