// Package schemacatalog connects annotation schemas to JSON Schema.
//
// As a value provider it reads JSON Schema documents from a project
// directory, by default "schemas". A document describes one annotation
// schema when its title is the schema's fully qualified name; the enum,
// const and examples of each property become suggested values:
//
//	{
//	  "title": "App\\Annotation\\Cache",
//	  "properties": {
//	    "driver": {"enum": ["redis", "memcached"]}
//	  }
//	}
//
// Documents may also be written in YAML. The "value" property answers the
// unnamed default value slot.
//
// [Export] goes the other way and describes an annotation schema as a JSON
// Schema document, for editors and validators that understand JSON Schema.
package schemacatalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/google/jsonschema-go/jsonschema"

	"go.jacobcolvin.com/annotate/annotation"
	"go.jacobcolvin.com/annotate/annotation/phpdoc"
	"go.jacobcolvin.com/annotate/annotation/values/defaults"
)

const (
	// DefaultDir is the catalog directory relative to the project root.
	DefaultDir = "schemas"
	// DefaultProperty is the property consulted for default value requests.
	DefaultProperty = "value"
)

// ErrInvalidDocument indicates a schema document could not be decoded.
var ErrInvalidDocument = errors.New("invalid schema document")

// Provider answers from a directory of JSON Schema documents.
type Provider struct {
	schemas map[string]*jsonschema.Schema
	logger  *slog.Logger
	dir     string
}

// Option configures a [Provider].
type Option func(*Provider)

// WithDir sets the catalog directory within the project.
func WithDir(dir string) Option {
	return func(p *Provider) {
		p.dir = dir
	}
}

// WithLogger sets the logger used for documents that cannot be read.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// New creates a new schema catalog provider prototype.
func New(opts ...Option) *Provider {
	p := &Provider{dir: DefaultDir, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "schema-catalog"
}

// ForProject reads every document in the catalog directory. A missing
// directory yields a provider that offers nothing. Documents that cannot be
// read or decoded are logged and skipped.
func (p *Provider) ForProject(fsys fs.FS) (annotation.Provider, error) {
	out := New(WithDir(p.dir), WithLogger(p.logger))
	out.schemas = map[string]*jsonschema.Schema{}

	entries, err := fs.ReadDir(fsys, p.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.dir, err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		name := path.Join(p.dir, e.Name())
		if !isDocument(name) {
			continue
		}

		schema, err := readDocument(fsys, name)
		if err != nil {
			p.logger.Warn("skipping schema document",
				slog.String("path", name),
				slog.Any("error", err),
			)

			continue
		}

		if schema.Title != "" {
			out.schemas[key(schema.Title)] = schema
		}
	}

	return out, nil
}

func isDocument(name string) bool {
	switch path.Ext(name) {
	case ".json", ".yaml", ".yml":
		return true
	}

	return false
}

func readDocument(fsys fs.FS, name string) (*jsonschema.Schema, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	return Decode(data)
}

// Decode parses a JSON or YAML schema document.
func Decode(data []byte) (*jsonschema.Schema, error) {
	js, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	var schema jsonschema.Schema

	err = json.Unmarshal(js, &schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return &schema, nil
}

// PropertyValues returns the enum, const and example values of the
// requested property, in that order.
func (p *Provider) PropertyValues(ref annotation.PropertyRef, _ annotation.Extras) []string {
	if ref.Schema == nil {
		return nil
	}

	doc, ok := p.schemas[key(ref.Schema.Name)]
	if !ok {
		return nil
	}

	name := ref.Property
	if ref.Kind == annotation.RequestDefault {
		name = DefaultProperty
	}

	prop := doc.Properties[name]
	if prop == nil {
		return nil
	}

	if prop.Items != nil {
		// Array properties list their element values.
		prop = prop.Items
	}

	var out []string

	for _, v := range prop.Enum {
		out = append(out, format(v))
	}

	if prop.Const != nil {
		out = append(out, format(*prop.Const))
	}

	for _, v := range prop.Examples {
		out = append(out, format(v))
	}

	return out
}

// Export describes an annotation schema as a JSON Schema object. String
// properties become strings, with their @Enum values and default literal
// when present; array properties become arrays of strings.
func Export(s *annotation.Schema) *jsonschema.Schema {
	out := &jsonschema.Schema{
		Title:                s.Name,
		Type:                 "object",
		Properties:           make(map[string]*jsonschema.Schema, len(s.Properties)),
		AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
	}

	if s.Decl != nil {
		out.Description = phpdoc.Summary(s.Decl.Doc)
	}

	for _, prop := range s.Properties {
		out.Properties[prop.Name] = exportProperty(prop)
		out.PropertyOrder = append(out.PropertyOrder, prop.Name)
	}

	return out
}

func exportProperty(prop annotation.Property) *jsonschema.Schema {
	ps := &jsonschema.Schema{Description: phpdoc.Summary(prop.Doc)}

	if prop.Kind == annotation.PropertyArray {
		ps.Type = "array"
		ps.Items = &jsonschema.Schema{Type: "string"}

		return ps
	}

	ps.Type = "string"

	for _, v := range phpdoc.TagValues(prop.Doc, "Enum") {
		ps.Enum = append(ps.Enum, v)
	}

	if lit, ok := defaults.Literal(prop.Default); ok {
		b, err := json.Marshal(lit)
		if err == nil {
			ps.Default = b
		}
	}

	return ps
}

func format(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}

	return string(b)
}

func key(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, `\`))
}
