package annotation

import "strings"

// DeclKind is the kind of a [Declaration].
type DeclKind int

// Declaration kinds.
const (
	DeclClass DeclKind = iota
	DeclInterface
	DeclTrait
	DeclEnum
	DeclFunction
)

// ClassLike reports whether declarations of this kind can serve as an
// annotation schema.
func (k DeclKind) ClassLike() bool {
	switch k {
	case DeclClass, DeclInterface, DeclTrait, DeclEnum:
		return true
	case DeclFunction:
		return false
	}

	return false
}

// ValueKind is the syntactic shape of a field's default value.
type ValueKind int

// Value kinds.
const (
	ValueNone ValueKind = iota
	ValueScalar
	ValueCollection
)

// Value is a field's default-value expression.
type Value struct {
	Text string
	Kind ValueKind
}

// Field is one field of a [Declaration].
type Field struct {
	Name     string
	Doc      string
	Default  Value
	Constant bool
}

// Declaration is a host-supplied view of a named declaration.
type Declaration struct {
	// Name is the fully-qualified name, without a leading separator.
	Name    string
	Doc     string
	Path    string
	Targets []Target
	Fields  []Field
	Kind    DeclKind
	// Annotation is set when the declaration is marked as an annotation
	// schema in its own documentation.
	Annotation bool
}

// ShortName returns the last segment of the qualified name.
func (d *Declaration) ShortName() string {
	return shortName(d.Name)
}

func shortName(name string) string {
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		return name[i+1:]
	}

	return name
}

// Resolver resolves a tag name to declarations. Implementations return every
// declaration the name could refer to in scope; zero means unresolved and
// more than one means ambiguous.
type Resolver interface {
	Resolve(name string, scope *Scope) []*Declaration
}

// Index enumerates every known annotation schema declaration, in a stable
// discovery order.
type Index interface {
	Schemas() []*Declaration
}

// PropertyKind is the value kind of an annotation property.
type PropertyKind int

// Property kinds.
const (
	PropertyString PropertyKind = iota
	PropertyArray
)

func (k PropertyKind) String() string {
	if k == PropertyArray {
		return "array"
	}

	return "string"
}

// Property is one field of a schema, as seen by annotation authors.
type Property struct {
	Name    string
	Default string
	Doc     string
	Kind    PropertyKind
}

// Schema is a declaration resolved as an annotation schema.
type Schema struct {
	Decl       *Declaration
	Name       string
	Targets    []Target
	Properties []Property
}

// NewSchema builds a [Schema] from a declaration. It returns nil when the
// declaration cannot act as a schema.
func NewSchema(decl *Declaration) *Schema {
	if decl == nil || !decl.Kind.ClassLike() {
		return nil
	}

	return &Schema{
		Decl:       decl,
		Name:       decl.Name,
		Targets:    decl.Targets,
		Properties: PropertiesOf(decl),
	}
}

// ShortName returns the last segment of the schema's qualified name.
func (s *Schema) ShortName() string {
	return shortName(s.Name)
}

// Property returns the named property.
func (s *Schema) Property(name string) (Property, bool) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p, true
		}
	}

	return Property{}, false
}

// PropertiesOf enumerates the non-constant fields of decl as properties, in
// declaration order. A property is [PropertyArray] exactly when its default
// value is a collection literal. Unnamed fields are skipped, and only the
// first field of a given name is kept.
func PropertiesOf(decl *Declaration) []Property {
	if decl == nil {
		return nil
	}

	var (
		props []Property
		seen  = make(map[string]bool, len(decl.Fields))
	)

	for _, f := range decl.Fields {
		if f.Constant || f.Name == "" || seen[f.Name] {
			continue
		}

		seen[f.Name] = true

		kind := PropertyString
		if f.Default.Kind == ValueCollection {
			kind = PropertyArray
		}

		props = append(props, Property{
			Name:    f.Name,
			Kind:    kind,
			Default: f.Default.Text,
			Doc:     f.Doc,
		})
	}

	return props
}
