// Package defaults suggests a field's own default value. A schema written as
//
//	/** @Annotation */
//	class Route
//	{
//	    public $methods = "GET";
//	}
//
// offers "GET" when completing @Route(methods="|"). Array defaults and null
// offer nothing.
package defaults

import (
	"io/fs"
	"strings"

	"go.jacobcolvin.com/annotate/annotation"
)

// DefaultProperty is the field consulted for default value requests.
const DefaultProperty = "value"

// Provider offers field default literals.
type Provider struct{}

// New creates a new defaults provider.
func New() *Provider {
	return &Provider{}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "defaults"
}

// ForProject returns a new Provider. It keeps no project state.
func (p *Provider) ForProject(_ fs.FS) (annotation.Provider, error) {
	return New(), nil
}

// PropertyValues returns the requested field's default literal.
func (p *Provider) PropertyValues(ref annotation.PropertyRef, _ annotation.Extras) []string {
	name := ref.Property
	if ref.Kind == annotation.RequestDefault {
		name = DefaultProperty
	}

	prop, ok := ref.Schema.Property(name)
	if !ok || prop.Kind != annotation.PropertyString {
		return nil
	}

	v, ok := Literal(prop.Default)
	if !ok {
		return nil
	}

	return []string{v}
}

// Literal returns the value of a PHP scalar literal as it would be written
// inside an annotation string. It reports false for empty text and null.
func Literal(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" || strings.EqualFold(text, "null") {
		return "", false
	}

	q := text[0]
	if len(text) >= 2 && (q == '"' || q == '\'') && text[len(text)-1] == q {
		inner := text[1 : len(text)-1]
		inner = strings.ReplaceAll(inner, `\`+string(q), string(q))

		return strings.ReplaceAll(inner, `\\`, `\`), true
	}

	return text, true
}
