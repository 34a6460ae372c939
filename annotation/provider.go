package annotation

import (
	"io/fs"
	"log/slog"
)

// RequestKind distinguishes the two value-completion slots.
type RequestKind int

// Request kinds.
const (
	// RequestString asks for the value of a named property.
	RequestString RequestKind = iota
	// RequestDefault asks for the unnamed default value of an annotation.
	RequestDefault
)

func (k RequestKind) String() string {
	if k == RequestDefault {
		return "default"
	}

	return "string"
}

// PropertyRef identifies the slot a value is requested for. Property is
// empty for [RequestDefault].
type PropertyRef struct {
	Cursor   *Node
	Schema   *Schema
	Property string
	Kind     RequestKind
}

// Extras carries request details that are useful to some providers but not
// part of the slot's identity.
type Extras struct {
	Tag    *Node
	Prefix string
}

// Provider suggests literal values for annotation properties.
//
// Provider instances stored in a [Registry] act as stateless prototypes.
// [Provider.ForProject] returns a fresh, prepared clone for each project, so
// the prototype is never mutated and is safe for concurrent reuse.
type Provider interface {
	Name() string

	// ForProject returns a new Provider prepared with the given project
	// tree. Providers that need project files (e.g. a values catalog)
	// return a clone populated with parsed state. Stateless providers may
	// return a new zero-value instance.
	ForProject(fsys fs.FS) (Provider, error)

	// PropertyValues returns candidate values for ref. A nil or empty
	// result means the provider has no opinion. Implementations must not
	// mutate ref or extras.
	PropertyValues(ref PropertyRef, extras Extras) []string
}

// Registry maps provider names to constructors of prototype providers.
type Registry map[string]func() Provider

// Add registers each provider under its own name.
func (r Registry) Add(providers ...Provider) {
	for _, p := range providers {
		r[p.Name()] = func() Provider { return p }
	}
}

// PrepareProviders calls [Provider.ForProject] on every provider, in order.
// Providers that fail to prepare are logged and left out.
func PrepareProviders(logger *slog.Logger, fsys fs.FS, providers ...Provider) []Provider {
	if logger == nil {
		logger = slog.Default()
	}

	prepared := make([]Provider, 0, len(providers))

	for _, p := range providers {
		pp, err := p.ForProject(fsys)
		if err != nil {
			logger.Warn("provider prepare",
				slog.String("provider", p.Name()),
				slog.Any("error", err),
			)

			continue
		}

		prepared = append(prepared, pp)
	}

	return prepared
}

// collectValues queries every provider for ref and concatenates the
// results. A provider that panics is logged and treated as having no
// opinion.
func collectValues(logger *slog.Logger, providers []Provider, ref PropertyRef, extras Extras) []string {
	var out []string

	for _, p := range providers {
		out = append(out, safeValues(logger, p, ref, extras)...)
	}

	return out
}

func safeValues(logger *slog.Logger, p Provider, ref PropertyRef, extras Extras) (values []string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("provider panic",
				slog.String("provider", p.Name()),
				slog.Any("panic", r),
			)

			values = nil
		}
	}()

	return p.PropertyValues(ref, extras)
}
