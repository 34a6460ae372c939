package annotation

import (
	"errors"
	"io/fs"
	"log/slog"
)

// ErrInvalidOption indicates a configuration value is invalid.
var ErrInvalidOption = errors.New("invalid option")

// Gate decides whether completion is enabled for a cursor.
type Gate func(cursor *Node) bool

// Engine produces completion candidates for annotation slots. It holds no
// per-request state: every call classifies and resolves from the tree it is
// given, so one Engine may serve concurrent requests as long as each tree is
// not mutated while in use.
type Engine struct {
	resolver  Resolver
	index     Index
	gate      Gate
	logger    *slog.Logger
	providers []Provider
	wrapped   bool
	strict    bool
}

// Option configures an Engine.
type Option func(*Engine)

// NewEngine creates an Engine with the given options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:  slog.Default(),
		wrapped: true,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// WithResolver sets the tag name resolver.
func WithResolver(r Resolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}

// WithIndex sets the project-wide schema index.
func WithIndex(idx Index) Option {
	return func(e *Engine) {
		e.index = idx
	}
}

// WithProviders sets the value providers, in query order.
func WithProviders(providers ...Provider) Option {
	return func(e *Engine) {
		e.providers = providers
	}
}

// WithGate sets the feature gate checked before any work is done.
func WithGate(g Gate) Option {
	return func(e *Engine) {
		e.gate = g
	}
}

// WithWrappedValues controls whether a text cursor inside a string literal
// is re-targeted to the string node before its preceding property name is
// looked up. Hosts whose trees wrap quoted values set this to true, which is
// the default.
func WithWrappedValues(wrapped bool) Option {
	return func(e *Engine) {
		e.wrapped = wrapped
	}
}

// WithStrictTargets stops UNKNOWN and UNDEFINED schema targets from matching
// every declaration kind.
func WithStrictTargets(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Providers returns the engine's value providers.
func (e *Engine) Providers() []Provider {
	return e.providers
}

// ForProject returns a copy of the engine whose providers are prepared for
// the given project tree. Resolver and index options may be added at the
// same time.
func (e *Engine) ForProject(fsys fs.FS, opts ...Option) *Engine {
	clone := e.With(opts...)
	clone.providers = PrepareProviders(clone.logger, fsys, e.providers...)

	return clone
}

// With returns a copy of the engine with opts applied. Providers are kept
// as they are.
func (e *Engine) With(opts ...Option) *Engine {
	clone := *e

	for _, opt := range opts {
		opt(&clone)
	}

	return &clone
}

// ResolveSchema resolves the schema a tag refers to. It returns nil when the
// name does not resolve, is ambiguous, or names something that cannot act
// as a schema.
func (e *Engine) ResolveSchema(tag *Node) *Schema {
	if tag == nil || tag.Kind != NodeTag || e.resolver == nil {
		return nil
	}

	name := tag.TagName()
	if name == "" {
		return nil
	}

	var scope *Scope
	if comment := tag.ParentOfKind(NodeDocComment); comment != nil {
		scope = comment.Scope
	}

	decls := e.resolver.Resolve(name, scope)
	if len(decls) != 1 {
		e.logger.Debug("tag not resolved",
			slog.String("tag", name),
			slog.Int("matches", len(decls)),
		)

		return nil
	}

	return NewSchema(decls[0])
}

// SchemasFor returns every known schema that may annotate a declaration of
// the given kind, in index order.
func (e *Engine) SchemasFor(kind Target) []*Schema {
	if e.index == nil {
		return nil
	}

	var out []*Schema

	for _, decl := range e.index.Schemas() {
		if !Permits(decl.Targets, kind, e.strict) {
			continue
		}

		if s := NewSchema(decl); s != nil {
			out = append(out, s)
		}
	}

	return out
}

// ValuesFor asks every provider for values of ref and returns all of their
// answers together, in provider order. Duplicates are kept.
func (e *Engine) ValuesFor(ref PropertyRef, extras Extras) []string {
	if ref.Schema == nil {
		return nil
	}

	return collectValues(e.logger, e.providers, ref, extras)
}

// Complete returns the candidates for the slot at cursor. It returns an
// empty result, never an error, when nothing applies.
func (e *Engine) Complete(cursor *Node) []Candidate {
	if cursor == nil {
		return nil
	}

	if e.gate != nil && !e.gate(cursor) {
		return nil
	}

	ctx := e.Classify(cursor)
	if ctx == nil {
		return nil
	}

	return e.Candidates(ctx)
}

// Candidates returns the candidates for an already classified context.
func (e *Engine) Candidates(ctx *Context) []Candidate {
	if ctx == nil || (ctx.Kind != ContextTagName && ctx.Schema == nil) {
		return nil
	}

	var out []Candidate

	switch ctx.Kind {
	case ContextTagName:
		kind, ok := OwnerTarget(ctx.Comment)
		if !ok {
			e.logger.Debug("documentation comment owner not classified")

			return nil
		}

		for _, s := range e.SchemasFor(kind) {
			out = append(out, schemaCandidate(s))
		}

	case ContextAttributeName:
		for _, p := range ctx.Schema.Properties {
			out = append(out, propertyCandidate(p))
		}

	case ContextAttributeValue, ContextDefaultValue:
		ref := PropertyRef{
			Cursor:   ctx.Cursor,
			Schema:   ctx.Schema,
			Property: ctx.Property,
			Kind:     RequestString,
		}
		if ctx.Kind == ContextDefaultValue {
			ref.Kind = RequestDefault
		}

		for _, v := range e.ValuesFor(ref, Extras{Tag: ctx.Tag, Prefix: ctx.Prefix}) {
			out = append(out, valueCandidate(v))
		}
	}

	return out
}
