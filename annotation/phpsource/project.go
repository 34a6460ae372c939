package phpsource

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"runtime"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"go.jacobcolvin.com/annotate/annotation"
)

// DefaultExcludes are directory names skipped by [Load].
var DefaultExcludes = []string{".git", ".idea", "node_modules", "var", "cache"}

// Project indexes the declarations of a set of PHP files. It implements
// [annotation.Resolver] and [annotation.Index]. A Project is immutable once
// built; [Project.Overlay] returns a modified copy.
type Project struct {
	files  map[string]*File
	byName map[string][]*annotation.Declaration
	paths  []string
}

// LoadOption configures [Load].
type LoadOption func(*loader)

type loader struct {
	logger      *slog.Logger
	excludes    []string
	concurrency int
}

// WithConcurrency limits how many files are parsed at once. Values less than
// 1 are ignored.
func WithConcurrency(n int) LoadOption {
	return func(l *loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithExcludes replaces the directory names skipped while walking.
func WithExcludes(names ...string) LoadOption {
	return func(l *loader) {
		l.excludes = names
	}
}

// WithLogger sets the logger used for files that fail to parse.
func WithLogger(logger *slog.Logger) LoadOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Load parses every .php file in fsys. Files that fail to parse are logged
// and skipped; a file that cannot be read fails the load.
func Load(ctx context.Context, fsys fs.FS, opts ...LoadOption) (*Project, error) {
	l := &loader{
		logger:      slog.Default(),
		excludes:    DefaultExcludes,
		concurrency: runtime.GOMAXPROCS(0),
	}

	for _, opt := range opts {
		opt(l)
	}

	var paths []string

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if p != "." && slices.Contains(l.excludes, d.Name()) {
				return fs.SkipDir
			}

			return nil
		}

		if path.Ext(p) == ".php" {
			paths = append(paths, p)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	files := make([]*File, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for i, p := range paths {
		g.Go(func() error {
			src, err := fs.ReadFile(fsys, p)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrReadInput, err)
			}

			f, err := ParseFile(ctx, p, src)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}

				l.logger.Warn("skipping file",
					slog.String("path", p),
					slog.Any("error", err),
				)

				return nil
			}

			files[i] = f

			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		return nil, err
	}

	return NewProject(slices.DeleteFunc(files, func(f *File) bool { return f == nil })...), nil
}

// NewProject builds a [Project] from already parsed files. Later files with
// the same path replace earlier ones.
func NewProject(files ...*File) *Project {
	p := &Project{files: make(map[string]*File, len(files))}

	for _, f := range files {
		p.files[f.Path] = f
	}

	p.reindex()

	return p
}

func (p *Project) reindex() {
	p.paths = p.paths[:0]
	for name := range p.files {
		p.paths = append(p.paths, name)
	}

	slices.Sort(p.paths)

	p.byName = map[string][]*annotation.Declaration{}

	for _, name := range p.paths {
		for _, d := range p.files[name].Declarations {
			key := strings.ToLower(d.Name)
			p.byName[key] = append(p.byName[key], d)
		}
	}
}

// Overlay returns a copy of the project with f added, replacing any file
// with the same path. The receiver is not modified.
func (p *Project) Overlay(f *File) *Project {
	files := make(map[string]*File, len(p.files)+1)
	for k, v := range p.files {
		files[k] = v
	}

	files[f.Path] = f

	out := &Project{files: files}
	out.reindex()

	return out
}

// File returns the parsed file at path.
func (p *Project) File(name string) (*File, bool) {
	f, ok := p.files[name]

	return f, ok
}

// Files returns every file in path order.
func (p *Project) Files() []*File {
	out := make([]*File, 0, len(p.paths))
	for _, name := range p.paths {
		out = append(out, p.files[name])
	}

	return out
}

// Lookup returns every declaration with the fully qualified name. Names are
// matched case-insensitively, and a leading separator is ignored.
func (p *Project) Lookup(name string) []*annotation.Declaration {
	return p.byName[strings.ToLower(strings.TrimPrefix(name, `\`))]
}

// Resolve resolves a tag name to annotation declarations. A fully qualified
// name ("\Foo\Bar") is looked up directly. A name whose first segment is
// a use import alias follows the import. Any other name is relative to the
// current namespace.
func (p *Project) Resolve(name string, scope *annotation.Scope) []*annotation.Declaration {
	if strings.HasPrefix(name, `\`) {
		return annotations(p.Lookup(name))
	}

	if scope == nil {
		scope = &annotation.Scope{}
	}

	first, rest, nested := strings.Cut(name, `\`)

	if target, ok := scope.Imports[strings.ToLower(first)]; ok {
		if nested {
			target += `\` + rest
		}

		return annotations(p.Lookup(target))
	}

	if scope.Namespace != "" {
		name = scope.Namespace + `\` + name
	}

	return annotations(p.Lookup(name))
}

// Schemas returns every annotation declaration in path order.
func (p *Project) Schemas() []*annotation.Declaration {
	var out []*annotation.Declaration

	for _, name := range p.paths {
		out = append(out, annotations(p.files[name].Declarations)...)
	}

	return out
}

func annotations(decls []*annotation.Declaration) []*annotation.Declaration {
	var out []*annotation.Declaration

	for _, d := range decls {
		if d.Annotation && d.Kind.ClassLike() {
			out = append(out, d)
		}
	}

	return out
}

// Cache holds the current [Project] for a workspace, so readers never see
// a partly built index.
type Cache struct {
	project *Project
	mu      sync.RWMutex
}

// NewCache returns a Cache holding p.
func NewCache(p *Project) *Cache {
	if p == nil {
		p = NewProject()
	}

	return &Cache{project: p}
}

// Project returns the current project.
func (c *Cache) Project() *Project {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.project
}

// Store replaces the current project.
func (c *Cache) Store(p *Project) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.project = p
}

// Reload rebuilds the project from fsys and stores it.
func (c *Cache) Reload(ctx context.Context, fsys fs.FS, opts ...LoadOption) error {
	p, err := Load(ctx, fsys, opts...)
	if err != nil {
		return err
	}

	c.Store(p)

	return nil
}
