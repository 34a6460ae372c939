package lsp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"go.jacobcolvin.com/annotate/annotation"
	"go.jacobcolvin.com/annotate/annotation/phpsource"
	"go.jacobcolvin.com/annotate/log"
	"go.jacobcolvin.com/annotate/version"
)

// Name is the server name reported to clients.
const Name = "annotate"

// MaxDocuments caps how many open documents the server keeps.
const MaxDocuments = 256

var (
	// ErrUnknownDocument indicates a request for a document that is not open.
	ErrUnknownDocument = errors.New("unknown document")
	// ErrTooManyDocuments indicates the open document limit was reached.
	ErrTooManyDocuments = errors.New("too many open documents")
)

// TriggerCharacters are the characters that ask the client to request
// completion.
var TriggerCharacters = []string{"@", "(", ",", "=", `"`, "{", `\`}

// Server serves annotation completion over the Language Server Protocol.
//
// Create instances with [New].
type Server struct {
	engine   *annotation.Engine
	prepared *annotation.Engine
	cache    *phpsource.Cache
	docs     map[protocol.DocumentUri]string
	logger   *slog.Logger
	pub      *log.Publisher
	sub      *log.Subscription
	watch    *watcher
	root     string
	excludes []string
	loadOpts []phpsource.LoadOption
	stale    atomic.Bool
	loadMu   sync.Mutex
	mu       sync.RWMutex
}

// Option configures a [Server].
type Option func(*Server)

// WithRoot sets the project root used when the client does not send one.
// Relative roots are made absolute.
func WithRoot(root string) Option {
	return func(s *Server) {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}

		s.root = root
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPublisher forwards records published to pub to the client as
// window/logMessage notifications, with their severity.
func WithPublisher(pub *log.Publisher) Option {
	return func(s *Server) {
		s.pub = pub
	}
}

// WithExcludes replaces the directory names skipped while indexing and
// watching the project.
func WithExcludes(names ...string) Option {
	return func(s *Server) {
		s.excludes = names
	}
}

// WithLoadOptions adds options used whenever the project is indexed.
func WithLoadOptions(opts ...phpsource.LoadOption) Option {
	return func(s *Server) {
		s.loadOpts = append(s.loadOpts, opts...)
	}
}

// New creates a [Server] around engine. The engine's providers are
// prepared against the project root when the project is first indexed.
func New(engine *annotation.Engine, opts ...Option) *Server {
	s := &Server{
		engine:   engine,
		cache:    phpsource.NewCache(nil),
		docs:     map[protocol.DocumentUri]string{},
		logger:   slog.Default(),
		excludes: phpsource.DefaultExcludes,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.stale.Store(true)

	return s
}

// Handler returns the protocol handler for the server.
func (s *Server) Handler() *protocol.Handler {
	return &protocol.Handler{
		Initialize:             s.Initialize,
		Initialized:            s.Initialized,
		Shutdown:               s.Shutdown,
		TextDocumentDidOpen:    s.TextDocumentDidOpen,
		TextDocumentDidChange:  s.TextDocumentDidChange,
		TextDocumentDidClose:   s.TextDocumentDidClose,
		TextDocumentCompletion: s.TextDocumentCompletion,
	}
}

// RunStdio serves the protocol over standard input and output until the
// client disconnects.
func (s *Server) RunStdio() error {
	err := glspserver.NewServer(s.Handler(), Name, false).RunStdio()
	if err != nil {
		return fmt.Errorf("serve stdio: %w", err)
	}

	return nil
}

// Initialize handles the initialize request.
func (s *Server) Initialize(_ *glsp.Context, params *protocol.InitializeParams) (any, error) {
	if root, ok := rootFromParams(params); ok {
		s.mu.Lock()
		s.root = root
		s.mu.Unlock()
	}

	s.logger.Info("client initializing", slog.String("root", s.Root()))

	s.stale.Store(true)
	s.refresh(context.Background())

	syncKind := protocol.TextDocumentSyncKindFull
	openClose := true
	ver := version.Version
	if ver == "" {
		ver = "dev"
	}

	return protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: TriggerCharacters,
			},
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: &openClose,
				Change:    &syncKind,
			},
		},
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &ver,
		},
	}, nil
}

// Initialized starts watching the project and forwarding logs.
func (s *Server) Initialized(ctx *glsp.Context, _ *protocol.InitializedParams) error {
	root := s.Root()
	if root != "" {
		w, err := newWatcher(root, s.excludes, &s.stale, s.logger)
		if err != nil {
			s.logger.Warn("project changes will not be detected", slog.Any("error", err))
		} else {
			s.mu.Lock()
			s.watch = w
			s.mu.Unlock()
		}
	}

	if s.pub != nil && ctx != nil && ctx.Notify != nil {
		sub := s.pub.Subscribe()

		s.mu.Lock()
		s.sub = sub
		s.mu.Unlock()

		go forward(sub, ctx.Notify)
	}

	return nil
}

// Shutdown stops watching the project and forwarding logs.
func (s *Server) Shutdown(_ *glsp.Context) error {
	s.logger.Info("client shutting down")

	return s.Close()
}

// Close releases the watcher and log subscription. Idempotent.
func (s *Server) Close() error {
	s.mu.Lock()
	w, sub := s.watch, s.sub
	s.watch, s.sub = nil, nil
	s.mu.Unlock()

	if sub != nil {
		sub.Close()
	}

	if w != nil {
		err := w.Close()
		if err != nil {
			return fmt.Errorf("close watcher: %w", err)
		}
	}

	return nil
}

// TextDocumentDidOpen caches the opened document.
func (s *Server) TextDocumentDidOpen(_ *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uri := params.TextDocument.URI

	if _, ok := s.docs[uri]; !ok && len(s.docs) >= MaxDocuments {
		s.logger.Warn("document limit reached",
			slog.String("uri", string(uri)),
			slog.Int("max", MaxDocuments),
		)

		return fmt.Errorf("%w: %d", ErrTooManyDocuments, MaxDocuments)
	}

	s.docs[uri] = params.TextDocument.Text

	s.logger.Debug("document opened",
		slog.String("uri", string(uri)),
		slog.Int("length", len(params.TextDocument.Text)),
	)

	return nil
}

// TextDocumentDidChange replaces the cached document. Only full sync is
// advertised.
func (s *Server) TextDocumentDidChange(_ *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uri := params.TextDocument.URI

	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			s.docs[uri] = c.Text
		case *protocol.TextDocumentContentChangeEventWhole:
			s.docs[uri] = c.Text
		}
	}

	return nil
}

// TextDocumentDidClose drops the cached document.
func (s *Server) TextDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, params.TextDocument.URI)

	return nil
}

// TextDocumentCompletion answers a completion request. Failures and panics
// produce an empty list.
func (s *Server) TextDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in completion",
				slog.Any("panic", r),
				slog.String("uri", string(params.TextDocument.URI)),
			)

			result = []protocol.CompletionItem{}
			err = nil
		}
	}()

	uri := params.TextDocument.URI

	items, err := s.CompletionItems(context.Background(), uri, params.Position)
	if errors.Is(err, ErrUnknownDocument) {
		return []protocol.CompletionItem{}, nil
	}

	if err != nil {
		s.logger.Warn("completion failed",
			slog.String("uri", string(uri)),
			slog.Any("error", err),
		)

		return []protocol.CompletionItem{}, nil
	}

	s.logger.Debug("completion",
		slog.String("uri", string(uri)),
		slog.Int("line", int(params.Position.Line)),
		slog.Int("character", int(params.Position.Character)),
		slog.Int("count", len(items)),
	)

	return items, nil
}

// Document returns the cached text of an open document.
func (s *Server) Document(uri protocol.DocumentUri) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	text, ok := s.docs[uri]

	return text, ok
}

// Root returns the project root.
func (s *Server) Root() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.root
}

// CompleteAt returns candidates for a position in an open document.
func (s *Server) CompleteAt(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position) ([]annotation.Candidate, error) {
	text, ok := s.Document(uri)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, uri)
	}

	return s.Complete(ctx, uri, text, Offset(text, pos))
}

// CompletionItems returns completion items for a position in an open
// document, with insert behaviors applied: accepting a schema name opens
// its attribute list and imports the schema when the comment cannot reach
// it by its short name.
func (s *Server) CompletionItems(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position) ([]protocol.CompletionItem, error) {
	text, ok := s.Document(uri)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, uri)
	}

	r, err := s.complete(ctx, uri, text, Offset(text, pos))
	if err != nil {
		return nil, err
	}

	return r.items(), nil
}

// Complete returns candidates for the byte offset in text, the current
// contents of the document at uri. The document's own declarations take
// precedence over the indexed copy of the same file.
func (s *Server) Complete(ctx context.Context, uri protocol.DocumentUri, text string, offset int) ([]annotation.Candidate, error) {
	r, err := s.complete(ctx, uri, text, offset)
	if err != nil {
		return nil, err
	}

	return r.candidates, nil
}

func (s *Server) complete(ctx context.Context, uri protocol.DocumentUri, text string, offset int) (*request, error) {
	s.refresh(ctx)

	f, err := phpsource.ParseFile(ctx, s.relPath(uri), []byte(text))
	if err != nil {
		return nil, err
	}

	r := &request{text: text, offset: offset}

	comment, ok := f.CommentAt(offset)
	if !ok {
		return r, nil
	}

	cursor := phpsource.Cursor(f, offset)
	if cursor == nil {
		return r, nil
	}

	s.mu.RLock()
	engine := s.prepared
	s.mu.RUnlock()

	r.comment = comment
	r.project = s.cache.Project().Overlay(f)
	r.candidates = engine.With(
		annotation.WithResolver(r.project),
		annotation.WithIndex(r.project),
	).Complete(cursor)

	return r, nil
}

// refresh reloads the project when it is stale. Requests wait for a
// reload in progress.
func (s *Server) refresh(ctx context.Context) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if s.stale.Swap(false) {
		s.reload(ctx)
	}
}

// reload indexes the project and prepares providers against it. Without a
// root the index is empty and providers see an empty project.
func (s *Server) reload(ctx context.Context) {
	root := s.Root()

	if root == "" {
		s.mu.Lock()
		s.prepared = s.engine.ForProject(emptyFS{})
		s.mu.Unlock()

		return
	}

	fsys := os.DirFS(root)

	opts := append([]phpsource.LoadOption{
		phpsource.WithExcludes(s.excludes...),
		phpsource.WithLogger(s.logger),
	}, s.loadOpts...)

	err := s.cache.Reload(ctx, fsys, opts...)
	if err != nil {
		s.logger.Warn("index project", slog.String("root", root), slog.Any("error", err))
	}

	prepared := s.engine.ForProject(fsys)

	s.mu.Lock()
	s.prepared = prepared
	s.mu.Unlock()

	s.logger.Info("project indexed",
		slog.String("root", root),
		slog.Int("files", len(s.cache.Project().Files())),
		slog.Int("schemas", len(s.cache.Project().Schemas())),
	)
}

// relPath returns the slash-separated project path of uri, matching the
// paths produced by indexing.
func (s *Server) relPath(uri protocol.DocumentUri) string {
	p, ok := PathFromURI(uri)
	if !ok {
		return string(uri)
	}

	root := s.Root()
	if root != "" {
		rel, err := filepath.Rel(root, p)
		if err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}

	return filepath.ToSlash(p)
}

func rootFromParams(params *protocol.InitializeParams) (string, bool) {
	if params.RootURI != nil {
		if p, ok := PathFromURI(*params.RootURI); ok {
			return p, true
		}
	}

	if params.RootPath != nil && *params.RootPath != "" {
		return *params.RootPath, true
	}

	return "", false
}

func forward(sub *log.Subscription, notify glsp.NotifyFunc) {
	for entry := range sub.C() {
		notify("window/logMessage", protocol.LogMessageParams{
			Type:    messageType(entry.Level),
			Message: entry.Message,
		})
	}
}

func messageType(level slog.Level) protocol.MessageType {
	switch {
	case level >= slog.LevelError:
		return protocol.MessageTypeError
	case level >= slog.LevelWarn:
		return protocol.MessageTypeWarning
	case level >= slog.LevelInfo:
		return protocol.MessageTypeInfo
	}

	return protocol.MessageTypeLog
}

type emptyFS struct{}

func (emptyFS) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}
