package lsp_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"go.jacobcolvin.com/annotate/annotation"
	"go.jacobcolvin.com/annotate/annotation/phpsource"
	"go.jacobcolvin.com/annotate/annotation/values/enum"
	"go.jacobcolvin.com/annotate/annotation/values/yamlcatalog"
	"go.jacobcolvin.com/annotate/lsp"
	"go.jacobcolvin.com/annotate/stringtest"
)

var routeSrc = stringtest.Input(`
	<?php

	namespace Lib\Annotation;

	/**
	 * @Annotation
	 * @Target({"CLASS", "METHOD"})
	 */
	class Route
	{
	    /** @Enum({"GET", "POST"}) */
	    public $method;

	    public $name;

	    public $tags = [];
	}
`)

var catalogSrc = stringtest.Input(`
	schemas:
	  Lib\Annotation\Route:
	    properties:
	      method: [PUT]
`)

var controllerSrc = stringtest.Input(`
	<?php

	namespace App;

	use Lib\Annotation\Route;

	/**
	 * MARK
	 */
	class Controller
	{
	}
`)

func writeFile(t *testing.T, root, name, data string) {
	t.Helper()

	p := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
}

func testServer(t *testing.T, opts ...lsp.Option) (*lsp.Server, string) {
	t.Helper()

	root := t.TempDir()
	writeFile(t, root, "lib/Annotation/Route.php", routeSrc)
	writeFile(t, root, "src/Controller.php", controllerSrc)
	writeFile(t, root, yamlcatalog.DefaultPath, catalogSrc)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := annotation.NewEngine(
		annotation.WithProviders(enum.New(), yamlcatalog.New()),
		annotation.WithLogger(logger),
	)

	opts = append([]lsp.Option{lsp.WithRoot(root), lsp.WithLogger(logger)}, opts...)

	s := lsp.New(engine, opts...)
	t.Cleanup(func() {
		assert.NoError(t, s.Close())
	})

	return s, root
}

// document replaces MARK in the controller with doc, and returns the text
// and the offset of "|" in doc.
func document(doc string) (string, int) {
	text := strings.Replace(controllerSrc, "MARK", doc, 1)
	offset := strings.Index(text, "|")

	return strings.Replace(text, "|", "", 1), offset
}

func labels(cs []annotation.Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Label)
	}

	return out
}

func TestOffset(t *testing.T) {
	t.Parallel()

	text := "ab\néx\n\U0001F600y\nlast"

	tcs := map[string]struct {
		pos  protocol.Position
		want int
	}{
		"start":              {pos: protocol.Position{Line: 0, Character: 0}, want: 0},
		"first line":         {pos: protocol.Position{Line: 0, Character: 2}, want: 2},
		"past line end":      {pos: protocol.Position{Line: 0, Character: 9}, want: 2},
		"two byte rune":      {pos: protocol.Position{Line: 1, Character: 1}, want: 5},
		"surrogate pair":     {pos: protocol.Position{Line: 2, Character: 2}, want: 11},
		"after surrogate":    {pos: protocol.Position{Line: 2, Character: 3}, want: 12},
		"last line":          {pos: protocol.Position{Line: 3, Character: 4}, want: len(text)},
		"past last line":     {pos: protocol.Position{Line: 9, Character: 0}, want: len(text)},
		"second line start":  {pos: protocol.Position{Line: 1, Character: 0}, want: 3},
		"third line start":   {pos: protocol.Position{Line: 2, Character: 0}, want: 7},
		"fourth line offset": {pos: protocol.Position{Line: 3, Character: 1}, want: 14},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, lsp.Offset(text, tc.pos))
		})
	}
}

func TestPosition(t *testing.T) {
	t.Parallel()

	text := "ab\néx\n\U0001F600y\nlast"

	tcs := map[string]struct {
		offset int
		want   protocol.Position
	}{
		"start":           {offset: 0, want: protocol.Position{Line: 0, Character: 0}},
		"line end":        {offset: 2, want: protocol.Position{Line: 0, Character: 2}},
		"two byte rune":   {offset: 5, want: protocol.Position{Line: 1, Character: 1}},
		"surrogate pair":  {offset: 11, want: protocol.Position{Line: 2, Character: 2}},
		"after surrogate": {offset: 12, want: protocol.Position{Line: 2, Character: 3}},
		"end":             {offset: len(text), want: protocol.Position{Line: 3, Character: 4}},
		"negative":        {offset: -1, want: protocol.Position{Line: 0, Character: 0}},
		"past end":        {offset: 99, want: protocol.Position{Line: 3, Character: 4}},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := lsp.Position(text, tc.offset)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, min(max(tc.offset, 0), len(text)), lsp.Offset(text, got))
		})
	}
}

func TestPathFromURI(t *testing.T) {
	t.Parallel()

	p, ok := lsp.PathFromURI("file:///srv/app/src/My%20Controller.php")
	require.True(t, ok)
	assert.Equal(t, filepath.FromSlash("/srv/app/src/My Controller.php"), p)

	_, ok = lsp.PathFromURI("untitled:Untitled-1")
	assert.False(t, ok)

	dir := t.TempDir()
	want := filepath.Join(dir, "a b.php")

	uri := lsp.URIFromPath(want)
	assert.True(t, strings.HasPrefix(string(uri), "file:///"))

	p, ok = lsp.PathFromURI(uri)
	require.True(t, ok)
	assert.Equal(t, want, p)
}

func TestServerComplete(t *testing.T) {
	t.Parallel()

	s, root := testServer(t)
	uri := lsp.URIFromPath(filepath.Join(root, "src", "Controller.php"))

	tcs := map[string]struct {
		doc  string
		want []string
	}{
		"tag name": {
			doc:  "@Ro|",
			want: []string{"Route"},
		},
		"attribute name": {
			doc:  "@Route(|)",
			want: []string{"method", "name", "tags"},
		},
		"attribute value": {
			doc:  `@Route(method="|")`,
			want: []string{"GET", "POST", "PUT"},
		},
		"free text": {
			doc:  "Handles | requests.",
			want: nil,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			text, offset := document(tc.doc)

			got, err := s.Complete(t.Context(), uri, text, offset)
			require.NoError(t, err)

			if tc.want == nil {
				assert.Empty(t, got)

				return
			}

			assert.Equal(t, tc.want, labels(got))
		})
	}
}

func TestServerCompleteOverlay(t *testing.T) {
	t.Parallel()

	s, root := testServer(t)
	uri := lsp.URIFromPath(filepath.Join(root, "src", "Controller.php"))

	// An annotation declared only in the unsaved document is offered.
	text, offset := document("@|")
	text += stringtest.Input(`
		/** @Annotation */
		class Local
		{
		}
	`)

	got, err := s.Complete(t.Context(), uri, text, offset)
	require.NoError(t, err)
	assert.Equal(t, []string{"Route", "Local"}, labels(got))
}

func TestServerDocuments(t *testing.T) {
	t.Parallel()

	s, root := testServer(t)
	uri := lsp.URIFromPath(filepath.Join(root, "src", "Controller.php"))

	_, err := s.CompleteAt(t.Context(), uri, protocol.Position{})
	require.ErrorIs(t, err, lsp.ErrUnknownDocument)

	text, _ := document("@Route(|)")
	require.NoError(t, s.TextDocumentDidOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "php", Text: text},
	}))

	got, ok := s.Document(uri)
	require.True(t, ok)
	assert.Equal(t, text, got)

	changed, offset := document(`@Route(method="|")`)
	require.NoError(t, s.TextDocumentDidChange(nil, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: changed}},
	}))

	line := strings.Count(changed[:offset], "\n")
	character := offset - strings.LastIndex(changed[:offset], "\n") - 1

	result, err := s.TextDocumentCompletion(nil, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position: protocol.Position{
				Line:      protocol.UInteger(line),
				Character: protocol.UInteger(character),
			},
		},
	})
	require.NoError(t, err)

	items, ok := result.([]protocol.CompletionItem)
	require.True(t, ok)
	require.Len(t, items, 3)
	assert.Equal(t, "GET", items[0].Label)
	require.NotNil(t, items[0].Kind)
	assert.Equal(t, protocol.CompletionItemKindValue, *items[0].Kind)
	assert.Nil(t, items[0].InsertText)

	require.NoError(t, s.TextDocumentDidClose(nil, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))

	_, ok = s.Document(uri)
	assert.False(t, ok)
}

func TestServerCompletionItems(t *testing.T) {
	t.Parallel()

	s, root := testServer(t)
	uri := lsp.URIFromPath(filepath.Join(root, "src", "Controller.php"))

	text, offset := document("@Route(|)")
	require.NoError(t, s.TextDocumentDidOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "php", Text: text},
	}))

	line := strings.Count(text[:offset], "\n")
	character := offset - strings.LastIndex(text[:offset], "\n") - 1

	result, err := s.TextDocumentCompletion(nil, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position: protocol.Position{
				Line:      protocol.UInteger(line),
				Character: protocol.UInteger(character),
			},
		},
	})
	require.NoError(t, err)

	items, ok := result.([]protocol.CompletionItem)
	require.True(t, ok)
	require.Len(t, items, 3)

	inserts := map[string]string{}
	for _, item := range items {
		require.NotNil(t, item.Kind)
		assert.Equal(t, protocol.CompletionItemKindProperty, *item.Kind)
		require.NotNil(t, item.InsertText)

		inserts[item.Label] = *item.InsertText
	}

	assert.Equal(t, map[string]string{
		"method": `method=""`,
		"name":   `name=""`,
		"tags":   "tags={}",
	}, inserts)
}

func TestServerUnknownDocumentCompletion(t *testing.T) {
	t.Parallel()

	s, _ := testServer(t)

	result, err := s.TextDocumentCompletion(nil, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///missing.php"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []protocol.CompletionItem{}, result)
}

func TestServerInitialize(t *testing.T) {
	t.Parallel()

	s, root := testServer(t)
	other := t.TempDir()
	rootURI := lsp.URIFromPath(other)

	result, err := s.Initialize(nil, &protocol.InitializeParams{RootURI: &rootURI})
	require.NoError(t, err)

	init, ok := result.(protocol.InitializeResult)
	require.True(t, ok)
	require.NotNil(t, init.ServerInfo)
	assert.Equal(t, lsp.Name, init.ServerInfo.Name)
	require.NotNil(t, init.Capabilities.CompletionProvider)
	assert.Equal(t, lsp.TriggerCharacters, init.Capabilities.CompletionProvider.TriggerCharacters)

	assert.Equal(t, other, s.Root())
	assert.NotEqual(t, root, s.Root())

	// The new root has no schemas.
	text, offset := document("@|")
	got, err := s.Complete(t.Context(), lsp.URIFromPath(filepath.Join(other, "x.php")), text, offset)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestServerWatch(t *testing.T) {
	t.Parallel()

	s, root := testServer(t)
	uri := lsp.URIFromPath(filepath.Join(root, "src", "Controller.php"))
	text, offset := document("@|")

	got, err := s.Complete(t.Context(), uri, text, offset)
	require.NoError(t, err)
	assert.Equal(t, []string{"Route"}, labels(got))

	require.NoError(t, s.Initialized(nil, &protocol.InitializedParams{}))

	writeFile(t, root, "lib/Annotation/Cache.php", stringtest.Input(`
		<?php

		namespace Lib\Annotation;

		/** @Annotation */
		class Cache
		{
		}
	`))

	assert.Eventually(t, func() bool {
		got, err := s.Complete(t.Context(), uri, text, offset)

		return err == nil && assert.ObjectsAreEqual([]string{"Cache", "Route"}, labels(got))
	}, 5*time.Second, 20*time.Millisecond)
}

func TestServerLoadOptions(t *testing.T) {
	t.Parallel()

	s, root := testServer(t, lsp.WithLoadOptions(phpsource.WithExcludes("legacy")))
	writeFile(t, root, "legacy/Old.php", stringtest.Input(`
		<?php

		namespace Legacy;

		/** @Annotation */
		class Old
		{
		}
	`))

	text, offset := document("@|")

	got, err := s.Complete(t.Context(), lsp.URIFromPath(filepath.Join(root, "src", "Controller.php")), text, offset)
	require.NoError(t, err)
	assert.Equal(t, []string{"Route"}, labels(got))
}

// tagServer adds schemas from other namespaces to the test project: one
// whose short name is free in the controller and one whose short name is
// already imported.
func tagServer(t *testing.T) (*lsp.Server, protocol.DocumentUri) {
	t.Helper()

	s, root := testServer(t)
	writeFile(t, root, "lib/Cache/Cache.php", stringtest.Input(`
		<?php

		namespace Lib\Cache;

		/** @Annotation */
		class Cache
		{
		    public $ttl;
		}
	`))
	writeFile(t, root, "lib/Other/Route.php", stringtest.Input(`
		<?php

		namespace Other;

		/** @Annotation */
		class Route
		{
		    public $path;
		}
	`))

	return s, lsp.URIFromPath(filepath.Join(root, "src", "Controller.php"))
}

// openItems opens text as the document at uri and returns the completion
// items at offset, keyed by detail.
func openItems(t *testing.T, s *lsp.Server, uri protocol.DocumentUri, text string, offset int) map[string]protocol.CompletionItem {
	t.Helper()

	require.NoError(t, s.TextDocumentDidOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "php", Text: text},
	}))

	items, err := s.CompletionItems(t.Context(), uri, lsp.Position(text, offset))
	require.NoError(t, err)

	byDetail := map[string]protocol.CompletionItem{}
	for _, item := range items {
		require.NotNil(t, item.Detail)

		byDetail[*item.Detail] = item
	}

	return byDetail
}

// accept applies item to text the way an editor does when the prefix
// before offset is empty, and returns the new text and caret offset.
func accept(t *testing.T, text string, offset int, item protocol.CompletionItem) (string, int) {
	t.Helper()

	for _, edit := range item.AdditionalTextEdits {
		start := lsp.Offset(text, edit.Range.Start)
		end := lsp.Offset(text, edit.Range.End)
		require.LessOrEqual(t, end, offset)

		text = text[:start] + edit.NewText + text[end:]
		offset += len(edit.NewText) - (end - start)
	}

	insert := item.Label
	if item.InsertText != nil {
		insert = *item.InsertText
	}

	if item.InsertTextFormat == nil || *item.InsertTextFormat != protocol.InsertTextFormatSnippet {
		return text[:offset] + insert + text[offset:], offset + len(insert)
	}

	unescape := strings.NewReplacer(`\\`, `\`, `\$`, `$`, `\}`, `}`)

	before, after, ok := strings.Cut(insert, "$0")
	require.True(t, ok, insert)

	before = unescape.Replace(before)
	after = unescape.Replace(after)

	return text[:offset] + before + after + text[offset:], offset + len(before)
}

func TestServerTagInsert(t *testing.T) {
	t.Parallel()

	s, uri := tagServer(t)
	text, offset := document("@|")
	items := openItems(t, s, uri, text, offset)
	require.Len(t, items, 3)

	snippet := protocol.InsertTextFormatSnippet

	tcs := map[string]struct {
		edits  []protocol.TextEdit
		insert string
		filter string
	}{
		`Lib\Annotation\Route`: {
			insert: "Route($0)",
		},
		`Lib\Cache\Cache`: {
			insert: "Cache($0)",
			edits: []protocol.TextEdit{{
				Range: protocol.Range{
					Start: protocol.Position{Line: 4, Character: 25},
					End:   protocol.Position{Line: 4, Character: 25},
				},
				NewText: "\nuse Lib\\Cache\\Cache;",
			}},
		},
		`Other\Route`: {
			insert: `\\Other\\Route($0)`,
			filter: "Route",
		},
	}

	for detail, tc := range tcs {
		t.Run(detail, func(t *testing.T) {
			t.Parallel()

			item, ok := items[detail]
			require.True(t, ok)

			require.NotNil(t, item.InsertText)
			assert.Equal(t, tc.insert, *item.InsertText)
			assert.Equal(t, &snippet, item.InsertTextFormat)
			assert.Equal(t, tc.edits, item.AdditionalTextEdits)

			if tc.filter == "" {
				assert.Nil(t, item.FilterText)
			} else {
				require.NotNil(t, item.FilterText)
				assert.Equal(t, tc.filter, *item.FilterText)
			}
		})
	}
}

func TestServerTagInsertExistingList(t *testing.T) {
	t.Parallel()

	s, uri := tagServer(t)
	text, offset := document("@Ro|()")
	items := openItems(t, s, uri, text, offset)
	require.Len(t, items, 2)

	reached := items[`Lib\Annotation\Route`]
	assert.Nil(t, reached.InsertText)
	assert.Nil(t, reached.InsertTextFormat)

	qualified := items[`Other\Route`]
	require.NotNil(t, qualified.InsertText)
	assert.Equal(t, `\Other\Route`, *qualified.InsertText)
	assert.Nil(t, qualified.InsertTextFormat)
}

func TestServerTagInsertThenAttributes(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		want []string
	}{
		`Lib\Cache\Cache`: {want: []string{"ttl"}},
		`Other\Route`:     {want: []string{"path"}},
		`Lib\Annotation\Route`: {
			want: []string{"method", "name", "tags"},
		},
	}

	for detail, tc := range tcs {
		t.Run(detail, func(t *testing.T) {
			t.Parallel()

			s, uri := tagServer(t)
			text, offset := document("@|")
			items := openItems(t, s, uri, text, offset)

			item, ok := items[detail]
			require.True(t, ok)

			text, offset = accept(t, text, offset, item)

			got, err := s.Complete(t.Context(), uri, text, offset)
			require.NoError(t, err)
			assert.Equal(t, tc.want, labels(got))
		})
	}
}
