// Package lsp serves annotation completion to editors over the Language
// Server Protocol, using [github.com/tliron/glsp].
//
// A [Server] indexes the PHP project under the workspace root with
// [phpsource.Load] and prepares the engine's value providers against it.
// Open documents are kept in memory with full text sync; each completion
// request parses the current text of its document and overlays it on the
// index, so annotations declared in unsaved files are offered too.
//
// Changes to PHP sources and value catalogs on disk are detected with
// [github.com/fsnotify/fsnotify] and mark the index stale; it is rebuilt by
// the next request.
//
//	engine, err := cfg.NewEngine()
//	if err != nil {
//	    return err
//	}
//
//	srv := lsp.New(engine, lsp.WithRoot(dir), lsp.WithPublisher(pub))
//	return srv.RunStdio()
//
// Records published to a [log.Publisher] given with [WithPublisher] are sent
// to the client as window/logMessage notifications of matching severity.
package lsp
