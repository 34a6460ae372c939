package lsp

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// watcher marks the project index stale when PHP sources or value catalogs
// change on disk. The index is rebuilt lazily by the next request.
type watcher struct {
	fs       *fsnotify.Watcher
	logger   *slog.Logger
	stale    *atomic.Bool
	excludes []string
	done     chan struct{}
}

func newWatcher(root string, excludes []string, stale *atomic.Bool, logger *slog.Logger) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &watcher{
		fs:       fw,
		logger:   logger,
		stale:    stale,
		excludes: excludes,
		done:     make(chan struct{}),
	}

	err = w.addTree(root)
	if err != nil {
		_ = fw.Close()

		return nil, err
	}

	go w.loop()

	return w, nil
}

// addTree watches dir and every directory below it. fsnotify watches are
// not recursive.
func (w *watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		if path != dir && slices.Contains(w.excludes, d.Name()) {
			return filepath.SkipDir
		}

		err = w.fs.Add(path)
		if err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}

		return nil
	})
}

func (w *watcher) loop() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}

			w.handle(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}

			w.logger.Warn("watch project", slog.Any("error", err))
		}
	}
}

func (w *watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		info, err := os.Stat(event.Name)
		if err == nil && info.IsDir() {
			err = w.addTree(event.Name)
			if err != nil {
				w.logger.Warn("watch new directory", slog.Any("error", err))
			}

			w.stale.Store(true)

			return
		}
	}

	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}

	if !relevant(event.Name) {
		return
	}

	w.logger.Debug("project changed",
		slog.String("file", event.Name),
		slog.String("op", event.Op.String()),
	)
	w.stale.Store(true)
}

func (w *watcher) Close() error {
	err := w.fs.Close()
	<-w.done

	return err
}

// relevant reports whether a change to path can change completion results.
func relevant(path string) bool {
	switch filepath.Ext(path) {
	case ".php", ".yaml", ".yml", ".json":
		return true
	}

	return false
}
