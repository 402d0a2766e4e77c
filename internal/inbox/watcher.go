// Package inbox watches a drop directory for batch CSV files and hands
// each one to an import handler exactly once.
package inbox

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// importedSuffix marks files that have been processed. Processed files
// stay in the inbox for operator inspection but are never picked up again.
const importedSuffix = ".imported"

// debounce is how long a file must stay quiet before it is imported, so
// that slow copies into the inbox are read only once, complete.
const debounce = 500 * time.Millisecond

// Handler processes one dropped batch file. A nil return lets the watcher
// mark the file as imported; an error leaves it in place for retry after
// the operator intervenes.
type Handler func(path string) error

// Watch processes every *.csv already in dir, then reacts to new or
// rewritten files until ctx is cancelled. Events are debounced per file.
func Watch(ctx context.Context, dir string, logger *slog.Logger, handle Handler) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("inbox: watching", slog.String("dir", dir))

	// Pick up anything dropped before we started.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() && isBatchFile(e.Name()) {
			process(filepath.Join(dir, e.Name()), logger, handle)
		}
	}

	// Per-file debounce timers funnel into one channel so the loop stays
	// single-threaded.
	ready := make(chan string)
	var mu sync.Mutex
	timers := make(map[string]*time.Timer)
	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := timers[path]; ok {
			t.Reset(debounce)
			return
		}
		timers[path] = time.AfterFunc(debounce, func() {
			mu.Lock()
			delete(timers, path)
			mu.Unlock()
			select {
			case ready <- path:
			case <-ctx.Done():
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			for _, t := range timers {
				t.Stop()
			}
			mu.Unlock()
			logger.Info("inbox: stopped")
			return nil

		case path := <-ready:
			process(path, logger, handle)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !isBatchFile(filepath.Base(ev.Name)) {
				continue
			}
			schedule(ev.Name)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("inbox: watch error", slog.String("error", err.Error()))
		}
	}
}

func isBatchFile(name string) bool {
	return strings.HasSuffix(name, ".csv") && !strings.HasSuffix(name, importedSuffix)
}

func process(path string, logger *slog.Logger, handle Handler) {
	if _, err := os.Stat(path); err != nil {
		// Gone before we got to it.
		return
	}
	if err := handle(path); err != nil {
		logger.Warn("inbox: import failed",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return
	}
	if err := os.Rename(path, path+importedSuffix); err != nil {
		logger.Warn("inbox: mark imported failed",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return
	}
	logger.Info("inbox: imported", slog.String("file", path))
}
