package cachestore

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchSettle batches bursts of filesystem events (editors and scp produce
// several per file) into a single onChange call.
const watchSettle = 500 * time.Millisecond

// Watch observes the local users directory and invokes onChange after the
// directory settles following a create, write, remove, or rename. It blocks
// until ctx is cancelled. A missing directory or unavailable watcher is
// logged and Watch returns nil; local enrollment still happens on the
// startup scan and after each sync.
func Watch(ctx context.Context, dir string, onChange func()) error {
	if dir == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("Local photo watcher unavailable", "error", err)
		return nil
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		slog.Warn("Cannot watch local users directory", "dir", dir, "error", err)
		return nil
	}
	slog.Info("Watching local users directory", "dir", dir)

	settle := time.NewTimer(watchSettle)
	if !settle.Stop() {
		<-settle.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if pending && !settle.Stop() {
				<-settle.C
			}
			settle.Reset(watchSettle)
			pending = true
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Local photo watcher error", "error", err)
		case <-settle.C:
			pending = false
			onChange()
		}
	}
}
