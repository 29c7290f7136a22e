package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vollan/othala/internal/reconcile"
	"github.com/vollan/othala/internal/store"
)

// Watch starts an fsnotify watcher on the case-tree root and keeps both
// the index units and the sqlite index current until ctx is cancelled.
// Only directory creation matters here: a new client or project folder
// schedules a debounced reconciliation pass followed by an index sync.
// Newly created client directories are added to the watch list so their
// project folders are seen too.
func Watch(ctx context.Context, db *DB, s store.Provider, root string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addClientDirs(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	// Debounce bursts of directory creation into one reconcile pass.
	var debounce *time.Timer
	var debounceCh <-chan time.Time

	schedule := func() {
		if debounce == nil {
			debounce = time.NewTimer(500 * time.Millisecond)
			debounceCh = debounce.C
		} else {
			debounce.Reset(500 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-debounceCh:
			if _, err := reconcile.Run(s, root, time.Now(), logger); err != nil {
				logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
				continue
			}
			if err := Sync(db, s, logger); err != nil {
				logger.Warn("watcher: sync failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create == 0 {
				continue
			}
			info, statErr := os.Stat(ev.Name)
			if statErr != nil || !info.IsDir() {
				continue
			}
			// A directory directly under root is a client dir: watch it.
			if filepath.Dir(ev.Name) == root {
				if addErr := w.Add(ev.Name); addErr != nil {
					logger.Warn("watcher: add client dir failed",
						slog.String("path", ev.Name),
						slog.String("error", addErr.Error()))
				} else {
					logger.Debug("watcher: watching new client dir", slog.String("path", ev.Name))
				}
			}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addClientDirs watches root and each of its immediate subdirectories.
func addClientDirs(w *fsnotify.Watcher, root string) error {
	if err := w.Add(root); err != nil {
		return err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := w.Add(filepath.Join(root, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
