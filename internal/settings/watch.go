package settings

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the store whenever its settings file changes on disk, so
// edits made outside the API (or by another hotdeck process) are picked up.
// It blocks until ctx is cancelled. The parent directory is watched rather
// than the file itself because editors and the store's own atomic save
// replace the file by rename.
func (s *Store) Watch(ctx context.Context, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(s.filePath)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(s.filePath)

	// Debounce bursts: one rename can produce several events.
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(250 * time.Millisecond)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("settings watcher error", "error", err)

		case <-pending:
			pending = nil
			log.Info("settings file changed, reloading", "path", s.filePath)
			s.Reload()
		}
	}
}
