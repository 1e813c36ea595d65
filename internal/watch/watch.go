// Package watch re-themes when the tracked wallpaper file changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 750 * time.Millisecond

// Watcher follows one file. The parent directory is watched so that
// wallpaper setters which replace the file or symlink are still seen.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(ctx context.Context, path string)
	logger   *slog.Logger
}

func New(path string, debounce time.Duration, onChange func(ctx context.Context, path string), logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		onChange: onChange,
		logger:   logger.With("topic", "watch"),
	}
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// Run blocks until ctx is done. onChange is called from this goroutine, once
// per burst of events.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching wallpaper", "path", w.path, "debounce", w.debounce)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			w.logger.Debug("event", "op", ev.Op.String())
			if ev.Has(fsnotify.Remove) {
				w.logger.Info("wallpaper removed", "path", w.path)
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Chmod) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.logger.Info("wallpaper changed", "path", w.path)
			w.onChange(ctx, w.path)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "err", err)
		}
	}
}
