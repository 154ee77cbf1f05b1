// Package watch re-runs a callback when watched files change. Used by the
// CLI's watch mode to re-simulate after decklist or config edits.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher invokes a callback when any watched file is written or replaced.
// Editors often produce bursts of events per save, so invocations are
// debounced.
type Watcher struct {
	paths    []string
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a watcher over the given file paths.
func New(paths []string, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{paths: paths, debounce: debounce, logger: logger}
}

// Run blocks, calling fn after each debounced change burst, until the
// context is cancelled. Callback errors are logged, not fatal: a broken
// intermediate save shouldn't kill watch mode.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context) error) (err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	// Modification times back up the event stream: some editors and network
	// filesystems drop events, so a slow poll catches what fsnotify missed.
	mtimes := make(map[string]time.Time, len(w.paths))
	for _, path := range w.paths {
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		if info, statErr := os.Stat(path); statErr == nil {
			mtimes[path] = info.ModTime()
		}
	}

	poll := time.NewTicker(2 * time.Second)
	defer poll.Stop()

	// The timer is armed on the first relevant event and re-armed on each
	// follow-up; fn runs only after the burst settles.
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("file changed", "path", event.Name, "op", event.Op.String())
			if pending {
				if !timer.Stop() {
					<-timer.C
				}
			}
			timer.Reset(w.debounce)
			pending = true

			// Editors that replace the file (rename + create) drop the
			// watch; re-add so the next save is still seen.
			if event.Op&(fsnotify.Rename|fsnotify.Create) != 0 {
				if addErr := watcher.Add(event.Name); addErr != nil {
					w.logger.Warn("re-watch failed", "path", event.Name, "error", addErr)
				}
			}

		case watchErr := <-watcher.Errors:
			w.logger.Warn("file watcher error", "error", watchErr)

		case <-poll.C:
			for _, path := range w.paths {
				info, statErr := os.Stat(path)
				if statErr != nil {
					continue
				}
				if mod := info.ModTime(); !mod.Equal(mtimes[path]) {
					mtimes[path] = mod
					w.logger.Debug("file changed (poll)", "path", path)
					if pending {
						if !timer.Stop() {
							<-timer.C
						}
					}
					timer.Reset(w.debounce)
					pending = true
				}
			}

		case <-timer.C:
			pending = false
			// Refresh mtimes so the poll doesn't re-trigger the same burst.
			for _, path := range w.paths {
				if info, statErr := os.Stat(path); statErr == nil {
					mtimes[path] = info.ModTime()
				}
			}
			if err := fn(ctx); err != nil {
				w.logger.Error("watched run failed", "error", err)
			}
		}
	}
}
