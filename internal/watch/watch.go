// Package watch runs a callback when watched files change, batching
// bursts of events with a debounce window.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the window used when Options.Debounce is zero.
const DefaultDebounce = 100 * time.Millisecond

// Options configures a watch.
type Options struct {
	// Paths are files or directories to watch. Directories are watched
	// non-recursively.
	Paths []string
	// Match filters changed paths; nil accepts every path.
	Match func(path string) bool
	// Debounce is how long to wait for more events before calling back.
	Debounce time.Duration
	Logger   *slog.Logger
}

// Run blocks until ctx is done, calling fn with the sorted set of changed
// paths after each debounced burst of events. Errors returned by fn are
// logged and do not stop the watch.
func Run(ctx context.Context, opts Options, fn func(changed []string) error) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()
	for _, p := range opts.Paths {
		// Watch the parent of regular files: editors replace files by rename.
		dir := p
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			dir = filepath.Dir(p)
		}
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch: adding %s: %w", dir, err)
		}
	}

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending = make(map[string]struct{})
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			if opts.Match != nil && !opts.Match(ev.Name) {
				continue
			}
			pending[ev.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", slog.Any("error", err))
		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			clear(pending)
			slices.Sort(changed)
			logger.Debug("files changed", slog.Int("count", len(changed)))
			if err := fn(changed); err != nil {
				logger.Error("handling file change failed", slog.Any("error", err))
			}
		}
	}
}
