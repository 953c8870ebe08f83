package profile

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is the delay between the last observed change and the
// cache invalidation.
const DefaultDebounce = 100 * time.Millisecond

// Invalidator drops cached state when the backing files change.
type Invalidator interface {
	Invalidate()
}

// Watcher watches a profile directory for edits made outside the manager
// (another engine process, a user editing files by hand) and invalidates the
// cached list once the writes settle.
//
//	go watcher.Start(ctx)
type Watcher struct {
	dir     string
	target  Invalidator
	watcher *fsnotify.Watcher
	logger  zerolog.Logger

	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer

	// onInvalidate is called after each invalidation; tests use it.
	onInvalidate func()
}

// NewWatcher creates a watcher over dir that invalidates target. A
// non-positive debounce selects DefaultDebounce.
func NewWatcher(dir string, target Invalidator, debounce time.Duration, logger zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		dir:      dir,
		target:   target,
		watcher:  fw,
		debounce: debounce,
		logger:   logger.With().Str("component", "profile.watcher").Logger(),
	}, nil
}

// Start watches until ctx is canceled or the watcher is closed.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		w.logger.Error().Err(err).Str("dir", w.dir).Msg("Failed to watch profile directory")
		return err
	}

	w.logger.Info().Str("dir", w.dir).Dur("debounce", w.debounce).Msg("Started watching profiles")

	defer func() {
		w.stopTimer()
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn().Err(err).Msg("Error closing watcher")
		}
		w.logger.Info().Msg("Stopped watching profiles")
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug().
				Str("op", event.Op.String()).
				Str("file", event.Name).
				Msg("Detected profile change")
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("File watcher error")
		}
	}
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	w.stopTimer()
	return w.watcher.Close()
}

// relevant filters out lock and temp files, which start with a dot.
func relevant(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	if filepath.Ext(base) != ".json" || base[0] == '.' {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.target.Invalidate()
		w.logger.Debug().Msg("Profile cache invalidated")
		if w.onInvalidate != nil {
			w.onInvalidate()
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
