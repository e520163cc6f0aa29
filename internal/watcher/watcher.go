// Package watcher turns out-of-process edits of the data file into change
// notifications, so an external editor or companion import tool updates
// the presentation layer the same way an API write does.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/chronoglass/chronod/internal/notify"
)

const defaultSettleDelay = 200 * time.Millisecond

// Watcher monitors the data file for changes. It watches the containing
// directory rather than the file itself, because atomic saves replace the
// file by rename and a file-level watch would go stale after the first one.
type Watcher struct {
	watcher     *fsnotify.Watcher
	dataPath    string
	settleDelay time.Duration
	notifier    notify.Notifier
	logger      zerolog.Logger

	done     chan struct{}
	stopOnce sync.Once

	timerMu sync.Mutex
	timer   *time.Timer
}

// New creates a watcher for the file at dataPath that calls notifier
// after each settled change.
func New(dataPath string, notifier notify.Notifier, logger zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		watcher:     fsw,
		dataPath:    filepath.Clean(dataPath),
		settleDelay: defaultSettleDelay,
		notifier:    notifier,
		logger:      logger.With().Str("component", "watcher").Logger(),
		done:        make(chan struct{}),
	}, nil
}

// Start begins watching. The data directory is created if missing so the
// watch can be established before the first save.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.dataPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch data directory: %w", err)
	}

	go w.eventLoop()

	w.logger.Info().Str("path", w.dataPath).Msg("Data file watcher started")
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.done)
	})

	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timerMu.Unlock()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.logger.Info().Msg("Data file watcher stopped")
	return nil
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.dataPath {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	// Editors and atomic saves produce bursts of events for one logical
	// change; collapse the burst into a single notification.
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.settleDelay, func() {
		select {
		case <-w.done:
		default:
			w.logger.Debug().Str("op", event.Op.String()).Msg("Data file changed on disk")
			w.notifier.DataChanged()
		}
	})
}
