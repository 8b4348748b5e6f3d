package tokenstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"xplorer/pkg/logging"
)

// DefaultDebounceInterval is the quiet period after the last change before
// OnChange runs. Save produces a create and a rename in quick succession.
const DefaultDebounceInterval = 250 * time.Millisecond

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Path is the token file to watch. Its directory is created if missing.
	Path string

	// Debounce defaults to DefaultDebounceInterval.
	Debounce time.Duration

	// OnChange is called after the token file was written, replaced or
	// removed, for example by another xplorer process.
	OnChange func()
}

// Watcher reports changes to the token file. The parent directory is
// watched, not the file, so atomic replacements are seen.
type Watcher struct {
	mu      sync.Mutex
	config  WatcherConfig
	fs      *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool

	debounceMu    sync.Mutex
	debounceTimer *time.Timer
}

// NewWatcher creates a stopped watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounceInterval
	}
	return &Watcher{config: config}
}

// Start begins watching. Calling Start on a running watcher is a no-op.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	dir := filepath.Dir(w.config.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.fs = fsWatcher
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true

	// Channels are captured under the lock so Stop cannot race with them.
	go w.processEvents(fsWatcher.Events, fsWatcher.Errors, w.stopCh, w.doneCh)

	logging.Debug("TokenWatcher", "Watching %s for token changes", dir)
	return nil
}

// Stop ends watching and cancels any pending callback.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	_ = w.fs.Close()
	done := w.doneCh
	w.mu.Unlock()

	<-done

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceMu.Unlock()
}

func (w *Watcher) processEvents(eventsCh <-chan fsnotify.Event, errorsCh <-chan error, stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	for {
		select {
		case <-stopCh:
			return
		case event, ok := <-eventsCh:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-errorsCh:
			if !ok {
				return
			}
			logging.Error("TokenWatcher", err, "fsnotify error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != filepath.Base(w.config.Path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	logging.Debug("TokenWatcher", "Token file changed: %s", event.Op)
	w.triggerDebounced()
}

func (w *Watcher) triggerDebounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.config.Debounce, func() {
		w.mu.Lock()
		running := w.running
		callback := w.config.OnChange
		w.mu.Unlock()

		if running && callback != nil {
			callback()
		}
	})
}
