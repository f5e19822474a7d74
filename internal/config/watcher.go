package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a store when its backing file changes on disk.
// Editors save config files with write-then-rename sequences, so events
// are debounced before triggering a reload.
type Watcher struct {
	fsw      *fsnotify.Watcher
	done     chan struct{}
	onReload func(error)
}

// Watched is the subset of Store the watcher drives.
type Watched interface {
	Path() string
	Reload() error
}

// WatcherOption configures a Watcher.
type WatcherOption func(*watcherConfig)

type watcherConfig struct {
	debounceAfter time.Duration
	onReload      func(error)
}

// WithDebounce sets the quiet period before a reload fires.
func WithDebounce(d time.Duration) WatcherOption {
	return func(c *watcherConfig) {
		c.debounceAfter = d
	}
}

// WithReloadHook sets a callback invoked after every reload attempt
// with the reload's error, if any.
func WithReloadHook(fn func(error)) WatcherOption {
	return func(c *watcherConfig) {
		c.onReload = fn
	}
}

// NewWatcher starts watching the store's backing file.
func NewWatcher(store Watched, opts ...WatcherOption) (*Watcher, error) {
	cfg := watcherConfig{debounceAfter: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(&cfg)
	}

	path := store.Path()
	if path == "" {
		return nil, fmt.Errorf("config watcher: store has no backing file")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	// Watch the directory, not the file: editors replace files by
	// rename, which drops a direct file watch.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("config watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		done:     make(chan struct{}),
		onReload: cfg.onReload,
	}

	debounced := debounce.New(cfg.debounceAfter)
	target := filepath.Clean(path)

	go func() {
		for {
			select {
			case <-w.done:
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				debounced(func() {
					err := store.Reload()
					if w.onReload != nil {
						w.onReload(err)
					}
				})
			case _, ok := <-fsw.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
