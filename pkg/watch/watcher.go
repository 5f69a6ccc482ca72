// Package watch re-runs analysis when source files change on disk.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/panbanda/ccnscan/pkg/config"
	"github.com/panbanda/ccnscan/pkg/lang"
)

// DefaultDebounce is used when NewWatcher is given a non-positive debounce.
const DefaultDebounce = 300 * time.Millisecond

// Handler receives the path and new content of a file whose content changed.
type Handler func(path string, content []byte)

// Watcher monitors files for changes and triggers analysis.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    *config.Config
	debounce  time.Duration
	path      string
	handler   Handler
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	pending map[string]time.Time
	digests map[string]uint64
}

// NewWatcher creates a new file watcher rooted at path.
func NewWatcher(path string, cfg *config.Config, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		debounce:  debounce,
		path:      path,
		logger:    slog.Default(),
		now:       time.Now,
		pending:   make(map[string]time.Time),
		digests:   make(map[string]uint64),
	}, nil
}

// SetHandler sets the function to call when a file's content changes.
func (w *Watcher) SetHandler(h Handler) {
	w.handler = h
}

// SetLogger replaces the default slog logger.
func (w *Watcher) SetLogger(logger *slog.Logger) {
	if logger != nil {
		w.logger = logger
	}
}

// Seed records content as already handled, so a save that leaves it unchanged
// does not trigger the handler.
func (w *Watcher) Seed(path string, content []byte) {
	w.mu.Lock()
	w.digests[filepath.Clean(path)] = xxhash.Sum64(content)
	w.mu.Unlock()
}

// Start begins watching for file changes. It blocks until ctx is done or the
// watcher is stopped.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.path); err != nil {
		return err
	}
	w.logger.Info("watching", "path", w.path, "dirs", len(w.fsWatcher.WatchList()))

	// Start debounce processor
	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// addTree watches root and every non-excluded directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.path && w.excluded(path, true) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// excluded applies the config exclusions relative to the watch root.
func (w *Watcher) excluded(path string, isDir bool) bool {
	rel, err := filepath.Rel(w.path, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	if isDir {
		rel += "/"
	}
	return w.config.ShouldExclude(rel)
}

// handleEvent processes a filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		w.mu.Lock()
		delete(w.pending, path)
		delete(w.digests, path)
		w.mu.Unlock()
		return
	}

	// Only care about writes and creates
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.excluded(path, true) {
				if err := w.addTree(path); err != nil {
					w.logger.Warn("watch directory", "path", path, "error", err)
				}
			}
			return
		}
	}

	if w.excluded(path, false) || lang.Detect(path) == lang.Unknown {
		return
	}

	// Add to pending with current time
	w.mu.Lock()
	w.pending[path] = w.now()
	w.mu.Unlock()
}

// processDebounced processes pending changes after debounce period.
func (w *Watcher) processDebounced(ctx context.Context) {
	tick := w.debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending()
		}
	}
}

// takeReady removes and returns files that have been stable for the debounce period.
func (w *Watcher) takeReady() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	var ready []string
	for path, lastMod := range w.pending {
		if now.Sub(lastMod) >= w.debounce {
			ready = append(ready, path)
		}
	}
	for _, path := range ready {
		delete(w.pending, path)
	}
	sort.Strings(ready)
	return ready
}

// processPending hands every settled file whose content digest changed to the handler.
func (w *Watcher) processPending() {
	for _, path := range w.takeReady() {
		content, err := os.ReadFile(path)
		if err != nil {
			w.logger.Debug("read changed file", "path", path, "error", err)
			continue
		}

		digest := xxhash.Sum64(content)
		w.mu.Lock()
		prev, seen := w.digests[path]
		w.digests[path] = digest
		w.mu.Unlock()

		if seen && prev == digest {
			w.logger.Debug("content unchanged", "path", path)
			continue
		}
		if w.handler != nil {
			w.handler(path, content)
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the directories currently watched.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}
