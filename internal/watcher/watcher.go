// Package watcher tails the corpus directory with fsnotify and feeds
// debounced change and remove events into the ingestion pipeline.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// defaultDebounce absorbs editor save bursts: a write storm on one file
// collapses into a single reload after the burst settles.
const defaultDebounce = 400 * time.Millisecond

// Watcher watches the corpus root recursively and invokes callbacks when
// document files change or disappear. Change callbacks are debounced per
// path; remove callbacks fire immediately and cancel any pending change.
type Watcher struct {
	root        string
	extensions  []string
	onChange    func(path string)
	onRemove    func(path string)
	debounce    time.Duration
	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
	logger      *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output (file events, new directories).
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher creates a watcher over the corpus root. onChange fires for
// created or modified files, onRemove for deleted or moved-away files.
// extensions filter which files count (empty = all).
func NewWatcher(root string, extensions []string, onChange, onRemove func(path string), opts ...Option) *Watcher {
	w := &Watcher{
		root:        filepath.Clean(root),
		extensions:  extensions,
		onChange:    onChange,
		onRemove:    onRemove,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. The corpus root is created if missing. The watcher
// runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	if w.logger != nil {
		w.logger.Debug("watcher starting",
			zap.String("root", w.root),
			zap.Strings("extensions", w.extensions))
	}
	if err := w.addTreeLocked(w.root); err != nil {
		_ = w.watcher.Close()
		w.watcher = nil
		w.started = false
		w.mu.Unlock()
		return err
	}
	w.mu.Unlock()
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil && w.logger != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	if !w.underRoot(path) {
		return
	}
	if w.logger != nil {
		w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	}
	switch {
	case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write):
		// A directory moved or created under the root brings its files with it.
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			w.handleNewDirectory(path)
			return
		}
		if w.matchExtension(path) {
			w.debounceChange(path)
		}
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		// Rename reports the old path of a moved file; either way the
		// document at this path is gone.
		w.cancelDebounce(path)
		if w.matchExtension(path) && w.onRemove != nil {
			w.onRemove(path)
		}
	}
}

// handleNewDirectory watches a directory that appeared under the root and
// feeds its existing files through the change pipeline, since inotify only
// reports the directory itself when a populated tree is moved in.
func (w *Watcher) handleNewDirectory(dirPath string) {
	if w.logger != nil {
		w.logger.Debug("watcher found new directory", zap.String("path", dirPath))
	}

	w.mu.Lock()
	watcher := w.watcher
	w.mu.Unlock()
	if watcher == nil {
		return
	}

	filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if addErr := watcher.Add(path); addErr != nil && w.logger != nil {
				w.logger.Debug("watcher failed to add directory", zap.String("path", path), zap.Error(addErr))
			}
			return nil
		}
		if w.matchExtension(path) {
			w.debounceChange(path)
		}
		return nil
	})
}

func (w *Watcher) underRoot(path string) bool {
	clean := filepath.Clean(path)
	return w.root == clean || inDir(w.root, clean)
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (w *Watcher) matchExtension(path string) bool {
	return matchExtension(path, w.extensions)
}

func matchExtension(path string, extensions []string) bool {
	ext := filepath.Ext(path)
	if len(extensions) == 0 {
		return true
	}
	for _, e := range extensions {
		eNorm := strings.TrimPrefix(strings.ToLower(e), ".")
		extNorm := strings.TrimPrefix(strings.ToLower(ext), ".")
		if eNorm == extNorm {
			return true
		}
	}
	return false
}

func (w *Watcher) debounceChange(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	t := time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		logger := w.logger
		w.mu.Unlock()
		if logger != nil {
			logger.Debug("watcher reloading file (debounced)", zap.String("path", path))
		}
		if w.onChange != nil {
			w.onChange(path)
		}
	})
	w.debounceMap[path] = t
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

// addTreeLocked creates the root if missing and registers every directory
// under it with fsnotify.
func (w *Watcher) addTreeLocked(root string) error {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(root, 0755); err != nil {
				return err
			}
		} else {
			return err
		}
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.watcher.Add(path)
	})
}

// Stop stops the watcher, cancels pending debounced callbacks, and releases
// the underlying fsnotify resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.debounceMap {
		t.Stop()
		delete(w.debounceMap, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
