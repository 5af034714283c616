package inference

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher hot-reloads a rule file on change. The dialog layer reads the
// active set through Rules(); a failed reload keeps the previous set so a
// half-written file never breaks a running conversation.
type Watcher struct {
	mu       sync.RWMutex
	rules    RuleSet
	path     string
	watcher  *fsnotify.Watcher
	log      *zap.Logger
	debounce time.Duration
	lastLoad time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewWatcher loads the rule file and starts watching its directory.
// The initial load must succeed; this is the fail-fast startup check.
func NewWatcher(path string, log *zap.Logger) (*Watcher, error) {
	rules, err := Load(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: editors replace files on save.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		rules:    rules,
		path:     path,
		watcher:  fsw,
		log:      log,
		debounce: 250 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Rules returns the active rule set.
func (w *Watcher) Rules() RuleSet {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.rules
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.stopCh)
	err := w.watcher.Close()
	<-w.doneCh
	return err
}

func (w *Watcher) loop() {
	defer close(w.doneCh)
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("rule watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if time.Since(w.lastLoad) < w.debounce {
		return
	}
	w.lastLoad = time.Now()

	rules, err := Load(w.path)
	if err != nil {
		w.log.Warn("rule reload failed, keeping previous set", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.rules = rules
	w.log.Info("requirement rules reloaded", zap.String("path", w.path), zap.Int("requirements", len(rules)))
}
