package settings

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/and161185/prismcms/internal/metrics"
)

// DefaultDebounce batches the burst of events an editor save produces.
const DefaultDebounce = 250 * time.Millisecond

// WatcherStats counts reload outcomes.
type WatcherStats struct {
	Reloads  int
	Failures int
}

// Watcher reloads a Store whenever its YAML file changes.
// A file that fails to load is logged and the last good settings stay.
type Watcher struct {
	store    *Store
	path     string
	debounce time.Duration
	log      *zap.Logger
	fw       *fsnotify.Watcher

	mu      sync.Mutex
	stats   WatcherStats
	started bool

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewWatcher prepares a watcher for path. Call Start to begin watching.
func NewWatcher(store *Store, path string, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = fw.Close()
		return nil, err
	}
	return &Watcher{
		store:    store,
		path:     abs,
		debounce: debounce,
		log:      log,
		fw:       fw,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start watches the directory of the file, so atomic renames are seen too.
// On failure the fsnotify watcher is released and the Watcher is unusable.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fw.Add(filepath.Dir(w.path)); err != nil {
		w.Stop()
		return err
	}
	w.mu.Lock()
	w.started = true
	w.mu.Unlock()

	w.log.Info("watching settings", zap.String("path", w.path))
	go w.run(ctx)
	return nil
}

// Stop ends the loop, if it was started, and releases the fsnotify watcher.
// Safe to call twice.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.mu.Lock()
		started := w.started
		w.mu.Unlock()
		if started {
			<-w.doneCh
		}
		if err := w.fw.Close(); err != nil {
			w.log.Warn("settings watcher close", zap.Error(err))
		}
	})
}

// Stats returns a snapshot of reload counters.
func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("settings watcher", zap.Error(err))
		case <-pending:
			pending = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	err := w.store.LoadFile(w.path)

	w.mu.Lock()
	if err != nil {
		w.stats.Failures++
	} else {
		w.stats.Reloads++
	}
	w.mu.Unlock()

	if err != nil {
		metrics.SettingsReloadsTotal.WithLabelValues(metrics.ResultError).Inc()
		w.log.Warn("settings reload failed, keeping previous values", zap.String("path", w.path), zap.Error(err))
		return
	}
	metrics.SettingsReloadsTotal.WithLabelValues(metrics.ResultOK).Inc()
	w.log.Info("settings reloaded", zap.String("path", w.path))
}
