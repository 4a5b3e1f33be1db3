package config

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/castwave/castwave/lib/util/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/samber/oops"
	"golang.org/x/time/rate"
)

// watchDebounce coalesces the burst of filesystem events a single atomic
// save produces.
const watchDebounce = 250 * time.Millisecond

// Watcher reloads the manager when the stored root configuration changes on
// disk. It watches the config directory rather than the file itself, since
// saves land via temp-file renames that replace the inode.
type Watcher struct {
	mgr     *Manager
	fsw     *fsnotify.Watcher
	limiter *rate.Limiter
	dir     string

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	timer *time.Timer

	startOnce sync.Once
	closeOnce sync.Once
	closeErr  error
}

// NewWatcher prepares a watcher over the config directory holding the root
// configuration. Call Start to begin delivering reloads and Close to stop.
func NewWatcher(mgr *Manager, dir string) (*Watcher, error) {
	if mgr == nil {
		return nil, oops.Errorf("manager is nil")
	}
	if isBlank(dir) {
		return nil, oops.Errorf("watch directory is empty")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, oops.Errorf("creating filesystem watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, oops.Errorf("watching %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		mgr: mgr,
		fsw: fsw,
		// One reload per two seconds smooths out editor save storms
		// without dropping the final state.
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
		dir:     dir,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start begins watching. Safe to call once; later calls do nothing.
func (w *Watcher) Start() {
	w.startOnce.Do(func() {
		go w.run()
		log.WithFields(logger.Fields{
			"at":  "(Watcher) Start",
			"dir": w.dir,
		}).Debug("configuration watcher started")
	})
}

// Close stops watching and releases the filesystem watcher.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.cancel()
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		w.closeErr = w.fsw.Close()
	})
	return w.closeErr
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.isRootEvent(ev) {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.WithFields(logger.Fields{
				"at":     "(Watcher) run",
				"reason": err.Error(),
			}).Warn("filesystem watcher error")
		}
	}
}

// isRootEvent reports whether ev touches the root configuration in any of
// the loadable formats.
func (w *Watcher) isRootEvent(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	base := strings.ToLower(filepath.Base(ev.Name))
	for _, ext := range loadExtensions {
		if base == rootConfigName+ext {
			return true
		}
	}
	return false
}

// scheduleReload (re)arms the debounce timer; only the last event of a
// burst triggers a reload.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(watchDebounce, w.reload)
}

func (w *Watcher) reload() {
	if err := w.limiter.Wait(w.ctx); err != nil {
		return
	}
	if err := w.mgr.ReloadFromDisk(); err != nil {
		log.WithFields(logger.Fields{
			"at":     "(Watcher) reload",
			"reason": err.Error(),
		}).Warn("configuration reload failed, keeping active configuration")
	}
}
