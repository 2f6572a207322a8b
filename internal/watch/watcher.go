package treewatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Op identifies the kind of an Event.
type Op int

const (
	OpChange Op = iota // Path was added or its metadata changed
	OpDelete           // Path no longer exists
)

// String returns the short name used in CLI output.
func (o Op) String() string {
	if o == OpDelete {
		return "delete"
	}
	return "change"
}

// Event is a settled change to one path of the snapshot.
type Event struct {
	Op    Op       // Change or delete
	Path  string   // Path relative to the root, '/' separated
	Meta  Metadata // Fresh metadata, or last known metadata for deletes
	IsNew bool     // Change only: the path was not in the snapshot before
}

// EventHandler processes events. Handlers run on the reconciliation
// goroutine and must not block for long.
type EventHandler func(ev Event)

type status int32

const (
	statusCreated status = iota
	statusIniting
	statusReady
	statusFailed
	statusClosed
)

// Watcher mirrors the tree under a root directory and reports changes to it.
type Watcher struct {
	root   string
	cfg    config
	logger *zap.Logger

	paths   *pathMap[Metadata]
	watches *pathMap[Handle]

	debounce *debouncer
	queue    *queue

	notifier    Notifier
	ownNotifier bool

	ctx    context.Context
	cancel context.CancelFunc

	status atomic.Int32

	hmu      sync.RWMutex
	handlers []EventHandler

	stats Stats
}

// New validates the configuration and returns a Watcher for dir. Symlinks in
// dir are resolved; the tree itself is not read until Init.
func New(dir string, opts ...Option) (*Watcher, error) {
	if dir == "" {
		return nil, ErrNoDir
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDir, err)
	}
	// Descendants are never followed, but a symlinked root is.
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		root:     root,
		cfg:      cfg,
		logger:   cfg.logger.With(zap.String("root", root)),
		paths:    newPathMap[Metadata](),
		watches:  newPathMap[Handle](),
		notifier: cfg.notifier,
		ctx:      ctx,
		cancel:   cancel,
	}
	w.queue = newQueue(w.reconcile)
	w.debounce = newDebouncer(cfg.debounce, w.queue.push)
	return w, nil
}

// Root returns the absolute root directory with symlinks resolved.
func (w *Watcher) Root() string { return w.root }

// OnEvent registers a handler for change and delete events.
func (w *Watcher) OnEvent(h EventHandler) {
	if h == nil {
		return
	}
	w.hmu.Lock()
	w.handlers = append(w.handlers, h)
	w.hmu.Unlock()
}

// Init walks the root, records every accepted path and installs watches.
// It returns once the tree has been walked; events are reported afterwards.
func (w *Watcher) Init(ctx context.Context) error {
	if !w.status.CompareAndSwap(int32(statusCreated), int32(statusIniting)) {
		return ErrInitTwice
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if w.cfg.watch && w.notifier == nil {
		n, err := NewFSNotifier(w.cfg.logger)
		if err != nil {
			w.status.Store(int32(statusFailed))
			return err
		}
		w.notifier = n
		w.ownNotifier = true
	}

	start := time.Now()
	w.logger.Debug("starting walk", zap.Bool("watch", w.cfg.watch), zap.Duration("debounce", w.cfg.debounce))
	if err := w.walk(ctx, w.root); err != nil {
		w.teardown()
		w.status.Store(int32(statusFailed))
		return err
	}

	w.status.Store(int32(statusReady))
	w.queue.start()
	w.logger.Debug("watcher ready",
		zap.Int("paths", w.paths.len()),
		zap.Int("watches", w.watches.len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Close releases every watch and cancels pending debounce timers. The
// snapshot is kept as last observed.
func (w *Watcher) Close() error {
	switch status(w.status.Load()) {
	case statusClosed:
		return ErrCloseTwice
	case statusReady:
		if !w.status.CompareAndSwap(int32(statusReady), int32(statusClosed)) {
			return ErrCloseTwice
		}
	default:
		return ErrCloseBeforeInit
	}

	cancelled := w.teardown()
	atomic.AddInt64(&w.stats.TimersCancelled, int64(cancelled))
	w.logger.Debug("watcher closed", zap.Int("timers_cancelled", cancelled))
	return nil
}

// teardown stops scheduling and destroys every watch handle.
func (w *Watcher) teardown() int {
	w.cancel()
	cancelled := w.debounce.stop()
	w.queue.stop()
	for _, e := range w.watches.clear() {
		w.closeHandle(e.Path, e.Value)
	}
	if w.ownNotifier {
		if err := w.notifier.Close(); err != nil {
			w.logger.Warn("error closing notifier", zap.Error(err))
		}
	}
	return cancelled
}

// Paths returns a copy of the snapshot.
func (w *Watcher) Paths() map[string]Metadata {
	return w.paths.snapshot()
}

// Get returns the last known metadata of path.
func (w *Watcher) Get(path string) (Metadata, bool) {
	return w.paths.get(path)
}

// Len returns the number of tracked paths.
func (w *Watcher) Len() int {
	return w.paths.len()
}

// Watched returns the relative paths of the directories with a live watch,
// in path order. The root is reported as "".
func (w *Watcher) Watched() []string {
	return w.watches.keys()
}

// Stats returns a copy of the runtime counters.
func (w *Watcher) Stats() Stats {
	return w.stats.snapshot()
}

// Pending reports whether debounce timers or queued reconciliations are
// outstanding.
func (w *Watcher) Pending() bool {
	return w.debounce.pending() > 0 || w.queue.busy()
}

// onRaw marks both the notified directory and the named child as possibly
// changed.
func (w *Watcher) onRaw(dir, child string) {
	if status(w.status.Load()) == statusClosed {
		return
	}
	atomic.AddInt64(&w.stats.RawEvents, 1)
	w.debounce.touch(dir)
	w.debounce.touch(filepath.Join(dir, child))
}

func (w *Watcher) emit(ev Event) {
	if status(w.status.Load()) != statusReady {
		return
	}
	if ev.Op == OpDelete {
		atomic.AddInt64(&w.stats.Deletes, 1)
	} else {
		atomic.AddInt64(&w.stats.Changes, 1)
	}
	w.logger.Debug("event", zap.Stringer("op", ev.Op), zap.String("path", ev.Path), zap.Bool("new", ev.IsNew))

	w.hmu.RLock()
	handlers := w.handlers
	w.hmu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}

func (w *Watcher) reportError(err error) {
	atomic.AddInt64(&w.stats.Errors, 1)
	w.logger.Warn("path error", zap.Error(err))
	if w.cfg.onError != nil {
		w.cfg.onError(err)
	}
}

// accept runs the user filter, if any.
func (w *Watcher) accept(ctx context.Context, rel string, meta Metadata) (bool, error) {
	if w.cfg.filter == nil {
		return true, nil
	}
	ok, err := w.cfg.filter(ctx, rel, meta)
	if err != nil {
		return false, fmt.Errorf("filter %q: %w", rel, err)
	}
	return ok, nil
}

// rel converts an absolute path under the root to its relative form.
func (w *Watcher) rel(full string) string {
	if full == w.root {
		return ""
	}
	prefix := w.root
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}
	return filepath.ToSlash(strings.TrimPrefix(full, prefix))
}
