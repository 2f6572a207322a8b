package treewatch

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// RawFunc receives a coarse notification that the entry named child inside
// the watched directory dir changed in some unspecified way.
type RawFunc func(dir, child string)

// Handle is a live subscription to notifications for one directory.
type Handle interface {
	Close() error
}

// Notifier installs per-directory watches.
//
// Watch must not deliver notifications for children of other directories to
// fn. Close releases every handle still open.
type Notifier interface {
	Watch(dir string, fn RawFunc) (Handle, error)
	Close() error
}

// FSNotifier is a Notifier backed by a single fsnotify watcher.
type FSNotifier struct {
	w      *fsnotify.Watcher
	logger *zap.Logger

	mu   sync.RWMutex
	dirs map[string]RawFunc

	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// NewFSNotifier creates an fsnotify-backed notifier and starts its event loop.
func NewFSNotifier(logger *zap.Logger) (*FSNotifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating watcher: %w", err)
	}
	n := &FSNotifier{
		w:      w,
		logger: logger,
		dirs:   make(map[string]RawFunc),
	}
	n.wg.Add(1)
	go n.run()
	return n, nil
}

// Watch subscribes fn to changes of the direct children of dir.
func (n *FSNotifier) Watch(dir string, fn RawFunc) (Handle, error) {
	dir = filepath.Clean(dir)
	n.mu.Lock()
	n.dirs[dir] = fn
	n.mu.Unlock()

	if err := n.w.Add(dir); err != nil {
		n.mu.Lock()
		delete(n.dirs, dir)
		n.mu.Unlock()
		return nil, fmt.Errorf("error watching directory %s: %w", dir, err)
	}
	return &fsHandle{n: n, dir: dir}, nil
}

// Close stops the event loop and releases the underlying watcher.
func (n *FSNotifier) Close() error {
	n.closeOnce.Do(func() {
		n.closeErr = n.w.Close()
		n.wg.Wait()
		n.mu.Lock()
		n.dirs = make(map[string]RawFunc)
		n.mu.Unlock()
	})
	return n.closeErr
}

func (n *FSNotifier) run() {
	defer n.wg.Done()
	for {
		select {
		case event, ok := <-n.w.Events:
			if !ok {
				return
			}
			n.dispatch(event)
		case err, ok := <-n.w.Errors:
			if !ok {
				return
			}
			n.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// dispatch routes an fsnotify event to the subscription of its parent
// directory. The operation is discarded; reconciliation re-stats the path.
func (n *FSNotifier) dispatch(event fsnotify.Event) {
	dir, child := filepath.Dir(event.Name), filepath.Base(event.Name)
	n.mu.RLock()
	fn := n.dirs[dir]
	n.mu.RUnlock()
	if fn == nil {
		n.logger.Debug("dropping event for unwatched directory",
			zap.String("path", event.Name), zap.Stringer("op", event.Op))
		return
	}
	fn(dir, child)
}

type fsHandle struct {
	n    *FSNotifier
	dir  string
	once sync.Once
}

// Close removes the watch. A watch the kernel already dropped because its
// directory vanished is not an error.
func (h *fsHandle) Close() error {
	var err error
	h.once.Do(func() {
		h.n.mu.Lock()
		delete(h.n.dirs, h.dir)
		h.n.mu.Unlock()
		err = h.n.w.Remove(h.dir)
		if errors.Is(err, fsnotify.ErrNonExistentWatch) || errors.Is(err, fsnotify.ErrClosed) {
			err = nil
		}
	})
	return err
}
