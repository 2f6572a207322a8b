package treewatch

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultDebounce is the quiet interval used when none is configured.
const DefaultDebounce = 10 * time.Millisecond

// DefaultConcurrentWalks bounds how many children of one directory are
// walked at the same time.
const DefaultConcurrentWalks int = 100

// FilterFunc decides whether a path (and, for directories, its subtree) is
// tracked. path is relative to the root with '/' separators. A non-nil
// error fails the operation for that path only.
//
// The walk calls the filter from several goroutines at once, so it must be
// safe for concurrent use.
type FilterFunc func(ctx context.Context, path string, meta Metadata) (bool, error)

// ErrorHandler receives per-path failures that do not stop the watcher, one
// call per failure. Like FilterFunc it may be called concurrently.
type ErrorHandler func(err error)

// Option configures a Watcher.
type Option func(*config) error

type config struct {
	filter      FilterFunc
	watch       bool
	debounce    time.Duration
	concurrency int
	logger      *zap.Logger
	onError     ErrorHandler
	notifier    Notifier
	fs          FS
}

func defaultConfig() config {
	return config{
		watch:       true,
		debounce:    DefaultDebounce,
		concurrency: DefaultConcurrentWalks,
		logger:      zap.NewNop(),
		fs:          OSFS{},
	}
}

// WithFilter limits the tracked paths. Rejected directories are neither
// recorded, watched nor recursed into.
func WithFilter(fn FilterFunc) Option {
	return func(c *config) error {
		if fn == nil {
			return ErrNilFilter
		}
		c.filter = fn
		return nil
	}
}

// WithWatch toggles native watching. With watching disabled Init only
// builds the snapshot.
func WithWatch(enabled bool) Option {
	return func(c *config) error {
		c.watch = enabled
		return nil
	}
}

// WithDebounce sets the quiet interval a path must see before it is
// reconciled.
func WithDebounce(d time.Duration) Option {
	return func(c *config) error {
		if d < 0 {
			return ErrNegativeDebounce
		}
		c.debounce = d
		return nil
	}
}

// WithConcurrency bounds the per-directory fan-out of the tree walker.
func WithConcurrency(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return ErrInvalidConcurrency
		}
		c.concurrency = n
		return nil
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			logger = zap.NewNop()
		}
		c.logger = logger
		return nil
	}
}

// WithErrorHandler registers a callback for per-path failures.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(c *config) error {
		c.onError = fn
		return nil
	}
}

// WithNotifier replaces the fsnotify-backed notifier. The caller keeps
// ownership of n; Close releases the handles it issued but not n itself.
func WithNotifier(n Notifier) Option {
	return func(c *config) error {
		if n == nil {
			return ErrNilNotifier
		}
		c.notifier = n
		return nil
	}
}

// WithFS replaces the stat and listing collaborator.
func WithFS(fsys FS) Option {
	return func(c *config) error {
		if fsys == nil {
			return ErrNilFS
		}
		c.fs = fsys
		return nil
	}
}
