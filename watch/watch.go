// Package watch keeps a live, in-memory mirror of a directory tree and
// reports debounced add, update and delete events as the tree changes.
//
// This package is the public face of the treewatch engine:
//
//	w, err := watch.New("/path/to/root",
//		watch.WithDebounce(20*time.Millisecond),
//		watch.WithFilter(func(ctx context.Context, path string, meta watch.Metadata) (bool, error) {
//			return !strings.HasPrefix(path, "node_modules"), nil
//		}),
//	)
//	if err != nil {
//		return err
//	}
//	w.OnEvent(func(ev watch.Event) {
//		fmt.Printf("%s %s (new=%v)\n", ev.Op, ev.Path, ev.IsNew)
//	})
//	if err := w.Init(ctx); err != nil {
//		return err
//	}
//	defer w.Close()
package watch

import (
	internal "github.com/TFMV/treewatch/internal/watch"
	"go.uber.org/zap"
)

// Re-export the types from the internal package
type (
	// Watcher mirrors the tree under a root directory and reports changes to it.
	Watcher = internal.Watcher

	// Event is a settled change to one path of the snapshot.
	Event = internal.Event

	// Op identifies the kind of an Event.
	Op = internal.Op

	// EventHandler processes events.
	EventHandler = internal.EventHandler

	// Metadata holds the last observed attributes of a path.
	Metadata = internal.Metadata

	// Kind classifies a path in the snapshot.
	Kind = internal.Kind

	// Option configures a Watcher.
	Option = internal.Option

	// FilterFunc decides whether a path is tracked.
	FilterFunc = internal.FilterFunc

	// FilterOptions defines glob and size criteria for PatternFilter.
	FilterOptions = internal.FilterOptions

	// ErrorHandler receives per-path failures that do not stop the watcher.
	ErrorHandler = internal.ErrorHandler

	// Stats holds the runtime counters of a Watcher.
	Stats = internal.Stats

	// Notifier, Handle and RawFunc describe the native notification layer.
	Notifier = internal.Notifier
	Handle   = internal.Handle
	RawFunc  = internal.RawFunc

	// FS supplies file metadata and directory listings.
	FS = internal.FS

	// LogLevel defines the verbosity of logging.
	LogLevel = internal.LogLevel
)

// Re-export the constants
const (
	OpChange = internal.OpChange
	OpDelete = internal.OpDelete

	KindFile      = internal.KindFile
	KindDirectory = internal.KindDirectory
	KindOther     = internal.KindOther

	LogLevelError = internal.LogLevelError
	LogLevelWarn  = internal.LogLevelWarn
	LogLevelInfo  = internal.LogLevelInfo
	LogLevelDebug = internal.LogLevelDebug

	DefaultDebounce        = internal.DefaultDebounce
	DefaultConcurrentWalks = internal.DefaultConcurrentWalks
)

// Re-export the errors
var (
	ErrNoDir              = internal.ErrNoDir
	ErrNilFilter          = internal.ErrNilFilter
	ErrNegativeDebounce   = internal.ErrNegativeDebounce
	ErrInvalidConcurrency = internal.ErrInvalidConcurrency
	ErrNilNotifier        = internal.ErrNilNotifier
	ErrNilFS              = internal.ErrNilFS
	ErrInitTwice          = internal.ErrInitTwice
	ErrCloseBeforeInit    = internal.ErrCloseBeforeInit
	ErrCloseTwice         = internal.ErrCloseTwice
)

// Re-export the options
var (
	WithFilter       = internal.WithFilter
	WithWatch        = internal.WithWatch
	WithDebounce     = internal.WithDebounce
	WithConcurrency  = internal.WithConcurrency
	WithLogger       = internal.WithLogger
	WithErrorHandler = internal.WithErrorHandler
	WithNotifier     = internal.WithNotifier
	WithFS           = internal.WithFS
)

// New validates the configuration and returns a Watcher for dir.
func New(dir string, opts ...Option) (*Watcher, error) {
	return internal.New(dir, opts...)
}

// PatternFilter builds a FilterFunc from glob and size criteria.
func PatternFilter(opts FilterOptions) (FilterFunc, error) {
	return internal.PatternFilter(opts)
}

// NewLogger creates a zap logger with the specified log level.
func NewLogger(level LogLevel) *zap.Logger {
	return internal.NewLogger(level)
}

// NewFSNotifier creates the fsnotify-backed Notifier used by default.
func NewFSNotifier(logger *zap.Logger) (Notifier, error) {
	n, err := internal.NewFSNotifier(logger)
	if err != nil {
		return nil, err
	}
	return n, nil
}
