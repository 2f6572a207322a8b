package treewatch

import "errors"

// Configuration errors returned by New.
var (
	ErrNoDir              = errors.New("treewatch: dir must be a non-empty path")
	ErrNilFilter          = errors.New("treewatch: filter must be a function")
	ErrNegativeDebounce   = errors.New("treewatch: debounce must not be negative")
	ErrInvalidConcurrency = errors.New("treewatch: concurrency limit must be greater than zero")
	ErrNilNotifier        = errors.New("treewatch: notifier must not be nil")
	ErrNilFS              = errors.New("treewatch: fs must not be nil")
)

// Lifecycle errors returned by Init and Close.
var (
	ErrInitTwice       = errors.New("treewatch: cannot call Init twice")
	ErrCloseBeforeInit = errors.New("treewatch: cannot call Close before Init finishes")
	ErrCloseTwice      = errors.New("treewatch: cannot call Close twice")
)
