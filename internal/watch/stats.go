package treewatch

import "sync/atomic"

// Stats holds counters that are updated atomically while the watcher runs.
type Stats struct {
	RawEvents       int64 // Raw notifications received from the notifier
	Reconciled      int64 // Paths popped from the reconciliation queue
	Changes         int64 // Change events emitted
	Deletes         int64 // Delete events emitted
	WatchesAdded    int64 // Watch handles installed
	WatchesRemoved  int64 // Watch handles destroyed
	Errors          int64 // Per-path failures reported
	TimersCancelled int64 // Pending debounce timers dropped by Close
}

// snapshot returns a consistent-enough copy for reporting.
func (s *Stats) snapshot() Stats {
	return Stats{
		RawEvents:       atomic.LoadInt64(&s.RawEvents),
		Reconciled:      atomic.LoadInt64(&s.Reconciled),
		Changes:         atomic.LoadInt64(&s.Changes),
		Deletes:         atomic.LoadInt64(&s.Deletes),
		WatchesAdded:    atomic.LoadInt64(&s.WatchesAdded),
		WatchesRemoved:  atomic.LoadInt64(&s.WatchesRemoved),
		Errors:          atomic.LoadInt64(&s.Errors),
		TimersCancelled: atomic.LoadInt64(&s.TimersCancelled),
	}
}
