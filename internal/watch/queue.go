package treewatch

import "sync"

// queue is a FIFO of absolute paths drained by at most one goroutine.
//
// Paths pushed before start are held until start is called. After stop the
// queue drops everything, including items not yet drained.
type queue struct {
	mu       sync.Mutex
	items    []string
	ready    bool
	draining bool
	stopped  bool
	process  func(path string)
}

func newQueue(process func(path string)) *queue {
	return &queue{process: process}
}

// push appends path and starts a drain if the queue is idle.
func (q *queue) push(path string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}
	q.items = append(q.items, path)
	q.kickLocked()
}

// start allows draining and processes anything queued so far.
func (q *queue) start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ready = true
	q.kickLocked()
}

// stop discards queued items. An item already being processed finishes.
func (q *queue) stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopped = true
	q.items = nil
}

// busy reports whether a drain is running or items are waiting.
func (q *queue) busy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.draining || len(q.items) > 0
}

// kickLocked moves the queue from idle to draining. Caller must hold q.mu.
func (q *queue) kickLocked() {
	if !q.ready || q.draining || q.stopped || len(q.items) == 0 {
		return
	}
	q.draining = true
	go q.drain()
}

func (q *queue) drain() {
	for {
		q.mu.Lock()
		if q.stopped || len(q.items) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		path := q.items[0]
		q.items[0] = ""
		q.items = q.items[1:]
		q.mu.Unlock()

		q.process(path)
	}
}
