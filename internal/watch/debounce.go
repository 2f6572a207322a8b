package treewatch

import (
	"sync"
	"time"
)

// debouncer keeps at most one pending timer per path. Touching a path that
// already has a timer restarts it, so only the last touch inside the quiet
// window fires.
type debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timers  map[string]*time.Timer
	fire    func(path string)
	stopped bool
}

func newDebouncer(delay time.Duration, fire func(path string)) *debouncer {
	return &debouncer{
		delay:  delay,
		timers: make(map[string]*time.Timer),
		fire:   fire,
	}
}

// touch schedules or restarts the timer for path.
func (d *debouncer) touch(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if t, ok := d.timers[path]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// A timer that lost the race with Stop finds a newer timer (or none)
		// registered for its path and bows out.
		if d.stopped || d.timers[path] != t {
			d.mu.Unlock()
			return
		}
		delete(d.timers, path)
		d.mu.Unlock()
		d.fire(path)
	})
	d.timers[path] = t
}

// pending returns the number of live timers.
func (d *debouncer) pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// stop cancels every pending timer and rejects further touches. It returns
// the number of timers cancelled.
func (d *debouncer) stop() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	n := len(d.timers)
	for path, t := range d.timers {
		t.Stop()
		delete(d.timers, path)
	}
	return n
}
