package treewatch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"
)

// fakeNotifier records subscriptions and lets tests inject raw events.
type fakeNotifier struct {
	mu      sync.Mutex
	dirs    map[string]RawFunc
	closed  []string
	fail    map[string]bool
	onWatch func(dir string, fn RawFunc)
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		dirs: make(map[string]RawFunc),
		fail: make(map[string]bool),
	}
}

func (f *fakeNotifier) Watch(dir string, fn RawFunc) (Handle, error) {
	f.mu.Lock()
	if f.fail[dir] {
		f.mu.Unlock()
		return nil, errors.New("watch refused")
	}
	f.dirs[dir] = fn
	hook := f.onWatch
	f.mu.Unlock()
	if hook != nil {
		hook(dir, fn)
	}
	return &fakeHandle{f: f, dir: dir}, nil
}

func (f *fakeNotifier) Close() error { return nil }

// fire delivers a raw event as the native layer would for dir.
func (f *fakeNotifier) fire(dir, child string) {
	f.mu.Lock()
	fn := f.dirs[dir]
	f.mu.Unlock()
	if fn != nil {
		fn(dir, child)
	}
}

func (f *fakeNotifier) watching(dir string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.dirs[dir]
	return ok
}

func (f *fakeNotifier) closedDirs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.closed...)
}

type fakeHandle struct {
	f   *fakeNotifier
	dir string
}

func (h *fakeHandle) Close() error {
	h.f.mu.Lock()
	defer h.f.mu.Unlock()
	delete(h.f.dirs, h.dir)
	h.f.closed = append(h.f.closed, h.dir)
	return nil
}

// phantomFS lists names that do not exist, as if they were deleted between
// listing and stat.
type phantomFS struct {
	OSFS
	extra map[string][]string
}

func (p phantomFS) ReadDirnames(dir string) ([]string, error) {
	names, err := p.OSFS.ReadDirnames(dir)
	if err != nil {
		return nil, err
	}
	return append(names, p.extra[dir]...), nil
}

// recorder collects events delivered to a handler.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) take() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// settle waits until the watcher has no pending timers or queued paths for
// a few consecutive checks.
func settle(t *testing.T, w *Watcher) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	quiet := 0
	for quiet < 3 {
		select {
		case <-deadline:
			t.Fatalf("watcher did not settle")
		case <-time.After(10 * time.Millisecond):
		}
		if w.Pending() {
			quiet = 0
		} else {
			quiet++
		}
	}
}

// newFakeWatcher builds and initializes a watcher over root with a fake
// notifier and a short debounce.
func newFakeWatcher(t *testing.T, root string, opts ...Option) (*Watcher, *fakeNotifier, *recorder) {
	t.Helper()
	n := newFakeNotifier()
	opts = append([]Option{WithNotifier(n), WithDebounce(5 * time.Millisecond)}, opts...)
	w, err := New(root, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	rec := &recorder{}
	w.OnEvent(rec.handle)
	if err := w.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() {
		_ = w.Close()
	})
	return w, n, rec
}

// resolvedRoot returns root as a Watcher reports it: absolute with
// symlinks resolved.
func resolvedRoot(t *testing.T, root string) string {
	t.Helper()
	abs, err := filepath.Abs(root)
	if err != nil {
		t.Fatalf("Abs failed: %v", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		t.Fatalf("EvalSymlinks failed: %v", err)
	}
	return resolved
}

// makeTree creates files (content given) and directories (trailing '/')
// under root.
func makeTree(t *testing.T, root string, entries map[string]string) {
	t.Helper()
	for name, content := range entries {
		p := filepath.Join(root, filepath.FromSlash(name))
		if name[len(name)-1] == '/' {
			if err := os.MkdirAll(p, 0755); err != nil {
				t.Fatalf("Failed to create directory: %v", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}
}

// touchTime moves the modification time of p forward so a change is
// visible regardless of timestamp granularity.
func touchTime(t *testing.T, p string) {
	t.Helper()
	info, err := os.Lstat(p)
	if err != nil {
		t.Fatalf("Failed to stat %s: %v", p, err)
	}
	mt := info.ModTime().Add(time.Second)
	if err := os.Chtimes(p, mt, mt); err != nil {
		t.Fatalf("Failed to set times on %s: %v", p, err)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// eventSet renders events as "op path" strings for order-insensitive checks.
func eventSet(events []Event) map[string]Event {
	out := make(map[string]Event, len(events))
	for _, ev := range events {
		out[ev.Op.String()+" "+ev.Path] = ev
	}
	return out
}

func indexOf(events []Event, op Op, path string) int {
	for i, ev := range events {
		if ev.Op == op && ev.Path == path {
			return i
		}
	}
	return -1
}
