package treewatch

import (
	"strings"
	"sync"

	"github.com/tidwall/btree"
)

// pathMap is an ordered, concurrency-safe map keyed by relative path.
//
// Keys are kept sorted so the strict descendants of p form one contiguous
// run starting at p+"/". Subtree lookups are a range scan, O(log n + k).
// Both the metadata store and the watch registry are pathMaps.
type pathMap[V any] struct {
	mu sync.RWMutex
	m  *btree.Map[string, V]
}

// entry is a (path, value) pair returned by subtree scans.
type entry[V any] struct {
	Path  string
	Value V
}

func newPathMap[V any]() *pathMap[V] {
	return &pathMap[V]{m: btree.NewMap[string, V](0)}
}

// subtreePrefix returns the key prefix shared by all strict descendants of p.
func subtreePrefix(p string) string {
	if p == "" {
		return ""
	}
	return p + "/"
}

func (pm *pathMap[V]) get(p string) (V, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.m.Get(p)
}

func (pm *pathMap[V]) has(p string) bool {
	_, ok := pm.get(p)
	return ok
}

// set stores v under p and returns the previous value, if any.
func (pm *pathMap[V]) set(p string, v V) (V, bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.m.Set(p, v)
}

func (pm *pathMap[V]) delete(p string) (V, bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.m.Delete(p)
}

func (pm *pathMap[V]) len() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.m.Len()
}

// descendants returns the strict descendants of p in path order.
func (pm *pathMap[V]) descendants(p string) []entry[V] {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.scanLocked(p)
}

// deleteDescendants removes the strict descendants of p and returns them in
// path order.
func (pm *pathMap[V]) deleteDescendants(p string) []entry[V] {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	out := pm.scanLocked(p)
	for _, e := range out {
		pm.m.Delete(e.Path)
	}
	return out
}

// deleteSubtree removes p and its strict descendants.
func (pm *pathMap[V]) deleteSubtree(p string) []entry[V] {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	var out []entry[V]
	if v, ok := pm.m.Delete(p); ok {
		out = append(out, entry[V]{Path: p, Value: v})
	}
	for _, e := range pm.scanLocked(p) {
		pm.m.Delete(e.Path)
		out = append(out, e)
	}
	return out
}

// clear empties the map and returns everything it held.
func (pm *pathMap[V]) clear() []entry[V] {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	out := make([]entry[V], 0, pm.m.Len())
	pm.m.Scan(func(k string, v V) bool {
		out = append(out, entry[V]{Path: k, Value: v})
		return true
	})
	pm.m = btree.NewMap[string, V](0)
	return out
}

// snapshot copies the map into a plain Go map.
func (pm *pathMap[V]) snapshot() map[string]V {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	out := make(map[string]V, pm.m.Len())
	pm.m.Scan(func(k string, v V) bool {
		out[k] = v
		return true
	})
	return out
}

func (pm *pathMap[V]) keys() []string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	out := make([]string, 0, pm.m.Len())
	pm.m.Scan(func(k string, _ V) bool {
		out = append(out, k)
		return true
	})
	return out
}

// scanLocked collects strict descendants of p. Caller must hold pm.mu.
func (pm *pathMap[V]) scanLocked(p string) []entry[V] {
	prefix := subtreePrefix(p)
	var out []entry[V]
	pm.m.Ascend(prefix, func(k string, v V) bool {
		if !strings.HasPrefix(k, prefix) {
			return false
		}
		if k != p {
			out = append(out, entry[V]{Path: k, Value: v})
		}
		return true
	})
	return out
}
