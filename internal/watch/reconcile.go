package treewatch

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// reconcile re-stats one settled path and brings the snapshot in line with
// what is on disk, emitting the events that describe the difference.
// It only ever runs on the queue's drain goroutine.
func (w *Watcher) reconcile(full string) {
	atomic.AddInt64(&w.stats.Reconciled, 1)
	rel := w.rel(full)

	info, err := w.cfg.fs.Stat(full)
	if err != nil {
		w.reconcileGone(rel)
		return
	}
	meta := metadataFromInfo(info)

	if rel != "" {
		ok, err := w.accept(w.ctx, rel, meta)
		if err != nil {
			w.reportError(err)
			return
		}
		if !ok {
			w.logger.Debug("filtered", zap.String("path", rel))
			return
		}
		prev, existed := w.paths.set(rel, meta)
		if !existed || !prev.Equal(meta) {
			w.emit(Event{Op: OpChange, Path: rel, Meta: meta, IsNew: !existed})
		}
		if existed && prev.IsDir() && !meta.IsDir() {
			// A directory was replaced by something else under the same name.
			w.dropSubtree(rel)
		}
	}

	if meta.IsDir() && !w.watches.has(rel) {
		if err := w.walk(w.ctx, full); err != nil {
			w.logger.Debug("walk of new directory stopped", zap.String("path", rel), zap.Error(err))
		}
		for _, e := range w.paths.descendants(rel) {
			w.emit(Event{Op: OpChange, Path: e.Path, Meta: e.Value, IsNew: true})
		}
	}
}

// reconcileGone handles a path that could not be stat'ed.
func (w *Watcher) reconcileGone(rel string) {
	if rel == "" {
		return
	}
	meta, ok := w.paths.delete(rel)
	if !ok {
		return
	}
	w.emit(Event{Op: OpDelete, Path: rel, Meta: meta})
	if w.watches.has(rel) {
		w.dropSubtree(rel)
	}
}

// dropSubtree destroys the watches at and below rel and deletes every
// strict descendant from the snapshot. The notifier only reports the
// closest surviving ancestor, so the descendant deletes are synthesized
// from the snapshot.
func (w *Watcher) dropSubtree(rel string) {
	for _, e := range w.watches.deleteSubtree(rel) {
		w.closeHandle(e.Path, e.Value)
	}
	for _, e := range w.paths.deleteDescendants(rel) {
		w.emit(Event{Op: OpDelete, Path: e.Path, Meta: e.Value})
	}
}
