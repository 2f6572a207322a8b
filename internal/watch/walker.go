package treewatch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// walk records full and, when it is an accepted directory, its subtree.
// Watches are installed before the directory is listed so that entries
// created during the listing still produce a notification.
//
// Only a failure to stat or list the root, or cancellation of ctx, is
// returned. Everything else is local to the path it happened on.
func (w *Watcher) walk(ctx context.Context, full string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel := w.rel(full)

	info, err := w.cfg.fs.Stat(full)
	if err != nil {
		if rel == "" {
			return fmt.Errorf("error reading root %s: %w", full, err)
		}
		w.logger.Debug("path vanished during walk", zap.String("path", rel), zap.Error(err))
		return nil
	}
	meta := metadataFromInfo(info)

	if rel != "" {
		ok, err := w.accept(ctx, rel, meta)
		if err != nil {
			w.reportError(err)
			return nil
		}
		if !ok {
			return nil
		}
		w.paths.set(rel, meta)
	}
	if !meta.IsDir() {
		return nil
	}

	w.install(full, rel)

	names, err := w.cfg.fs.ReadDirnames(full)
	if err != nil {
		if rel == "" {
			return fmt.Errorf("error listing root %s: %w", full, err)
		}
		w.logger.Debug("directory vanished during walk", zap.String("path", rel), zap.Error(err))
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.concurrency)
	for _, name := range names {
		child := filepath.Join(full, name)
		g.Go(func() error {
			return w.walk(gctx, child)
		})
	}
	return g.Wait()
}

// install subscribes to notifications for the directory full.
func (w *Watcher) install(full, rel string) {
	if !w.cfg.watch || w.watches.has(rel) {
		return
	}
	h, err := w.notifier.Watch(full, w.onRaw)
	if err != nil {
		w.reportError(fmt.Errorf("watch %q: %w", rel, err))
		return
	}
	atomic.AddInt64(&w.stats.WatchesAdded, 1)
	if prev, replaced := w.watches.set(rel, h); replaced {
		w.closeHandle(rel, prev)
	}
	// Close may have cleared the registry while Watch was running. Whichever
	// side removes the entry closes it.
	if w.ctx.Err() != nil {
		if h, ok := w.watches.delete(rel); ok {
			w.closeHandle(rel, h)
		}
	}
}

func (w *Watcher) closeHandle(rel string, h Handle) {
	atomic.AddInt64(&w.stats.WatchesRemoved, 1)
	if err := h.Close(); err != nil {
		w.logger.Debug("error closing watch", zap.String("path", rel), zap.Error(err))
	}
}
