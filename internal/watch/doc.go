// Package treewatch keeps an in-memory mirror of a directory tree and
// reports settled changes to it.
//
// A Watcher walks its root once in Init, recording the metadata of every
// path accepted by the optional filter and installing one native watch per
// directory. Raw notifications are coarse: they name a directory and one of
// its children, nothing more. Both paths are debounced independently and,
// once quiet, queued for reconciliation. A single goroutine drains the queue,
// re-stats each path and diffs it against the snapshot:
//
//   - a path that appeared or changed yields an OpChange event; a directory
//     that appeared is walked and each path inside it is reported too
//   - a path that vanished yields an OpDelete event; for a directory the
//     deletes of everything below it are synthesized from the snapshot,
//     because the notifier only reports the closest surviving ancestor
//
// Basic usage:
//
//	w, err := treewatch.New("/path/to/root", treewatch.WithDebounce(20*time.Millisecond))
//	if err != nil {
//		return err
//	}
//	w.OnEvent(func(ev treewatch.Event) {
//		fmt.Println(ev.Op, ev.Path)
//	})
//	if err := w.Init(ctx); err != nil {
//		return err
//	}
//	defer w.Close()
package treewatch
