//go:build darwin

// internal/watcher/watcher_darwin.go
package watcher

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/colebrumley/willow/internal/engine"
	"github.com/colebrumley/willow/internal/event"
	"github.com/fsnotify/fsevents"
)

// Start opens an FSEvents stream and blocks until ctx is cancelled.
// FSEvents watches path strings (not descriptors) and is always
// recursive; non-recursive mode is enforced by depth-filtering below.
func (w *Watcher) Start(ctx context.Context, out chan<- engine.Msg) error {
	stream := &fsevents.EventStream{
		Paths:   []string{w.root},
		Latency: 0,
		Flags:   fsevents.FileEvents | fsevents.WatchRoot | fsevents.NoDefer,
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.runCtx = ctx
	w.out = out
	w.closeFn = func() error {
		stream.Stop()
		return nil
	}
	w.mu.Unlock()

	stream.Start()
	w.log.Info("fsevents stream started", "recursive", w.recursive)

	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-stream.Events:
			if !ok {
				return nil
			}
			for _, ev := range batch {
				w.handleFSEvent(ev)
			}
		}
	}
}

func (w *Watcher) handleFSEvent(ev fsevents.Event) {
	// Overflow flags mean the kernel or userspace dropped events; a full
	// rescan would be needed to catch what was missed.
	if ev.Flags&fsevents.MustScanSubDirs != 0 ||
		ev.Flags&fsevents.KernelDropped != 0 ||
		ev.Flags&fsevents.UserDropped != 0 {
		w.log.Warn("fsevents queue overflow, events may have been lost",
			"path", ev.Path, "flags", ev.Flags)
		return
	}
	if ev.Flags&fsevents.Mount != 0 || ev.Flags&fsevents.Unmount != 0 ||
		ev.Flags&fsevents.RootChanged != 0 {
		return
	}
	if ev.Flags&fsevents.ItemIsDir != 0 {
		return
	}

	var kind event.Kind
	switch {
	case ev.Flags&fsevents.ItemRemoved != 0:
		kind = event.Deleted
	case ev.Flags&fsevents.ItemCreated != 0:
		// Rename destinations arrive as ItemCreated|ItemRenamed.
		kind = event.Created
	case ev.Flags&fsevents.ItemModified != 0:
		kind = event.Modified
	default:
		// Bare ItemRenamed is the source side of a rename; the path no
		// longer exists here.
		return
	}

	path := ev.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if !w.withinRoot(path) {
		return
	}

	w.handleRaw(path, kind)
}

// withinRoot enforces the recursive flag: FSEvents always reports the
// whole subtree, so non-recursive mode accepts only direct children.
func (w *Watcher) withinRoot(path string) bool {
	if w.recursive {
		return path == w.root || strings.HasPrefix(path, w.root+"/")
	}
	return filepath.Clean(filepath.Dir(path)) == filepath.Clean(w.root)
}
