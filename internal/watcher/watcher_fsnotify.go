//go:build !darwin

// internal/watcher/watcher_fsnotify.go
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/colebrumley/willow/internal/engine"
	"github.com/colebrumley/willow/internal/event"
	"github.com/fsnotify/fsnotify"
)

// Start opens the inotify/kqueue stream and blocks until ctx is
// cancelled or the stream dies. fsnotify watches single directories, so
// recursive mode walks the tree up front and adds newly created
// directories as they appear.
func (w *Watcher) Start(ctx context.Context, out chan<- engine.Msg) error {
	nw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("opening notification stream: %w", err)
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		nw.Close()
		return nil
	}
	w.runCtx = ctx
	w.out = out
	w.closeFn = nw.Close
	w.mu.Unlock()

	if err := w.addRoots(nw); err != nil {
		nw.Close()
		return fmt.Errorf("watching %s: %w", w.root, err)
	}

	w.log.Info("watcher started", "recursive", w.recursive)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-nw.Events:
			if !ok {
				return nil
			}
			w.handleNotify(nw, ev)
		case err, ok := <-nw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("notification stream error", "error", err)
		}
	}
}

func (w *Watcher) addRoots(nw *fsnotify.Watcher) error {
	if !w.recursive {
		return nw.Add(w.root)
	}
	return addTree(nw, w.root)
}

func addTree(nw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) handleNotify(nw *fsnotify.Watcher, ev fsnotify.Event) {
	var kind event.Kind
	switch {
	case ev.Op&fsnotify.Create != 0:
		if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
			// New directories extend the watch in recursive mode; they
			// never enter the pipeline themselves.
			if w.recursive {
				if err := addTree(nw, ev.Name); err != nil {
					w.log.Warn("could not extend watch to new directory",
						"dir", ev.Name, "error", err)
				}
			}
			return
		}
		kind = event.Created
	case ev.Op&fsnotify.Write != 0:
		kind = event.Modified
	case ev.Op&fsnotify.Remove != 0:
		kind = event.Deleted
	default:
		return
	}

	w.handleRaw(ev.Name, kind)
}
