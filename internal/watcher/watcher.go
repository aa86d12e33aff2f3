// internal/watcher/watcher.go
// Package watcher turns OS file-change notifications into normalised
// pipeline messages, one watcher per configured root. A short internal
// debounce collapses micro-bursts before the stability stage sees them.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/colebrumley/willow/internal/engine"
	"github.com/colebrumley/willow/internal/event"
)

// debounceWindow collapses bursts of raw notifications per path. It is
// deliberately short: write-completion detection belongs to the
// stability stage, not here.
const debounceWindow = 100 * time.Millisecond

// RuleSet is what a watcher needs to know about its rules up front.
type RuleSet interface {
	engine.Rule
	WantedKinds() []event.Kind
}

// Watcher is one watched root. It owns a platform notification stream
// (fsnotify or fsevents depending on build) and feeds the pipeline
// ingress channel.
type Watcher struct {
	root      string
	recursive bool
	ignore    map[string]struct{}
	rules     []engine.Rule
	wantKinds map[event.Kind]bool
	log       *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool
	closeFn func() error
	emitWg  sync.WaitGroup

	runCtx context.Context
	out    chan<- engine.Msg
}

// New builds a watcher for root. Ignore entries are lowercase
// extensions without the dot. The rules ride along on every message
// this watcher emits.
func New(root string, recursive bool, ignore []string, rules []RuleSet, log *slog.Logger) *Watcher {
	ignoreSet := make(map[string]struct{}, len(ignore))
	for _, ext := range ignore {
		ignoreSet[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	wantKinds := make(map[event.Kind]bool)
	shared := make([]engine.Rule, 0, len(rules))
	for _, r := range rules {
		shared = append(shared, r)
		for _, k := range r.WantedKinds() {
			wantKinds[k] = true
		}
	}

	return &Watcher{
		root:      root,
		recursive: recursive,
		ignore:    ignoreSet,
		rules:     shared,
		wantKinds: wantKinds,
		log:       log.With("watcher", root),
		pending:   make(map[string]*time.Timer),
	}
}

// Root returns the watched directory.
func (w *Watcher) Root() string { return w.root }

// Stop shuts the platform stream, cancels pending debounce timers and
// waits for in-flight emissions so nothing is sent after Stop returns.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	w.stopped = true
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	closeFn := w.closeFn
	w.closeFn = nil
	w.mu.Unlock()

	w.emitWg.Wait()

	if closeFn != nil {
		return closeFn()
	}
	return nil
}

// handleRaw applies the in-thread pruning and debounce to one mapped
// raw notification.
func (w *Watcher) handleRaw(path string, kind event.Kind) {
	if ext := event.Ext(path); ext != "" {
		if _, ignored := w.ignore[ext]; ignored {
			return
		}
	}

	// Skip kinds no rule of this watcher asked for.
	if !w.wantKinds[kind] {
		return
	}

	w.debounce(path, kind)
}

// debounce coalesces raw events per path; the last raw event in the
// window determines the kind.
func (w *Watcher) debounce(path string, kind event.Kind) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}

	// The last raw event in the window wins: restarting the timer with
	// the new kind drops whatever was queued before.
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}

	w.pending[path] = time.AfterFunc(debounceWindow, func() {
		w.mu.Lock()
		if w.stopped {
			w.mu.Unlock()
			return
		}
		delete(w.pending, path)
		w.emitWg.Add(1)
		w.mu.Unlock()

		defer w.emitWg.Done()
		w.emit(path, kind)
	})
}

// emit prefetches metadata and hands the message to the pipeline.
func (w *Watcher) emit(path string, kind event.Kind) {
	info := event.Info{Path: path, Kind: kind}

	if kind != event.Deleted {
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			info.Meta = &event.FileMeta{
				Size:    st.Size(),
				ModTime: st.ModTime(),
				Name:    filepath.Base(path),
				Ext:     event.Ext(path),
			}
		}
	}

	msg := engine.Msg{Event: info, Rules: w.rules}

	select {
	case w.out <- msg:
		w.log.Debug("event ingested", "path", path, "kind", string(kind))
	case <-w.runCtx.Done():
	}
}
