// internal/engine/stability.go
package engine

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/colebrumley/willow/internal/event"
)

// maxBasenameLen bounds the file stem used as a sibling-index key.
const maxBasenameLen = 255

// StabilityConfig tunes the write-completion detector. Zero values are
// replaced by the defaults below.
type StabilityConfig struct {
	// MinQuiet is the minimum time since the last event for a path
	// before it is probed at all.
	MinQuiet time.Duration
	// StableRequired is the number of consecutive identical
	// (size, mtime) samples needed before emission.
	StableRequired int
	// CheckInterval is the sweep period.
	CheckInterval time.Duration
	// MaxChecks caps the sweeps spent on a single path before giving up.
	MaxChecks int
	// MaxPendingFiles is the backpressure limit on tracked paths.
	MaxPendingFiles int
	// MaxAge is the stale-entry cap enforced by periodic cleanup.
	MaxAge time.Duration
	// CleanupInterval is how often stale entries are purged.
	CleanupInterval time.Duration
	// TempExtensions (lowercase, no dot) mark staged-writer artifacts.
	TempExtensions []string
}

// DefaultStabilityConfig returns the recommended tuning.
func DefaultStabilityConfig() StabilityConfig {
	return StabilityConfig{
		MinQuiet:        3 * time.Second,
		StableRequired:  2,
		CheckInterval:   time.Second,
		MaxChecks:       100,
		MaxPendingFiles: 10000,
		MaxAge:          time.Hour,
		CleanupInterval: 5 * time.Minute,
		TempExtensions:  []string{"part", "crdownload", "download", "tmp", "temp"},
	}
}

func (c *StabilityConfig) applyDefaults() {
	d := DefaultStabilityConfig()
	if c.MinQuiet <= 0 {
		c.MinQuiet = d.MinQuiet
	}
	if c.StableRequired <= 0 {
		c.StableRequired = d.StableRequired
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = d.CheckInterval
	}
	if c.MaxChecks <= 0 {
		c.MaxChecks = d.MaxChecks
	}
	if c.MaxPendingFiles <= 0 {
		c.MaxPendingFiles = d.MaxPendingFiles
	}
	if c.MaxAge <= 0 {
		c.MaxAge = d.MaxAge
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	if len(c.TempExtensions) == 0 {
		c.TempExtensions = d.TempExtensions
	}
}

// pendingFile tracks one path between its first event and emission.
type pendingFile struct {
	path        string
	lastSize    int64
	lastMtime   time.Time
	haveSample  bool
	lastEvent   time.Time
	stableCount int
	checkCount  int
	rules       []Rule
	basename    string
	origKind    event.Kind
	sawModified bool
}

// Stability turns a noisy run of events per path into at most one
// emission, once the file has stopped changing. All state is owned by
// the stage goroutine; nothing here is shared.
type Stability struct {
	cfg      StabilityConfig
	tempExts map[string]struct{}
	state    map[string]*pendingFile
	siblings map[string]map[string]struct{} // basename -> temp paths seen
	lastCleanup time.Time

	// now is split out so tests can pin the clock.
	now func() time.Time
}

// NewStability builds the stage with the given tuning.
func NewStability(cfg StabilityConfig) *Stability {
	cfg.applyDefaults()
	tempExts := make(map[string]struct{}, len(cfg.TempExtensions))
	for _, e := range cfg.TempExtensions {
		tempExts[strings.ToLower(e)] = struct{}{}
	}
	return &Stability{
		cfg:      cfg,
		tempExts: tempExts,
		state:    make(map[string]*pendingFile),
		siblings: make(map[string]map[string]struct{}),
		now:      time.Now,
	}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Run(ctx *Ctx, in <-chan Msg, out chan<- Msg) {
	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()
	s.lastCleanup = s.now()

	for {
		select {
		case msg, ok := <-in:
			if !ok {
				return
			}
			s.onEvent(ctx, msg)
		case <-ticker.C:
			s.sweep(ctx, out)
			s.cleanup(ctx)
		}
	}
}

// onEvent ingests one filtered event into the pending table.
func (s *Stability) onEvent(ctx *Ctx, msg Msg) {
	ev := msg.Event
	if !safePath(ev.Path) {
		ctx.Log.Warn("rejecting unsafe path", "path", ev.Path)
		ctx.Stats.Dropped.Add(1)
		return
	}

	if len(s.state) >= s.cfg.MaxPendingFiles {
		ctx.Log.Warn("too many pending files, dropping event",
			"pending", len(s.state), "path", ev.Path)
		ctx.Stats.Dropped.Add(1)
		return
	}

	basename := stemOf(ev.Path)
	if basename == "" {
		ctx.Log.Debug("no usable basename", "path", ev.Path)
		ctx.Stats.Dropped.Add(1)
		return
	}

	if _, isTemp := s.tempExts[event.Ext(ev.Path)]; isTemp {
		ctx.Log.Debug("temp artifact seen", "path", ev.Path)
		set := s.siblings[basename]
		if set == nil {
			set = make(map[string]struct{})
			s.siblings[basename] = set
		}
		set[ev.Path] = struct{}{}
		return
	}

	now := s.now()
	isModify := ev.Kind == event.Modified

	if existing, ok := s.state[ev.Path]; ok {
		existing.lastEvent = now
		existing.sawModified = existing.sawModified || isModify
		existing.stableCount = 0
		return
	}

	s.state[ev.Path] = &pendingFile{
		path:        ev.Path,
		lastEvent:   now,
		rules:       msg.Rules,
		basename:    basename,
		origKind:    ev.Kind,
		sawModified: isModify,
	}
	ctx.Stats.Pending.Store(int64(len(s.state)))
}

// sweep probes every quiet pending file and emits the stable ones.
func (s *Stability) sweep(ctx *Ctx, out chan<- Msg) {
	now := s.now()

	// Resolve sibling blockage once per basename, not per file.
	blocked := make(map[string]bool)
	for _, f := range s.state {
		if _, done := blocked[f.basename]; !done {
			blocked[f.basename] = s.hasSiblingArtifacts(ctx, f)
		}
	}

	var toRemove []string
	for path, f := range s.state {
		f.checkCount++

		if f.checkCount >= s.cfg.MaxChecks {
			ctx.Log.Warn("giving up on file", "path", path, "checks", f.checkCount)
			ctx.Stats.Dropped.Add(1)
			toRemove = append(toRemove, path)
			continue
		}

		if now.Sub(f.lastEvent) < s.cfg.MinQuiet {
			continue
		}

		if blocked[f.basename] {
			ctx.Log.Debug("temp sibling present, holding", "path", path)
			continue
		}

		info, err := ctx.FS.Stat(path)
		if err != nil {
			ctx.Log.Debug("stat failed, dropping from tracking", "path", path, "error", err)
			toRemove = append(toRemove, path)
			continue
		}

		if f.haveSample && info.Size == f.lastSize && info.ModTime.Equal(f.lastMtime) {
			f.stableCount++
		} else {
			f.stableCount = 0
		}
		f.lastSize = info.Size
		f.lastMtime = info.ModTime
		f.haveSample = true

		stableEnough := f.stableCount >= s.cfg.StableRequired
		notZeroCreated := !(info.Size == 0 && f.origKind == event.Created)
		// A bare Created with no Modified afterwards is a file nobody has
		// written to yet.
		kindSatisfied := f.origKind != event.Created || f.sawModified

		if stableEnough && notZeroCreated && kindSatisfied {
			ctx.Log.Info("file stable", "path", path, "kind", string(f.origKind))
			meta := &event.FileMeta{
				Size:    info.Size,
				ModTime: info.ModTime,
				Name:    filepath.Base(path),
				Ext:     event.Ext(path),
			}
			// Emit with the kind the path first entered with; the rule
			// set riding along was selected against that kind.
			out <- Msg{
				Event: event.Info{Path: f.path, Kind: f.origKind, Meta: meta},
				Rules: f.rules,
			}
			ctx.Stats.Emitted.Add(1)
			toRemove = append(toRemove, path)
			delete(s.siblings, f.basename)
		}
	}

	for _, path := range toRemove {
		delete(s.state, path)
	}
	ctx.Stats.Pending.Store(int64(len(s.state)))
}

// hasSiblingArtifacts reports whether a temp-suffixed counterpart of f is
// known from events or still present on disk.
func (s *Stability) hasSiblingArtifacts(ctx *Ctx, f *pendingFile) bool {
	if set := s.siblings[f.basename]; len(set) > 0 {
		return true
	}

	parent := filepath.Dir(f.path)
	probed := 0
	for ext := range s.tempExts {
		if probed >= 10 {
			break
		}
		probed++
		if ctx.FS.Exists(filepath.Join(parent, f.basename+"."+ext)) {
			return true
		}
	}
	return false
}

// cleanup purges entries that aged out or exhausted their checks, plus
// sibling sets that no longer guard anything.
func (s *Stability) cleanup(ctx *Ctx) {
	now := s.now()
	if now.Sub(s.lastCleanup) < s.cfg.CleanupInterval {
		return
	}
	s.lastCleanup = now

	for path, f := range s.state {
		if now.Sub(f.lastEvent) > s.cfg.MaxAge || f.checkCount >= s.cfg.MaxChecks {
			ctx.Log.Warn("removing stale pending file",
				"path", path,
				"age", now.Sub(f.lastEvent).String(),
				"checks", f.checkCount,
			)
			delete(s.state, path)
			ctx.Stats.Dropped.Add(1)

			if set := s.siblings[f.basename]; set != nil {
				delete(set, path)
				if len(set) == 0 {
					delete(s.siblings, f.basename)
				}
			}
		}
	}

	// Drop sibling sets whose guarded basename has no pending entry left.
	live := make(map[string]struct{}, len(s.state))
	for _, f := range s.state {
		live[f.basename] = struct{}{}
	}
	for basename := range s.siblings {
		if _, ok := live[basename]; !ok {
			delete(s.siblings, basename)
		}
	}

	ctx.Stats.Pending.Store(int64(len(s.state)))
}

// safePath rejects relative paths and traversal or NUL tricks before any
// of them reach a stat or an action.
func safePath(path string) bool {
	if strings.Contains(path, "..") || strings.ContainsRune(path, 0) {
		return false
	}
	return filepath.IsAbs(path)
}

func stemOf(path string) string {
	stem := event.Stem(path)
	if stem == "" || len(stem) > maxBasenameLen {
		return ""
	}
	return stem
}
