// internal/engine/ctx.go
// Package engine is the event-processing core: the shared context, the
// staged pipeline (static filter, stability, io filter, action sink) and
// the supervisor that owns every goroutine.
package engine

import (
	"log/slog"
	"sync/atomic"

	"github.com/colebrumley/willow/internal/vfs"
)

// Ctx is the process-wide handle passed by reference to every stage,
// condition and action. Fs implementations must be safe for concurrent
// use; everything else here is read-only or atomic.
type Ctx struct {
	FS       vfs.Fs
	Log      *slog.Logger
	Shutdown *atomic.Bool
	Stats    *Stats
	// History receives one record per action run when the journal is
	// enabled; nil otherwise.
	History Recorder
	// DryRun is informational (the Fs decorator does the actual
	// suppression); the history journal records it.
	DryRun bool
}

// NewCtx builds a context with a fresh shutdown flag and stats block.
func NewCtx(fs vfs.Fs, log *slog.Logger) *Ctx {
	return &Ctx{
		FS:       fs,
		Log:      log,
		Shutdown: &atomic.Bool{},
		Stats:    &Stats{},
	}
}

// RunRecord is one action execution, as reported to the history journal.
type RunRecord struct {
	Rule       string
	Action     string
	Event      string
	Path       string
	Outcome    string // "ok" or "error"
	Error      string
	DurationMs int64
	DryRun     bool
}

// Recorder is implemented by the optional history journal.
type Recorder interface {
	Record(rec RunRecord) error
}
