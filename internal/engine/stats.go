// internal/engine/stats.go
package engine

import (
	"log/slog"
	"sync/atomic"
)

// Stats holds the engine's runtime counters. All fields are atomics so
// watchers, stages and the status reporter can touch them freely.
type Stats struct {
	Ingested      atomic.Int64 // events accepted into the pipeline
	Emitted       atomic.Int64 // stable events forwarded past stability
	ActionsRun    atomic.Int64
	ActionsFailed atomic.Int64
	Dropped       atomic.Int64 // events dropped (backpressure, give-up, unsafe paths)
	Pending       atomic.Int64 // gauge: files currently tracked by stability
}

// LogTo emits one status line with the current counter values.
func (s *Stats) LogTo(log *slog.Logger) {
	log.Info("engine status",
		"ingested", s.Ingested.Load(),
		"emitted", s.Emitted.Load(),
		"actions_run", s.ActionsRun.Load(),
		"actions_failed", s.ActionsFailed.Load(),
		"dropped", s.Dropped.Load(),
		"pending_files", s.Pending.Load(),
	)
}
