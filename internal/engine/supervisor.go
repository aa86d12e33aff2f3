// internal/engine/supervisor.go
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
)

// Source is a producer of pipeline messages, one per watched root. A
// source must return from Start when ctx is cancelled and must never
// send after Stop has returned.
type Source interface {
	Root() string
	Start(ctx context.Context, out chan<- Msg) error
	Stop() error
}

// StatusConfig drives the optional periodic stats report.
type StatusConfig struct {
	// Every is a plain interval like "10m". Ignored when Cron is set.
	Every string
	// Cron is a standard five-field cron expression.
	Cron string
}

// Engine owns the pipeline and watcher goroutines. Build it with New,
// start it with Start, and tear everything down with Shutdown.
type Engine struct {
	ctx      *Ctx
	stabCfg  StabilityConfig
	status   StatusConfig
	sources  []Source

	cancel   context.CancelFunc
	ingress  chan<- Msg
	srcWg    sync.WaitGroup
	stageWg  sync.WaitGroup
	cron     *cron.Cron
	started  bool
	mu       sync.Mutex
}

// New assembles an engine from a context, stability tuning, status
// reporting config and the per-root sources.
func New(ctx *Ctx, stabCfg StabilityConfig, status StatusConfig, sources []Source) *Engine {
	return &Engine{
		ctx:     ctx,
		stabCfg: stabCfg,
		status:  status,
		sources: sources,
	}
}

// Start wires the pipeline, spawns one goroutine per stage and per
// source, and starts the status reporter if configured.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return fmt.Errorf("engine already started")
	}

	// Validate the status schedule before any goroutine is spawned so a
	// bad expression aborts startup cleanly.
	if err := e.startStatusReport(); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	ingress := NewBuilder(e.ctx, NewActionSink()).
		AddStage(NewStaticFilter()).
		AddStage(NewStability(e.stabCfg)).
		AddStage(NewIoFilter()).
		Build(&e.stageWg)
	e.ingress = ingress

	for _, src := range e.sources {
		e.srcWg.Add(1)
		go func(src Source) {
			defer e.srcWg.Done()
			if err := src.Start(runCtx, ingress); err != nil && runCtx.Err() == nil {
				e.ctx.Log.Error("watcher failed", "root", src.Root(), "error", err)
			}
		}(src)
	}

	e.ctx.Log.Info("engine started", "watchers", len(e.sources))
	e.started = true
	return nil
}

func (e *Engine) startStatusReport() error {
	expr := e.status.Cron
	if expr == "" && e.status.Every != "" {
		expr = "@every " + e.status.Every
	}
	if expr == "" {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(expr, func() {
		e.ctx.Stats.LogTo(e.ctx.Log)
	}); err != nil {
		return fmt.Errorf("invalid status schedule %q: %w", expr, err)
	}
	c.Start()
	e.cron = c
	return nil
}

// Shutdown stops every goroutine and blocks until all of them have
// terminated: flag first, then the sources, then the ingress channel so
// the close cascades stage by stage to the sink.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return nil
	}
	e.started = false

	e.ctx.Log.Info("engine stopping")
	e.ctx.Shutdown.Store(true)
	e.cancel()

	for _, src := range e.sources {
		if err := src.Stop(); err != nil {
			e.ctx.Log.Warn("watcher stop failed", "root", src.Root(), "error", err)
		}
	}
	e.srcWg.Wait()

	close(e.ingress)
	e.stageWg.Wait()

	if e.cron != nil {
		<-e.cron.Stop().Done()
	}

	e.ctx.Stats.LogTo(e.ctx.Log)
	e.ctx.Log.Info("engine stopped")
	return nil
}
