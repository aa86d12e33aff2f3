// internal/engine/pipeline.go
package engine

import (
	"sync"

	"github.com/colebrumley/willow/internal/event"
)

// chanBuf is the capacity of the ingress and inter-stage channels.
const chanBuf = 100

// Rule is the engine's view of a compiled rule. The concrete type lives
// in internal/rule; stages only narrow and dispatch.
type Rule interface {
	// WantsKind reports whether the rule selects this event kind
	// (its own kind, or Any).
	WantsKind(k event.Kind) bool
	// MatchesStatic evaluates only the cheap, path-only conditions.
	MatchesStatic(ev *event.Info, ctx *Ctx) bool
	// MatchesIo evaluates only the filesystem-touching conditions.
	MatchesIo(ev *event.Info, ctx *Ctx) bool
	// RunActions executes the rule's actions in order. Failures are the
	// rule's business to log; the sink never stops on them.
	RunActions(ev *event.Info, ctx *Ctx)
}

// Msg is the unit handed between stages: one event plus the rules still
// alive for it. The rules slice only ever shrinks along the pipeline.
type Msg struct {
	Event event.Info
	Rules []Rule
}

// Stage receives messages, narrows or holds them, and forwards
// survivors. Run must return when in is closed and must not close out
// itself (the builder does).
type Stage interface {
	Name() string
	Run(ctx *Ctx, in <-chan Msg, out chan<- Msg)
}

// Sink is the terminal stage.
type Sink interface {
	Name() string
	Run(ctx *Ctx, in <-chan Msg)
}

// Builder wires stages with single-consumer channels and spawns one
// goroutine per stage. Closing the returned ingress channel cascades a
// clean shutdown through every stage to the sink.
type Builder struct {
	ctx    *Ctx
	stages []Stage
	sink   Sink
}

// NewBuilder starts a pipeline description ending in sink.
func NewBuilder(ctx *Ctx, sink Sink) *Builder {
	return &Builder{ctx: ctx, sink: sink}
}

// AddStage appends a stage in pipeline order.
func (b *Builder) AddStage(s Stage) *Builder {
	b.stages = append(b.stages, s)
	return b
}

// Build spawns all stage goroutines registered on wg and returns the
// ingress channel.
func (b *Builder) Build(wg *sync.WaitGroup) chan<- Msg {
	ingress := make(chan Msg, chanBuf)
	in := (<-chan Msg)(ingress)

	for _, s := range b.stages {
		out := make(chan Msg, chanBuf)
		wg.Add(1)
		go func(s Stage, in <-chan Msg, out chan<- Msg) {
			defer wg.Done()
			defer close(out)
			b.ctx.Log.Debug("stage starting", "stage", s.Name())
			s.Run(b.ctx, in, out)
			b.ctx.Log.Debug("stage stopped", "stage", s.Name())
		}(s, in, out)
		in = out
	}

	wg.Add(1)
	go func(in <-chan Msg) {
		defer wg.Done()
		b.ctx.Log.Debug("sink starting", "sink", b.sink.Name())
		b.sink.Run(b.ctx, in)
		b.ctx.Log.Debug("sink stopped", "sink", b.sink.Name())
	}(in)

	return ingress
}
