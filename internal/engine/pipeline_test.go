// internal/engine/pipeline_test.go
package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/colebrumley/willow/internal/event"
	"github.com/colebrumley/willow/internal/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRule gives each stage a predictable answer and records dispatch.
type stubRule struct {
	kind      event.Kind
	static    bool
	io        bool
	mu        sync.Mutex
	ranPaths  []string
}

func (s *stubRule) WantsKind(k event.Kind) bool {
	return s.kind == event.Any || s.kind == k
}
func (s *stubRule) MatchesStatic(_ *event.Info, _ *Ctx) bool { return s.static }
func (s *stubRule) MatchesIo(_ *event.Info, _ *Ctx) bool     { return s.io }
func (s *stubRule) RunActions(ev *event.Info, _ *Ctx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ranPaths = append(s.ranPaths, ev.Path)
}

func (s *stubRule) paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ranPaths...)
}

type passThroughStage struct{}

func (passThroughStage) Name() string { return "pass-through" }
func (passThroughStage) Run(_ *Ctx, in <-chan Msg, out chan<- Msg) {
	for msg := range in {
		out <- msg
	}
}

type captureSink struct {
	out chan Msg
}

func (captureSink) Name() string { return "capture" }
func (c captureSink) Run(_ *Ctx, in <-chan Msg) {
	for msg := range in {
		c.out <- msg
	}
}

func TestPipelineWiresStagesToSink(t *testing.T) {
	ctx := testCtx(vfs.NewMem())
	captured := make(chan Msg, 1)

	var wg sync.WaitGroup
	ingress := NewBuilder(ctx, captureSink{out: captured}).
		AddStage(passThroughStage{}).
		Build(&wg)

	ingress <- Msg{Event: event.Info{Path: "/x", Kind: event.Modified}}
	close(ingress)

	select {
	case got := <-captured:
		assert.Equal(t, "/x", got.Event.Path)
	case <-time.After(2 * time.Second):
		t.Fatal("sink never received the message")
	}

	// Closing the ingress cascades: every goroutine must terminate.
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline goroutines did not exit after ingress close")
	}
}

func TestStaticFilterNarrowsRules(t *testing.T) {
	ctx := testCtx(vfs.NewMem())
	in := make(chan Msg, 4)
	out := make(chan Msg, 4)

	match := &stubRule{kind: event.Any, static: true}
	wrongKind := &stubRule{kind: event.Deleted, static: true}
	failStatic := &stubRule{kind: event.Any, static: false}

	in <- Msg{
		Event: event.Info{Path: "/a", Kind: event.Created},
		Rules: []Rule{match, wrongKind, failStatic},
	}
	// A message with no survivors is dropped outright.
	in <- Msg{
		Event: event.Info{Path: "/b", Kind: event.Created},
		Rules: []Rule{wrongKind, failStatic},
	}
	close(in)

	NewStaticFilter().Run(ctx, in, out)
	close(out)

	var got []Msg
	for m := range out {
		got = append(got, m)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "/a", got[0].Event.Path)
	require.Len(t, got[0].Rules, 1)
	assert.Same(t, match, got[0].Rules[0])
}

func TestIoFilterNarrowsRules(t *testing.T) {
	ctx := testCtx(vfs.NewMem())
	in := make(chan Msg, 4)
	out := make(chan Msg, 4)

	match := &stubRule{kind: event.Any, static: true, io: true}
	failIo := &stubRule{kind: event.Any, static: true, io: false}

	in <- Msg{
		Event: event.Info{Path: "/a", Kind: event.Modified},
		Rules: []Rule{match, failIo},
	}
	in <- Msg{
		Event: event.Info{Path: "/b", Kind: event.Modified},
		Rules: []Rule{failIo},
	}
	close(in)

	NewIoFilter().Run(ctx, in, out)
	close(out)

	var got []Msg
	for m := range out {
		got = append(got, m)
	}
	require.Len(t, got, 1)
	require.Len(t, got[0].Rules, 1)
}

func TestActionSinkDispatchesEveryRule(t *testing.T) {
	ctx := testCtx(vfs.NewMem())
	in := make(chan Msg, 2)

	first := &stubRule{kind: event.Any}
	second := &stubRule{kind: event.Any}

	in <- Msg{
		Event: event.Info{Path: "/a", Kind: event.Created},
		Rules: []Rule{first, second},
	}
	close(in)

	NewActionSink().Run(ctx, in)

	assert.Equal(t, []string{"/a"}, first.paths())
	assert.Equal(t, []string{"/a"}, second.paths())
}
