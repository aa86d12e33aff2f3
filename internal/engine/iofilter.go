// internal/engine/iofilter.go
package engine

// IoFilter applies the filesystem-touching conditions after stability,
// when the file's size and contents are meaningful to observe.
type IoFilter struct{}

func NewIoFilter() *IoFilter { return &IoFilter{} }

func (f *IoFilter) Name() string { return "io-filter" }

func (f *IoFilter) Run(ctx *Ctx, in <-chan Msg, out chan<- Msg) {
	for msg := range in {
		ev := &msg.Event
		var kept []Rule
		for _, r := range msg.Rules {
			if r.WantsKind(ev.Kind) && r.MatchesIo(ev, ctx) {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			continue
		}
		out <- Msg{Event: msg.Event, Rules: kept}
	}
}
