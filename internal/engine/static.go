// internal/engine/static.go
package engine

// StaticFilter drops rules whose event kind doesn't select the event or
// whose path-only conditions fail, before the stability stage spends
// seconds of polling on the file. Io conditions are not consulted here.
type StaticFilter struct{}

func NewStaticFilter() *StaticFilter { return &StaticFilter{} }

func (s *StaticFilter) Name() string { return "static-filter" }

func (s *StaticFilter) Run(ctx *Ctx, in <-chan Msg, out chan<- Msg) {
	for msg := range in {
		ctx.Stats.Ingested.Add(1)
		ev := &msg.Event
		var kept []Rule
		for _, r := range msg.Rules {
			if r.WantsKind(ev.Kind) && r.MatchesStatic(ev, ctx) {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			continue
		}
		out <- Msg{Event: msg.Event, Rules: kept}
	}
}
