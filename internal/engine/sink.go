// internal/engine/sink.go
package engine

// ActionSink runs the actions of every surviving rule, in order. A
// failing action never stops the rule's remaining actions or the other
// rules; aborting midway would leave the user's automation half-applied.
type ActionSink struct{}

func NewActionSink() *ActionSink { return &ActionSink{} }

func (a *ActionSink) Name() string { return "action-sink" }

func (a *ActionSink) Run(ctx *Ctx, in <-chan Msg) {
	for msg := range in {
		for _, r := range msg.Rules {
			r.RunActions(&msg.Event, ctx)
		}
	}
}
