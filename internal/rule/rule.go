// internal/rule/rule.go
// Package rule compiles configuration rules into the shared, read-only
// runtime form the pipeline narrows and the sink dispatches.
package rule

import (
	"fmt"
	"time"

	"github.com/colebrumley/willow/internal/action"
	"github.com/colebrumley/willow/internal/condition"
	"github.com/colebrumley/willow/internal/config"
	"github.com/colebrumley/willow/internal/engine"
	"github.com/colebrumley/willow/internal/event"
)

// Rule is one compiled rule. Instances are built once at startup and
// shared read-only across every pipeline goroutine; the pipeline clones
// slices of *Rule handles, never rule bodies.
type Rule struct {
	// Label identifies the rule in logs and the history journal, e.g.
	// "/watch/dir#2".
	Label      string
	Event      event.Kind
	conditions []condition.Condition
	actions    []action.Action
}

var _ engine.Rule = (*Rule)(nil)

// Compile builds one runtime rule. Condition and action construction
// errors (bad patterns, bad tags) abort startup.
func Compile(label string, rc config.Rule) (*Rule, error) {
	kind, err := event.ParseKind(rc.Event)
	if err != nil {
		return nil, err
	}

	r := &Rule{Label: label, Event: kind}

	for i, cc := range rc.Conditions {
		c, err := condition.FromConfig(cc)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		r.conditions = append(r.conditions, c)
	}

	for i, ac := range rc.Actions {
		a, err := action.FromConfig(ac)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		r.actions = append(r.actions, a)
	}

	return r, nil
}

// CompileAll compiles a watcher's rule list, labelling each rule by its
// root and position.
func CompileAll(root string, rcs []config.Rule) ([]*Rule, error) {
	rules := make([]*Rule, 0, len(rcs))
	for i, rc := range rcs {
		r, err := Compile(fmt.Sprintf("%s#%d", root, i), rc)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// WantsKind reports whether the rule selects this event kind.
func (r *Rule) WantsKind(k event.Kind) bool {
	return r.Event == event.Any || r.Event == k
}

// WantedKinds returns the concrete kinds this rule can fire on; the
// watcher uses it to prune events nobody asked for.
func (r *Rule) WantedKinds() []event.Kind {
	if r.Event == event.Any {
		return []event.Kind{event.Created, event.Modified, event.Deleted}
	}
	return []event.Kind{r.Event}
}

// MatchesStatic evaluates only the path-only conditions.
func (r *Rule) MatchesStatic(ev *event.Info, ctx *engine.Ctx) bool {
	return r.matches(ev, ctx, condition.Static)
}

// MatchesIo evaluates only the filesystem-touching conditions.
func (r *Rule) MatchesIo(ev *event.Info, ctx *engine.Ctx) bool {
	return r.matches(ev, ctx, condition.Io)
}

func (r *Rule) matches(ev *event.Info, ctx *engine.Ctx, kind condition.Kind) bool {
	for _, c := range r.conditions {
		if c.Kind() != kind {
			continue
		}
		if !c.Matches(ev, ctx) {
			return false
		}
	}
	return true
}

// RunActions executes the rule's actions in order. A failure is logged
// and recorded, then the remaining actions still run; aborting midway
// would leave the user's automation half-applied.
func (r *Rule) RunActions(ev *event.Info, ctx *engine.Ctx) {
	for _, a := range r.actions {
		start := time.Now()
		err := a.Run(ev.Path, ctx)
		elapsed := time.Since(start)

		if err != nil {
			ctx.Log.Error("action failed",
				"rule", r.Label, "action", a.Name(), "path", ev.Path, "error", err)
			ctx.Stats.ActionsFailed.Add(1)
		} else {
			ctx.Stats.ActionsRun.Add(1)
		}

		r.record(ev, ctx, a.Name(), err, elapsed)
	}
}

func (r *Rule) record(ev *event.Info, ctx *engine.Ctx, actionName string, runErr error, elapsed time.Duration) {
	if ctx.History == nil {
		return
	}

	rec := engine.RunRecord{
		Rule:       r.Label,
		Action:     actionName,
		Event:      string(ev.Kind),
		Path:       ev.Path,
		Outcome:    "ok",
		DurationMs: elapsed.Milliseconds(),
		DryRun:     ctx.DryRun,
	}
	if runErr != nil {
		rec.Outcome = "error"
		rec.Error = runErr.Error()
	}

	if err := ctx.History.Record(rec); err != nil {
		ctx.Log.Warn("failed to record action run", "rule", r.Label, "error", err)
	}
}
