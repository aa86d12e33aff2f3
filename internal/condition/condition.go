// internal/condition/condition.go
// Package condition implements the rule predicates. Static conditions
// look only at the path string and run before stability; Io conditions
// may touch the filesystem and run after it.
package condition

import (
	"fmt"

	"github.com/colebrumley/willow/internal/config"
	"github.com/colebrumley/willow/internal/engine"
	"github.com/colebrumley/willow/internal/event"
)

// Kind classifies a condition by cost.
type Kind int

const (
	// Static conditions depend only on the path string.
	Static Kind = iota
	// Io conditions may call the filesystem.
	Io
)

// Condition is one predicate of a rule.
type Condition interface {
	Kind() Kind
	// Matches never returns an error: an Io failure reads as false so
	// an event is never falsely accepted.
	Matches(ev *event.Info, ctx *engine.Ctx) bool
}

// FromConfig builds a condition from its config tag. Pattern syntax
// errors surface here, at load time, never at match time.
func FromConfig(c config.Condition) (Condition, error) {
	switch c.Type {
	case "regex":
		v, err := c.StringValue()
		if err != nil {
			return nil, fmt.Errorf("regex condition: %w", err)
		}
		return NewRegex(v)
	case "glob":
		v, err := c.StringValue()
		if err != nil {
			return nil, fmt.Errorf("glob condition: %w", err)
		}
		return NewGlob(v)
	case "extension":
		v, err := c.StringValue()
		if err != nil {
			return nil, fmt.Errorf("extension condition: %w", err)
		}
		return NewExtension(v), nil
	case "sizegt":
		n, err := c.IntValue()
		if err != nil {
			return nil, fmt.Errorf("sizegt condition: %w", err)
		}
		return NewSizeGt(n), nil
	case "sizelt":
		n, err := c.IntValue()
		if err != nil {
			return nil, fmt.Errorf("sizelt condition: %w", err)
		}
		return NewSizeLt(n), nil
	case "contains":
		v, err := c.StringValue()
		if err != nil {
			return nil, fmt.Errorf("contains condition: %w", err)
		}
		return NewContains(v), nil
	}
	return nil, fmt.Errorf("unknown condition type %q", c.Type)
}
