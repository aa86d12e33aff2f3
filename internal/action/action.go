// internal/action/action.go
// Package action implements the side-effecting operations a rule can
// run: move, rename, exec and log. All string fields are templated
// against the current path before use.
package action

import (
	"fmt"
	"time"

	"github.com/colebrumley/willow/internal/config"
	"github.com/colebrumley/willow/internal/engine"
)

// Action is one effectful operation of a rule.
type Action interface {
	// Name is the config tag, used in logs and the history journal.
	Name() string
	// Run executes the action against path. Errors carry a typed kind.
	Run(path string, ctx *engine.Ctx) error
}

// FromConfig builds an action from its config tag.
func FromConfig(a config.Action) (Action, error) {
	switch a.Type {
	case "move":
		policy, err := ParseOverwrite(a.Overwrite)
		if err != nil {
			return nil, err
		}
		if a.Destination == "" {
			return nil, fmt.Errorf("move destination is empty")
		}
		return NewMove(a.Destination, policy), nil
	case "rename":
		if a.Template == "" {
			return nil, fmt.Errorf("rename template is empty")
		}
		return NewRename(a.Template), nil
	case "exec":
		if a.Command == "" {
			return nil, fmt.Errorf("exec command is empty")
		}
		env := make([][2]string, 0, len(a.Env))
		for _, pair := range a.Env {
			if len(pair) != 2 {
				return nil, fmt.Errorf("exec env entries must be [name, value] pairs")
			}
			env = append(env, [2]string{pair[0], pair[1]})
		}
		var timeout *time.Duration
		if a.TimeoutSecs != nil {
			d := time.Duration(*a.TimeoutSecs) * time.Second
			timeout = &d
		}
		return NewExec(a.Command, a.Args, a.Cwd, env, timeout), nil
	case "log":
		if a.Message == "" {
			return nil, fmt.Errorf("log message is empty")
		}
		return NewLog(a.Message), nil
	}
	return nil, fmt.Errorf("unknown action type %q", a.Type)
}
