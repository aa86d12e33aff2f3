// internal/action/log.go
package action

import (
	"github.com/colebrumley/willow/internal/engine"
	"github.com/colebrumley/willow/internal/template"
)

// Log renders the message template and emits it at info level. It
// never fails.
type Log struct {
	message string
}

func NewLog(message string) *Log {
	return &Log{message: message}
}

func (l *Log) Name() string { return "log" }

func (l *Log) Run(path string, ctx *engine.Ctx) error {
	ctx.Log.Info(template.Render(l.message, path), "path", path)
	return nil
}
