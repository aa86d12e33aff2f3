// internal/action/rename.go
package action

import (
	"fmt"
	"path/filepath"

	"github.com/colebrumley/willow/internal/engine"
	"github.com/colebrumley/willow/internal/template"
)

// Rename gives the file a templated new name in its own directory.
type Rename struct {
	template string
}

func NewRename(tmpl string) *Rename {
	return &Rename{template: tmpl}
}

func (r *Rename) Name() string { return "rename" }

func (r *Rename) Run(path string, ctx *engine.Ctx) error {
	parent := filepath.Dir(path)
	if parent == path {
		// only the root has itself as parent
		return &Error{Kind: IoFailure, Msg: fmt.Sprintf("no parent directory for %s", path)}
	}

	newName := template.Render(r.template, path)
	target := filepath.Join(parent, newName)

	if err := ctx.FS.Rename(path, target); err != nil {
		return &Error{Kind: IoFailure, Msg: fmt.Sprintf("renaming %s to %s", path, target), Err: err}
	}
	ctx.Log.Info("renamed file", "src", path, "dst", target)
	return nil
}
