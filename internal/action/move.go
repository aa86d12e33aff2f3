// internal/action/move.go
package action

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/colebrumley/willow/internal/engine"
	"github.com/colebrumley/willow/internal/template"
)

// maxSuffixAttempts bounds the search for a free name under the
// "suffix" overwrite policy.
const maxSuffixAttempts = 10000

// Overwrite is the collision policy of a move.
type Overwrite int

const (
	// OverwriteError fails the action when the destination exists.
	OverwriteError Overwrite = iota
	// OverwriteSkip logs and succeeds without moving.
	OverwriteSkip
	// OverwriteReplace lets rename replace the destination.
	OverwriteReplace
	// OverwriteSuffix appends _1, _2, … before the extension until a
	// free name is found.
	OverwriteSuffix
)

// ParseOverwrite maps the config tag to a policy; empty means error.
func ParseOverwrite(s string) (Overwrite, error) {
	switch s {
	case "", "error":
		return OverwriteError, nil
	case "skip":
		return OverwriteSkip, nil
	case "overwrite":
		return OverwriteReplace, nil
	case "suffix":
		return OverwriteSuffix, nil
	}
	return 0, fmt.Errorf("invalid overwrite policy %q", s)
}

// Move relocates the file to a templated destination. A destination
// ending in a path separator is a directory and keeps the source file
// name; anything else is the exact target path. Missing parents are
// created. Cross-device behaviour is whatever the platform rename
// gives us.
type Move struct {
	destination string
	overwrite   Overwrite
}

func NewMove(destination string, overwrite Overwrite) *Move {
	return &Move{destination: destination, overwrite: overwrite}
}

func (m *Move) Name() string { return "move" }

func (m *Move) Run(path string, ctx *engine.Ctx) error {
	rendered := template.Render(m.destination, path)

	var target string
	if strings.HasSuffix(rendered, "/") || strings.HasSuffix(rendered, "\\") {
		target = filepath.Join(rendered, filepath.Base(path))
	} else {
		target = rendered
	}

	if parent := filepath.Dir(target); parent != "" {
		if err := ctx.FS.MkdirAll(parent); err != nil {
			return &Error{Kind: IoFailure, Msg: fmt.Sprintf("creating %s", parent), Err: err}
		}
	}

	if ctx.FS.Exists(target) {
		switch m.overwrite {
		case OverwriteError:
			return &Error{Kind: DestinationExists, Msg: fmt.Sprintf("destination exists: %s", target)}
		case OverwriteSkip:
			ctx.Log.Info("move skipped, destination exists", "src", path, "dst", target)
			return nil
		case OverwriteReplace:
			// fall through; rename replaces
		case OverwriteSuffix:
			free, err := m.nextFreeName(target, ctx)
			if err != nil {
				return err
			}
			target = free
		}
	}

	if err := ctx.FS.Rename(path, target); err != nil {
		return &Error{Kind: IoFailure, Msg: fmt.Sprintf("moving %s to %s", path, target), Err: err}
	}
	ctx.Log.Info("moved file", "src", path, "dst", target)
	return nil
}

// nextFreeName tries name_1.ext, name_2.ext, … under the taken target.
func (m *Move) nextFreeName(target string, ctx *engine.Ctx) (string, error) {
	dir := filepath.Dir(target)
	base := filepath.Base(target)
	ext := filepath.Ext(base)
	stem := base
	if ext != "" && ext != base {
		stem = strings.TrimSuffix(base, ext)
	} else if ext == base {
		ext = ""
	}

	for i := 1; i <= maxSuffixAttempts; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if !ctx.FS.Exists(candidate) {
			return candidate, nil
		}
	}
	return "", &Error{Kind: Collision, Msg: fmt.Sprintf("no free name for %s after %d attempts", target, maxSuffixAttempts)}
}
