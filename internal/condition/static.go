// internal/condition/static.go
package condition

import (
	"fmt"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/colebrumley/willow/internal/engine"
	"github.com/colebrumley/willow/internal/event"
)

// Regex matches the compiled pattern against the file name (the last
// path segment, not the full path).
type Regex struct {
	re *regexp.Regexp
}

func NewRegex(pattern string) (*Regex, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	return &Regex{re: re}, nil
}

func (r *Regex) Kind() Kind { return Static }

func (r *Regex) Matches(ev *event.Info, _ *engine.Ctx) bool {
	return r.re.MatchString(ev.Name())
}

// Glob matches shell-style wildcards against the file name.
type Glob struct {
	pattern string
}

func NewGlob(pattern string) (*Glob, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q", pattern)
	}
	return &Glob{pattern: pattern}, nil
}

func (g *Glob) Kind() Kind { return Static }

func (g *Glob) Matches(ev *event.Info, _ *engine.Ctx) bool {
	ok, err := doublestar.Match(g.pattern, ev.Name())
	return err == nil && ok
}

// Extension compares the file's lowercased extension (without the dot)
// against the configured value. The configured side is taken verbatim:
// "JPG" never matches.
type Extension struct {
	value string
}

func NewExtension(value string) *Extension {
	return &Extension{value: value}
}

func (e *Extension) Kind() Kind { return Static }

func (e *Extension) Matches(ev *event.Info, _ *engine.Ctx) bool {
	ext := ev.Ext()
	return ext != "" && ext == e.value
}
