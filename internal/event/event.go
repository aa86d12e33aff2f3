// internal/event/event.go
// Package event defines the normalised filesystem event that flows
// through the pipeline.
package event

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Kind is the normalised filesystem event kind.
type Kind string

const (
	Created  Kind = "created"
	Modified Kind = "modified"
	Deleted  Kind = "deleted"
	// Any is only valid as a rule selector, never on a concrete event.
	Any Kind = "any"
)

// ParseKind validates a config-supplied event tag.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Created, Modified, Deleted, Any:
		return Kind(s), nil
	}
	return "", fmt.Errorf("invalid event kind %q: must be one of created, modified, deleted, any", s)
}

// FileMeta is metadata prefetched by the watcher so that cheap size
// conditions don't have to stat the file again.
type FileMeta struct {
	Size    int64
	ModTime time.Time
	Name    string
	Ext     string // lowercase, without the dot
}

// Info is one normalised event for one absolute path. Meta is nil when
// the prefetch stat failed (e.g. the file was already gone).
type Info struct {
	Path string
	Kind Kind
	Meta *FileMeta
}

// Name returns the last path segment.
func (i *Info) Name() string {
	return filepath.Base(i.Path)
}

// Ext returns the lowercased extension without the dot, or "" if the
// path has none. A leading-dot file like ".bashrc" has no extension.
func (i *Info) Ext() string {
	return Ext(i.Path)
}

// Ext extracts the lowercased extension of path without the dot.
func Ext(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == "" || ext == base {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// Stem returns the file name without its extension. For a dotfile the
// whole name is the stem.
func Stem(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	ext := filepath.Ext(base)
	if ext == base {
		return base
	}
	return strings.TrimSuffix(base, ext)
}
