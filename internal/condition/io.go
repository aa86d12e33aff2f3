// internal/condition/io.go
package condition

import (
	"strings"

	"github.com/colebrumley/willow/internal/engine"
	"github.com/colebrumley/willow/internal/event"
)

// maxContainsBytes caps how much the contains condition will read.
const maxContainsBytes = 8 << 20

// SizeGt matches files strictly larger than the configured byte count.
// The watcher's prefetched metadata is consulted first; a stat is the
// fallback.
type SizeGt struct {
	size int64
}

func NewSizeGt(size int64) *SizeGt { return &SizeGt{size: size} }

func (s *SizeGt) Kind() Kind { return Io }

func (s *SizeGt) Matches(ev *event.Info, ctx *engine.Ctx) bool {
	size, ok := fileSize(ev, ctx)
	return ok && size > s.size
}

// SizeLt matches files strictly smaller than the configured byte count.
type SizeLt struct {
	size int64
}

func NewSizeLt(size int64) *SizeLt { return &SizeLt{size: size} }

func (s *SizeLt) Kind() Kind { return Io }

func (s *SizeLt) Matches(ev *event.Info, ctx *engine.Ctx) bool {
	size, ok := fileSize(ev, ctx)
	return ok && size < s.size
}

func fileSize(ev *event.Info, ctx *engine.Ctx) (int64, bool) {
	if ev.Meta != nil {
		return ev.Meta.Size, true
	}
	info, err := ctx.FS.Stat(ev.Path)
	if err != nil {
		return 0, false
	}
	return info.Size, true
}

// Contains matches files whose contents include the configured text.
// Read errors and oversized files read as false.
type Contains struct {
	text string
}

func NewContains(text string) *Contains { return &Contains{text: text} }

func (c *Contains) Kind() Kind { return Io }

func (c *Contains) Matches(ev *event.Info, ctx *engine.Ctx) bool {
	size, ok := fileSize(ev, ctx)
	if !ok || size > maxContainsBytes {
		return false
	}
	content, err := ctx.FS.ReadFile(ev.Path)
	if err != nil {
		return false
	}
	return strings.Contains(content, c.text)
}
