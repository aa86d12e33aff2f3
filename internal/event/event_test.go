// internal/event/event_test.go
package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKind(t *testing.T) {
	for _, tag := range []string{"created", "modified", "deleted", "any"} {
		k, err := ParseKind(tag)
		assert.NoError(t, err)
		assert.Equal(t, Kind(tag), k)
	}

	_, err := ParseKind("renamed")
	assert.Error(t, err)
	_, err = ParseKind("")
	assert.Error(t, err)
}

func TestExt(t *testing.T) {
	assert.Equal(t, "txt", Ext("/tmp/file.txt"))
	assert.Equal(t, "jpg", Ext("/tmp/IMG.JPG"))
	assert.Equal(t, "", Ext("/tmp/Makefile"))
	assert.Equal(t, "", Ext("/tmp/.bashrc"))
	assert.Equal(t, "gz", Ext("/tmp/archive.tar.gz"))
}

func TestStem(t *testing.T) {
	assert.Equal(t, "file", Stem("/tmp/file.txt"))
	assert.Equal(t, "Makefile", Stem("/tmp/Makefile"))
	assert.Equal(t, ".bashrc", Stem("/tmp/.bashrc"))
	assert.Equal(t, "archive.tar", Stem("/tmp/archive.tar.gz"))
	assert.Equal(t, "", Stem("/"))
}

func TestInfoAccessors(t *testing.T) {
	ev := Info{Path: "/downloads/Report.PDF", Kind: Created}
	assert.Equal(t, "Report.PDF", ev.Name())
	assert.Equal(t, "pdf", ev.Ext())
}
