// internal/vfs/dryrun_test.go
package vfs

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDryRunReadsPassThrough(t *testing.T) {
	backend := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(backend, "/d/img.jpg", []byte("data"), 0o644))

	var buf bytes.Buffer
	dry := NewDryRun(New(backend), slog.New(slog.NewTextHandler(&buf, nil)))

	assert.True(t, dry.Exists("/d/img.jpg"))
	content, err := dry.ReadFile("/d/img.jpg")
	require.NoError(t, err)
	assert.Equal(t, "data", content)

	info, err := dry.Stat("/d/img.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size)
}

func TestDryRunSuppressesMutations(t *testing.T) {
	backend := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(backend, "/d/img.jpg", []byte("data"), 0o644))

	var buf bytes.Buffer
	dry := NewDryRun(New(backend), slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, dry.Rename("/d/img.jpg", "/out/img.jpg"))
	require.NoError(t, dry.MkdirAll("/out/deep"))

	// Nothing actually changed on disk.
	assert.True(t, dry.Exists("/d/img.jpg"))
	assert.False(t, dry.Exists("/out/img.jpg"))
	assert.False(t, dry.Exists("/out/deep"))

	// But the operations were logged with both paths.
	logged := buf.String()
	assert.Contains(t, logged, "/d/img.jpg")
	assert.Contains(t, logged, "/out/img.jpg")
	assert.Contains(t, logged, "dry-run")
}
