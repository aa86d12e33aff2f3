// internal/engine/engine_e2e_test.go
package engine_test

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/colebrumley/willow/internal/config"
	"github.com/colebrumley/willow/internal/engine"
	"github.com/colebrumley/willow/internal/rule"
	"github.com/colebrumley/willow/internal/vfs"
	"github.com/colebrumley/willow/internal/watcher"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fastStability keeps the end-to-end tests snappy while preserving the
// detector's shape: quiet window, repeated samples, periodic sweeps.
func fastStability() engine.StabilityConfig {
	return engine.StabilityConfig{
		MinQuiet:        200 * time.Millisecond,
		StableRequired:  1,
		CheckInterval:   50 * time.Millisecond,
		MaxChecks:       200,
		MaxPendingFiles: 100,
		MaxAge:          time.Hour,
		CleanupInterval: time.Hour,
	}
}

func buildEngine(t *testing.T, watchDir, ruleYAML string) (*engine.Engine, *engine.Ctx) {
	t.Helper()

	var rc config.Rule
	require.NoError(t, yaml.Unmarshal([]byte(ruleYAML), &rc))

	rules, err := rule.CompileAll(watchDir, []config.Rule{rc})
	require.NoError(t, err)

	logger := discardLogger()
	ruleSets := make([]watcher.RuleSet, len(rules))
	for i, r := range rules {
		ruleSets[i] = r
	}
	src := watcher.New(watchDir, false, nil, ruleSets, logger)

	ctx := engine.NewCtx(vfs.NewOs(), logger)
	eng := engine.New(ctx, fastStability(), engine.StatusConfig{}, []engine.Source{src})
	return eng, ctx
}

func waitForFile(t *testing.T, path string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", path)
}

func TestEndToEndDownloadSettle(t *testing.T) {
	watchDir := t.TempDir()
	outDir := t.TempDir()

	ruleYAML := fmt.Sprintf(`
event: any
conditions:
  - {type: extension, value: jpg}
  - {type: sizegt, value: 1}
actions:
  - {type: move, destination: "%s/"}
`, outDir)

	eng, ctx := buildEngine(t, watchDir, ruleYAML)
	require.NoError(t, eng.Start())
	defer eng.Shutdown()

	// Let the watcher attach before producing events.
	time.Sleep(200 * time.Millisecond)

	final := filepath.Join(watchDir, "img.jpg")
	require.NoError(t, os.WriteFile(final, make([]byte, 512), 0o644))
	time.Sleep(150 * time.Millisecond)
	require.NoError(t, os.WriteFile(final, make([]byte, 1024), 0o644))

	waitForFile(t, filepath.Join(outDir, "img.jpg"), 10*time.Second)

	// The source is gone and exactly one stable event was dispatched.
	_, err := os.Stat(final)
	require.Error(t, err)
	require.Equal(t, int64(1), ctx.Stats.Emitted.Load())
	require.Equal(t, int64(1), ctx.Stats.ActionsRun.Load())
}

func TestEndToEndNonMatchingFileIsUntouched(t *testing.T) {
	watchDir := t.TempDir()
	outDir := t.TempDir()

	ruleYAML := fmt.Sprintf(`
event: any
conditions:
  - {type: extension, value: jpg}
actions:
  - {type: move, destination: "%s/"}
`, outDir)

	eng, ctx := buildEngine(t, watchDir, ruleYAML)
	require.NoError(t, eng.Start())
	defer eng.Shutdown()

	time.Sleep(200 * time.Millisecond)

	// Wrong extension: statically filtered, nothing ever reaches the sink.
	other := filepath.Join(watchDir, "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("hello"), 0o644))
	time.Sleep(150 * time.Millisecond)
	require.NoError(t, os.WriteFile(other, []byte("hello world"), 0o644))

	time.Sleep(time.Second)
	require.Equal(t, int64(0), ctx.Stats.Emitted.Load())
	require.Equal(t, int64(0), ctx.Stats.ActionsRun.Load())
	_, err := os.Stat(other)
	require.NoError(t, err)
}

func TestShutdownJoinsWithinBound(t *testing.T) {
	watchDir := t.TempDir()

	ruleYAML := `
event: any
conditions: []
actions:
  - {type: log, message: "saw {filename}"}
`

	eng, _ := buildEngine(t, watchDir, ruleYAML)
	require.NoError(t, eng.Start())

	// Generate a little traffic first.
	require.NoError(t, os.WriteFile(filepath.Join(watchDir, "a.txt"), []byte("x"), 0o644))
	time.Sleep(300 * time.Millisecond)

	start := time.Now()
	require.NoError(t, eng.Shutdown())
	require.Less(t, time.Since(start), 2*time.Second)

	// Shutdown is idempotent.
	require.NoError(t, eng.Shutdown())
}
