// internal/config/loader_test.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/colebrumley/willow/internal/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullDocument(t *testing.T) {
	path := writeConfig(t, `
logging:
  format: json
  level: debug
engine:
  min_quiet_secs: 5
  stable_required: 3
status:
  every: 10m
history:
  enabled: true
  path: /var/lib/willow/history.db
watchers:
  - path: /watch/downloads
    recursive: true
    ignore: [TMP, .swp]
    rules:
      - event: any
        conditions:
          - {type: extension, value: jpg}
          - {type: sizegt, value: 1024}
        actions:
          - {type: move, destination: "/out/", overwrite: suffix}
          - {type: exec, command: /usr/bin/notify, args: ["{filename}"], timeout_secs: 30}
          - {type: log, message: "moved {filename}"}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.Engine.MinQuietSecs)
	assert.Equal(t, 3, cfg.Engine.StableRequired)
	assert.Equal(t, "10m", cfg.Status.Every)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, 90, cfg.History.RetentionDays) // defaulted

	require.Len(t, cfg.Watchers, 1)
	w := cfg.Watchers[0]
	assert.True(t, w.Recursive)
	// Ignore entries are normalised to lowercase without dots.
	assert.Equal(t, []string{"tmp", "swp"}, w.Ignore)

	require.Len(t, w.Rules, 1)
	r := w.Rules[0]
	assert.Equal(t, "any", r.Event)
	require.Len(t, r.Conditions, 2)

	ext, err := r.Conditions[0].StringValue()
	require.NoError(t, err)
	assert.Equal(t, "jpg", ext)
	size, err := r.Conditions[1].IntValue()
	require.NoError(t, err)
	assert.Equal(t, int64(1024), size)

	require.Len(t, r.Actions, 3)
	assert.Equal(t, "suffix", r.Actions[0].Overwrite)
	require.NotNil(t, r.Actions[1].TimeoutSecs)
	assert.Equal(t, 30, *r.Actions[1].TimeoutSecs)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `watchers: []`))
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 50, cfg.Logging.MaxSizeMB)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "watchers: [this is: not: yaml"))
	assert.Error(t, err)
}

func TestValidateAcceptsSaneConfig(t *testing.T) {
	watchDir := t.TempDir()
	outDir := t.TempDir()

	cfg, err := Load(writeConfig(t, fmt.Sprintf(`
watchers:
  - path: %s
    recursive: false
    rules:
      - event: created
        conditions: []
        actions:
          - {type: move, destination: "%s/"}
`, watchDir, outDir)))
	require.NoError(t, err)
	require.NoError(t, Validate(cfg, vfs.NewOs()))
}

func TestValidateRejectsMissingWatchDir(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
watchers:
  - path: /no/such/dir/anywhere
    rules: []
`))
	require.NoError(t, err)
	assert.Error(t, Validate(cfg, vfs.NewOs()))
}

func TestValidateRejectsFileAsWatchPath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	cfg := &Config{Watchers: []WatcherConfig{{Path: file}}}
	assert.Error(t, Validate(cfg, vfs.NewOs()))
}

func TestValidateRejectsDuplicateCanonicalPaths(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(t.TempDir(), "alias")
	require.NoError(t, os.Symlink(dir, link))

	cfg := &Config{Watchers: []WatcherConfig{
		{Path: dir},
		{Path: link},
	}}
	err := Validate(cfg, vfs.NewOs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestValidateRejectsBadRules(t *testing.T) {
	dir := t.TempDir()

	cases := []string{
		// bad event tag
		fmt.Sprintf(`watchers: [{path: %s, rules: [{event: exploded, conditions: [], actions: []}]}]`, dir),
		// empty move destination
		fmt.Sprintf(`watchers: [{path: %s, rules: [{event: any, conditions: [], actions: [{type: move, destination: ""}]}]}]`, dir),
		// untemplated destination directory that does not exist
		fmt.Sprintf(`watchers: [{path: %s, rules: [{event: any, conditions: [], actions: [{type: move, destination: "/no/such/out/"}]}]}]`, dir),
		// bad overwrite policy
		fmt.Sprintf(`watchers: [{path: %s, rules: [{event: any, conditions: [], actions: [{type: move, destination: "%s/", overwrite: clobber}]}]}]`, dir, dir),
		// negative exec timeout
		fmt.Sprintf(`watchers: [{path: %s, rules: [{event: any, conditions: [], actions: [{type: exec, command: /bin/true, timeout_secs: -1}]}]}]`, dir),
		// unknown action tag
		fmt.Sprintf(`watchers: [{path: %s, rules: [{event: any, conditions: [], actions: [{type: teleport}]}]}]`, dir),
	}

	for _, src := range cases {
		cfg, err := Load(writeConfig(t, src))
		require.NoError(t, err, src)
		assert.Error(t, Validate(cfg, vfs.NewOs()), src)
	}
}

func TestValidateTemplatedDestinationSkipsExistenceCheck(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(writeConfig(t, fmt.Sprintf(`
watchers:
  - path: %s
    rules:
      - event: any
        conditions: []
        actions:
          - {type: move, destination: "/sorted/{ext}/"}
`, dir)))
	require.NoError(t, err)
	assert.NoError(t, Validate(cfg, vfs.NewOs()))
}

func TestValidateHistoryNeedsPath(t *testing.T) {
	cfg := &Config{History: HistoryConfig{Enabled: true}}
	assert.Error(t, Validate(cfg, vfs.NewOs()))
}
