// internal/config/types.go
package config

import "gopkg.in/yaml.v3"

// Config is the full configuration document loaded from YAML.
type Config struct {
	Logging  LoggingConfig   `yaml:"logging"`
	Engine   EngineConfig    `yaml:"engine"`
	Status   StatusConfig    `yaml:"status"`
	History  HistoryConfig   `yaml:"history"`
	Watchers []WatcherConfig `yaml:"watchers"`
}

type LoggingConfig struct {
	Format    string `yaml:"format"` // text | json
	Level     string `yaml:"level"`
	File      string `yaml:"file"` // stdout when empty
	MaxSizeMB int    `yaml:"max_size_mb"`
}

// EngineConfig tunes the stability detector. Zero fields fall back to
// the engine defaults.
type EngineConfig struct {
	MinQuietSecs        int      `yaml:"min_quiet_secs"`
	StableRequired      int      `yaml:"stable_required"`
	CheckIntervalSecs   int      `yaml:"check_interval_secs"`
	MaxChecks           int      `yaml:"max_checks"`
	MaxPendingFiles     int      `yaml:"max_pending_files"`
	MaxAgeSecs          int      `yaml:"max_age_secs"`
	CleanupIntervalSecs int      `yaml:"cleanup_interval_secs"`
	TempExtensions      []string `yaml:"temp_extensions"`
}

type StatusConfig struct {
	Every string `yaml:"every"` // "10m" style interval
	Cron  string `yaml:"cron"`  // five-field cron expression
}

type HistoryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// WatcherConfig declares one watched root and its ordered rules.
type WatcherConfig struct {
	Path      string   `yaml:"path"`
	Recursive bool     `yaml:"recursive"`
	Ignore    []string `yaml:"ignore"` // lowercase extensions, no dot
	Rules     []Rule   `yaml:"rules"`
}

type Rule struct {
	Event      string      `yaml:"event"` // created | modified | deleted | any
	Conditions []Condition `yaml:"conditions"`
	Actions    []Action    `yaml:"actions"`
}

// Condition is a tagged union keyed by type. Value's YAML type depends
// on the tag (string for regex/glob/extension/contains, integer for
// sizegt/sizelt), so it is decoded lazily.
type Condition struct {
	Type  string    `yaml:"type"`
	Value yaml.Node `yaml:"value"`
}

// StringValue decodes the condition value as a string.
func (c *Condition) StringValue() (string, error) {
	var s string
	if err := c.Value.Decode(&s); err != nil {
		return "", err
	}
	return s, nil
}

// IntValue decodes the condition value as a signed 64-bit integer.
func (c *Condition) IntValue() (int64, error) {
	var n int64
	if err := c.Value.Decode(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Action is a tagged union keyed by type; fields beyond Type belong to
// one variant each.
type Action struct {
	Type string `yaml:"type"` // move | rename | exec | log

	// move
	Destination string `yaml:"destination"`
	Overwrite   string `yaml:"overwrite"` // error | skip | overwrite | suffix

	// rename
	Template string `yaml:"template"`

	// exec
	Command     string     `yaml:"command"`
	Args        []string   `yaml:"args"`
	Cwd         string     `yaml:"cwd"`
	Env         [][]string `yaml:"env"` // [name, value] pairs
	TimeoutSecs *int       `yaml:"timeout_secs"`

	// log
	Message string `yaml:"message"`
}
