// internal/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/colebrumley/willow/internal/template"
	"github.com/colebrumley/willow/internal/vfs"
	"gopkg.in/yaml.v3"
)

// Load reads, parses and defaults the configuration file. Validation is
// a separate step so tests can build configs in memory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.MaxSizeMB <= 0 {
		cfg.Logging.MaxSizeMB = 50
	}
	if cfg.History.Enabled && cfg.History.RetentionDays <= 0 {
		cfg.History.RetentionDays = 90
	}
	for i := range cfg.Watchers {
		for j, ext := range cfg.Watchers[i].Ignore {
			cfg.Watchers[i].Ignore[j] = strings.ToLower(strings.TrimPrefix(ext, "."))
		}
	}
}

// Validate checks everything that can be checked before the engine
// starts: watcher paths are accessible directories and unique after
// canonicalisation, event tags parse, and move destinations are sane.
// Condition and action construction is checked separately when rules
// are compiled, still before any watcher thread runs.
func Validate(cfg *Config, fs vfs.Fs) error {
	if cfg.History.Enabled && cfg.History.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}

	seen := make(map[string]string)
	for i := range cfg.Watchers {
		w := &cfg.Watchers[i]
		if err := validateWatcher(w, fs); err != nil {
			return fmt.Errorf("watcher %q: %w", w.Path, err)
		}

		canon, err := canonicalize(w.Path)
		if err != nil {
			return fmt.Errorf("watcher %q: cannot canonicalize path: %w", w.Path, err)
		}
		if prev, dup := seen[canon]; dup {
			return fmt.Errorf("duplicate watcher path: %q and %q both resolve to %s", prev, w.Path, canon)
		}
		seen[canon] = w.Path
	}
	return nil
}

func validateWatcher(w *WatcherConfig, fs vfs.Fs) error {
	if w.Path == "" {
		return fmt.Errorf("path is required")
	}
	if !filepath.IsAbs(w.Path) {
		return fmt.Errorf("path must be absolute: %s", w.Path)
	}
	info, err := fs.Stat(w.Path)
	if err != nil {
		return fmt.Errorf("watch path not accessible: %w", err)
	}
	if !info.IsDir {
		return fmt.Errorf("watch path is not a directory: %s", w.Path)
	}

	for ri, rule := range w.Rules {
		if err := validateRule(&rule, fs); err != nil {
			return fmt.Errorf("rule %d: %w", ri, err)
		}
	}
	return nil
}

func validateRule(r *Rule, fs vfs.Fs) error {
	switch r.Event {
	case "created", "modified", "deleted", "any":
	case "":
		return fmt.Errorf("event is required")
	default:
		return fmt.Errorf("invalid event %q: must be one of created, modified, deleted, any", r.Event)
	}

	for ci, c := range r.Conditions {
		if c.Type == "" {
			return fmt.Errorf("condition %d: type is required", ci)
		}
	}

	for ai, a := range r.Actions {
		if err := validateAction(&a, fs); err != nil {
			return fmt.Errorf("action %d: %w", ai, err)
		}
	}
	return nil
}

func validateAction(a *Action, fs vfs.Fs) error {
	switch a.Type {
	case "move":
		return validateMoveDestination(a, fs)
	case "rename":
		if strings.TrimSpace(a.Template) == "" {
			return fmt.Errorf("rename template is empty")
		}
	case "exec":
		if strings.TrimSpace(a.Command) == "" {
			return fmt.Errorf("exec command is empty")
		}
		if a.TimeoutSecs != nil && *a.TimeoutSecs < 0 {
			return fmt.Errorf("exec timeout_secs must be >= 0, got %d", *a.TimeoutSecs)
		}
		for i, pair := range a.Env {
			if len(pair) != 2 {
				return fmt.Errorf("exec env entry %d must be a [name, value] pair", i)
			}
		}
	case "log":
		if a.Message == "" {
			return fmt.Errorf("log message is empty")
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("invalid action type %q: must be one of move, rename, exec, log", a.Type)
	}
	return nil
}

// validateMoveDestination rejects empty destinations and, for
// untemplated ones, destinations whose target directory does not exist.
// Templated destinations can only be checked at run time.
func validateMoveDestination(a *Action, fs vfs.Fs) error {
	dest := a.Destination
	if strings.TrimSpace(dest) == "" {
		return fmt.Errorf("move destination is empty")
	}

	switch a.Overwrite {
	case "", "error", "skip", "overwrite", "suffix":
	default:
		return fmt.Errorf("invalid overwrite policy %q: must be one of error, skip, overwrite, suffix", a.Overwrite)
	}

	if template.IsTemplated(dest) {
		return nil
	}

	if strings.HasSuffix(dest, "/") || strings.HasSuffix(dest, "\\") {
		if !fs.Exists(strings.TrimRight(dest, "/\\")) {
			return fmt.Errorf("destination directory does not exist: %s", dest)
		}
		return nil
	}

	parent := filepath.Dir(dest)
	if parent == "." {
		return fmt.Errorf("destination has no parent: %s", dest)
	}
	if !fs.Exists(parent) {
		return fmt.Errorf("destination parent does not exist: %s", parent)
	}
	return nil
}

func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return resolved, nil
}
