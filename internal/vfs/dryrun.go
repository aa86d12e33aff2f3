// internal/vfs/dryrun.go
package vfs

import "log/slog"

// DryRun decorates a real Fs: reads and existence checks pass through,
// mutations are logged and reported as successful. Actions stay unaware
// of the mode.
type DryRun struct {
	real Fs
	log  *slog.Logger
}

// NewDryRun wraps real so that MkdirAll and Rename become logged no-ops.
func NewDryRun(real Fs, log *slog.Logger) *DryRun {
	return &DryRun{real: real, log: log}
}

func (d *DryRun) Stat(path string) (FileInfo, error) { return d.real.Stat(path) }
func (d *DryRun) Exists(path string) bool            { return d.real.Exists(path) }
func (d *DryRun) ReadFile(path string) (string, error) {
	return d.real.ReadFile(path)
}

func (d *DryRun) MkdirAll(path string) error {
	d.log.Info("dry-run: mkdir -p", "path", path)
	return nil
}

func (d *DryRun) Rename(from, to string) error {
	d.log.Info("dry-run: move "+from+" -> "+to, "from", from, "to", to)
	return nil
}
