// internal/history/db.go
// Package history is the optional sqlite journal of action executions.
// It is write-only from the engine's point of view: nothing in the
// pipeline ever reads it back.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/colebrumley/willow/internal/engine"
	_ "modernc.org/sqlite"
)

// Record is one stored action run.
type Record struct {
	ID         int64
	Rule       string
	Action     string
	Event      string
	Path       string
	Outcome    string // ok | error
	Error      string
	DurationMs int64
	DryRun     bool
	CreatedAt  time.Time
}

// DB wraps the sqlite connection for the action journal.
type DB struct {
	db *sql.DB
}

var _ engine.Recorder = (*DB)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS action_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    rule TEXT NOT NULL,
    action TEXT NOT NULL,
    event TEXT NOT NULL,
    path TEXT NOT NULL,
    outcome TEXT NOT NULL,
    error TEXT,
    duration_ms INTEGER NOT NULL,
    dry_run BOOLEAN NOT NULL DEFAULT FALSE,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_action_history_rule ON action_history(rule);
CREATE INDEX IF NOT EXISTS idx_action_history_created ON action_history(created_at);
`

// Open opens or creates the journal at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing journal schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Record implements engine.Recorder.
func (d *DB) Record(rec engine.RunRecord) error {
	_, err := d.db.Exec(`
		INSERT INTO action_history
		(rule, action, event, path, outcome, error, duration_ms, dry_run, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Rule, rec.Action, rec.Event, rec.Path,
		rec.Outcome, rec.Error, rec.DurationMs, rec.DryRun, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("recording action run: %w", err)
	}
	return nil
}

// Recent returns the newest records, optionally filtered by rule.
func (d *DB) Recent(ruleFilter string, limit int) ([]Record, error) {
	query := `SELECT id, rule, action, event, path, outcome, error, duration_ms, dry_run, created_at
		FROM action_history WHERE 1=1`
	var args []any

	if ruleFilter != "" {
		query += " AND rule = ?"
		args = append(args, ruleFilter)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var errStr sql.NullString
		if err := rows.Scan(&r.ID, &r.Rule, &r.Action, &r.Event, &r.Path,
			&r.Outcome, &errStr, &r.DurationMs, &r.DryRun, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		r.Error = errStr.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// Cleanup drops records older than retentionDays.
func (d *DB) Cleanup(retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result, err := d.db.Exec(
		"DELETE FROM action_history WHERE created_at < ?", cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("cleaning up journal: %w", err)
	}
	return result.RowsAffected()
}
