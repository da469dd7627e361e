package database

import (
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_runs (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	sheet_id     TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	columns      INTEGER NOT NULL DEFAULT 0,
	rows_written INTEGER NOT NULL DEFAULT 0,
	error        TEXT NOT NULL DEFAULT '',
	image_digest TEXT NOT NULL DEFAULT '',
	started_at   TIMESTAMP NOT NULL,
	finished_at  TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_sync_runs_started ON sync_runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_sync_runs_sheet ON sync_runs(sheet_id);
`

// Migrate creates the run tables when missing.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
