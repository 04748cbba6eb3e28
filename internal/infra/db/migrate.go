package db

import (
	"database/sql"
	"fmt"
)

// MigrateUp creates the tasks table and its indexes for the given dialect.
// It is safe to run on every start.
func MigrateUp(db *sql.DB, dialect Dialect) error {
	ts := "TIMESTAMPTZ"
	now := "now()"
	if dialect == DialectSQLite {
		ts = "TIMESTAMP"
		now = "CURRENT_TIMESTAMP"
	}

	if _, err := db.Exec(fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS tasks (
    id                    TEXT PRIMARY KEY,
    title                 TEXT NOT NULL,
    description           TEXT NOT NULL,
    category              TEXT NOT NULL,
    deadline              %[1]s NOT NULL,
    pre_submission_date   %[1]s,
    priority              TEXT NOT NULL,
    status                TEXT NOT NULL,
    source                TEXT NOT NULL,
    has_info_session      BOOLEAN NOT NULL DEFAULT FALSE,
    requires_registration BOOLEAN NOT NULL DEFAULT FALSE,
    created_at            %[1]s NOT NULL DEFAULT %[2]s,
    updated_at            %[1]s
)`, ts, now)); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}

	indexes := []string{
		// live view subscription order
		`CREATE INDEX IF NOT EXISTS idx_tasks_deadline ON tasks(deadline)`,
		// dedup lookups; manual tasks may share a source so this is not UNIQUE
		`CREATE INDEX IF NOT EXISTS idx_tasks_source ON tasks(source)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}
