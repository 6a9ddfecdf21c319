package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// Nested step outputs are stored as JSON text; NULL means "not produced".
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS drafts (
		id                TEXT PRIMARY KEY,
		step              INTEGER NOT NULL CHECK(step BETWEEN 1 AND 7),
		files_json        TEXT NOT NULL DEFAULT '[]',
		analysis_json     TEXT,
		trends_json       TEXT,
		strategy_json     TEXT,
		matches_json      TEXT,
		created_at        TEXT NOT NULL,
		last_updated      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_drafts_last_updated ON drafts(last_updated)`,

	`CREATE TABLE IF NOT EXISTS historical_proposals (
		id          TEXT PRIMARY KEY,
		draft_id    TEXT NOT NULL,
		title       TEXT NOT NULL,
		client_name TEXT NOT NULL DEFAULT '',
		industry    TEXT NOT NULL DEFAULT '',
		date        TEXT NOT NULL,
		tags_json   TEXT NOT NULL DEFAULT '[]',
		file_name   TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL
		            CHECK(status IN ('Draft','Review','Completed','Submitted','Won','Lost')),
		created_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_history_date ON historical_proposals(date)`,

	`ALTER TABLE historical_proposals ADD COLUMN quality_json TEXT`,
}
