package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// filePragmas apply to every pooled connection of a file database.
// Immediate transactions take the write lock up front, so two sessions
// updating drafts never deadlock on a lock upgrade.
var filePragmas = []string{
	"_pragma=busy_timeout(5000)",
	"_pragma=foreign_keys(1)",
	"_txlock=immediate",
}

// OpenDB opens the draft store at path, creating its directory if needed,
// switches it to WAL and applies pending migrations.
func OpenDB(path string) (*sql.DB, error) {
	dsn := path
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
		dsn = path + "?" + strings.Join(filePragmas, "&")
	}

	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == MemoryPath {
		// Each connection to :memory: would be a separate database.
		database.SetMaxOpenConns(1)
	}

	for _, pragma := range []string{"journal_mode = WAL", "foreign_keys = ON"} {
		if _, err := database.Exec("PRAGMA " + pragma); err != nil {
			database.Close()
			return nil, fmt.Errorf("setting %s: %w", pragma, err)
		}
	}
	if err := Migrate(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return database, nil
}
