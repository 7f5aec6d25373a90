// internal/history/db.go
//
// SQLite plumbing for game history and user stats.
// Responsibilities:
//   - Opening the database with safe defaults (WAL, busy timeout, foreign
//     keys), creating the parent directory for relative paths.
//   - Applying the embedded idempotent schema.
//
// Live game sessions are never persisted here; only accounts and finished
// results are.

package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE COLLATE NOCASE,
	password_hash TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	games_played  INTEGER NOT NULL DEFAULT 0,
	wins          INTEGER NOT NULL DEFAULT 0,
	streak        INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS games (
	id           TEXT PRIMARY KEY,
	user_id      TEXT REFERENCES users(id),
	anonymous_id TEXT,
	status       TEXT NOT NULL,
	guesses      INTEGER NOT NULL DEFAULT 0,
	started_at   TEXT NOT NULL,
	finished_at  TEXT
);

CREATE INDEX IF NOT EXISTS idx_games_user ON games(user_id, started_at);
CREATE INDEX IF NOT EXISTS idx_games_anon ON games(anonymous_id);
`

// Open opens (and creates if missing) the SQLite database at dsn.
// Ensures the parent directory exists for paths like ./data/app.db and
// configures busy timeout, WAL journaling, and foreign keys.
func Open(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema. Safe to run on every startup.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
