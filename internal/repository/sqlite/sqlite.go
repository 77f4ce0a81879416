// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside the Go binary as a single
// file. No separate database server to install, configure, or manage. For a
// single-server enrollment app with human-triggered write volume that is
// exactly the right amount of infrastructure, and ":memory:" databases make
// the repository tests fast and isolated.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// the SQLite sources — works everywhere Go works.
//
// SCHEMA OVERVIEW:
//
//	users                  — accounts (email UNIQUE, bcrypt hash, role)
//	challenges             — challenge metadata + participant_count
//	challenge_participants — membership set, PRIMARY KEY (challenge_id, user_id)
//
// The membership table is the single source of truth for enrollment. The
// composite primary key makes "a user appears at most once per challenge"
// structural: a duplicate enroll fails the constraint instead of relying on
// an application-level scan, and two concurrent enrolls for the same pair
// serialize on it.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository
// interfaces. New creates it, Close releases it; the server owns the
// lifecycle.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/urfit.db" → file-based database (persistent)
//   - ":memory:"      → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Pin the pool to a single connection. SQLite serializes writers
	// anyway, the PRAGMAs below only apply per-connection, and a
	// ":memory:" database would otherwise be a different database on
	// every pooled connection.
	conn.SetMaxOpenConns(1)

	// Ping forces an immediate connection so a bad path or permissions
	// problem surfaces here, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress —
	// needed for a web server where requests overlap.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. The membership table
	// references both users and challenges, so we want the engine to
	// enforce those edges.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	// Writers that collide with the enrollment transaction wait instead
	// of failing immediately with SQLITE_BUSY.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Always defer this wherever New
// is called so the WAL is flushed and the file lock released on shutdown.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to
// run on every startup; production-grade versioned migrations can come later
// with golang-migrate if the schema starts evolving.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL DEFAULT 'member',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS challenges (
			id                TEXT PRIMARY KEY,
			title             TEXT NOT NULL,
			description       TEXT NOT NULL DEFAULT '',
			long_description  TEXT NOT NULL DEFAULT '',
			total_days        INTEGER NOT NULL,
			image_url         TEXT NOT NULL DEFAULT '',
			external_link     TEXT NOT NULL DEFAULT '',
			pdfs              TEXT NOT NULL DEFAULT '[]',
			participant_count INTEGER NOT NULL DEFAULT 0,
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_challenges_created_at ON challenges(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating challenges table: %w", err)
	}

	// The composite primary key IS the uniqueness invariant: one row per
	// (challenge, user) pair, enforced by the engine.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS challenge_participants (
			challenge_id TEXT NOT NULL REFERENCES challenges(id),
			user_id      TEXT NOT NULL REFERENCES users(id),
			joined_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (challenge_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_participants_user_id ON challenge_participants(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating challenge_participants table: %w", err)
	}

	return nil
}
