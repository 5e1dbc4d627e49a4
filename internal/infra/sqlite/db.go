// Package sqlite provides SQLite-based persistent storage for Mizan.
// Uses WAL mode for concurrent reads and crash-safe writes. The schema is
// the canonical superset version: users with subscription columns, checkins,
// cycles, settings, premium tokens, leaderboard, points log, and
// mission/achievement progress.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/mizan.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "mizan.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite is single-writer; the app is single-writer-per-user anyway
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			username             TEXT UNIQUE NOT NULL,
			password_hash        TEXT NOT NULL,
			access_code          TEXT UNIQUE,
			subscription_tier    TEXT NOT NULL DEFAULT 'free',
			subscription_ends_at INTEGER,
			created_at           INTEGER NOT NULL
		)`,

		// One row per (user, calendar date). Categories and penalties are
		// JSON blobs; submitted/completed/points are denormalized for the
		// summary and leaderboard queries.
		`CREATE TABLE IF NOT EXISTS checkins (
			user_id        INTEGER NOT NULL,
			date           TEXT NOT NULL,
			categories     TEXT NOT NULL,
			penalties      TEXT NOT NULL DEFAULT '[]',
			submitted      BOOLEAN NOT NULL DEFAULT 0,
			completed      BOOLEAN NOT NULL DEFAULT 0,
			submitted_at   INTEGER,
			points_awarded REAL,
			breakdown      TEXT,
			updated_at     INTEGER NOT NULL,
			PRIMARY KEY (user_id, date),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_checkins_user ON checkins(user_id, date)`,

		// Cycles are rebuilt from history on every read; this table is the
		// persisted mirror handed to the device cache on sync.
		`CREATE TABLE IF NOT EXISTS cycles (
			user_id      INTEGER NOT NULL,
			cycle_number INTEGER NOT NULL,
			days         TEXT NOT NULL,
			completed    BOOLEAN NOT NULL DEFAULT 0,
			updated_at   INTEGER NOT NULL,
			PRIMARY KEY (user_id, cycle_number),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			user_id    INTEGER PRIMARY KEY,
			settings   TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Single-use premium activation tokens
		`CREATE TABLE IF NOT EXISTS premium_tokens (
			token               TEXT PRIMARY KEY,
			plan                TEXT NOT NULL DEFAULT 'premium',
			created_for_user_id INTEGER,
			expires_at          INTEGER,
			redeemed_at         INTEGER,
			redeemed_by_user_id INTEGER,
			created_at          INTEGER NOT NULL,
			FOREIGN KEY (created_for_user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Cumulative points per user, monotonic adds only
		`CREATE TABLE IF NOT EXISTS leaderboard (
			user_id  INTEGER PRIMARY KEY,
			username TEXT NOT NULL,
			points   REAL NOT NULL DEFAULT 0,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// One row per submitted day, with the user-visible breakdown trail
		`CREATE TABLE IF NOT EXISTS points_log (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id   INTEGER NOT NULL,
			date      TEXT NOT NULL,
			points    REAL NOT NULL,
			breakdown TEXT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_points_log_user ON points_log(user_id, date)`,

		// Mission/achievement progress. Monotonic: rows are only inserted,
		// never flipped back.
		`CREATE TABLE IF NOT EXISTS progress (
			user_id      INTEGER NOT NULL,
			kind         TEXT NOT NULL,
			rule_id      TEXT NOT NULL,
			completed_at INTEGER NOT NULL,
			points       REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, kind, rule_id),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}
