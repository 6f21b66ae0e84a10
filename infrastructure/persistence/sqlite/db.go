// Package sqlite implements the persistence ports on a local SQLite
// database. One file holds sessions, transcripts, memory chunks,
// snapshots and the event log, which keeps the product installable as a
// single binary plus one database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Executor is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repositories are written against it so the unit of work can hand out
// transaction-scoped instances.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Open opens the SQLite database at path with the pragmas the
// repositories rely on: foreign keys, WAL journaling for concurrent
// readers, and a busy timeout so overlapping writers queue instead of
// failing.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}

	// SQLite allows a single writer; more connections only add lock
	// contention.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database %s: %w", path, err)
	}
	return db, nil
}

// migration is one schema change. Migrations are append-only: released
// versions are never rewritten.
type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create_sessions",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS sessions (
				id                   TEXT PRIMARY KEY,
				category             TEXT NOT NULL,
				skipped_question_ids TEXT NOT NULL DEFAULT '[]',
				version              INTEGER NOT NULL,
				created_at           TIMESTAMP NOT NULL,
				updated_at           TIMESTAMP NOT NULL,
				completed_at         TIMESTAMP
			)`,
		},
	},
	{
		version: 2,
		name:    "create_messages",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS messages (
				id               TEXT PRIMARY KEY,
				session_id       TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
				seq              INTEGER NOT NULL,
				role             TEXT NOT NULL,
				content          TEXT NOT NULL,
				category         TEXT NOT NULL,
				is_followup      INTEGER NOT NULL DEFAULT 0,
				fallback         INTEGER NOT NULL DEFAULT 0,
				previous_skipped INTEGER NOT NULL DEFAULT 0,
				edited           INTEGER NOT NULL DEFAULT 0,
				edited_at        TIMESTAMP,
				created_at       TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_messages_session_seq ON messages(session_id, seq)`,
		},
	},
	{
		version: 3,
		name:    "create_chunks",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS chunks (
				id            TEXT PRIMARY KEY,
				session_id    TEXT NOT NULL,
				question_text TEXT NOT NULL,
				answer_text   TEXT NOT NULL,
				content       TEXT NOT NULL,
				content_hash  TEXT NOT NULL,
				embedding     BLOB NOT NULL,
				token_count   INTEGER NOT NULL,
				edited        INTEGER NOT NULL DEFAULT 0,
				retired       INTEGER NOT NULL DEFAULT 0,
				created_at    TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_chunks_session_live ON chunks(session_id, retired)`,
			`CREATE INDEX IF NOT EXISTS idx_chunks_session_hash ON chunks(session_id, content_hash, retired)`,
		},
	},
	{
		version: 4,
		name:    "create_snapshots",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS snapshots (
				id            TEXT PRIMARY KEY,
				session_id    TEXT NOT NULL,
				number        INTEGER NOT NULL,
				category      TEXT NOT NULL,
				message_count INTEGER NOT NULL,
				answer_count  INTEGER NOT NULL,
				checksum      TEXT NOT NULL,
				state         TEXT NOT NULL,
				created_at    TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_snapshots_session ON snapshots(session_id, created_at)`,
		},
	},
	{
		version: 5,
		name:    "create_events",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS events (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				aggregate_id TEXT NOT NULL,
				event_type   TEXT NOT NULL,
				version      INTEGER NOT NULL,
				payload      TEXT NOT NULL,
				occurred_at  TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_events_aggregate ON events(aggregate_id, id)`,
		},
	},
}

// Migrate applies every pending migration in version order. Each
// migration runs in its own transaction and is recorded in
// schema_migrations, so a partially migrated database resumes where it
// stopped.
func Migrate(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at TIMESTAMP NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(ctx, db, m); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
		}
		logger.Info("schema migration applied",
			zap.Int("version", m.version),
			zap.String("name", m.name),
		)
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		m.version, m.name); err != nil {
		return err
	}
	return tx.Commit()
}
