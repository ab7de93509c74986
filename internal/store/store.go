// Package store implements the shared on-disk store that all hook
// processes read and write: sessions, commands, prompts, tool-uses, and the
// achievement/XP read-model. It is backed by a single-writer-serialized
// embedded sqlite database using database/sql + modernc.org/sqlite with
// PRAGMA journal_mode=WAL and SetMaxOpenConns(1).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Store wraps the shared database. Opening it never fails loudly enough to
// crash a caller: gate-path consumers treat an open error as "no findings"
// since the store is fail-open for policy decisions, but Open itself still
// returns the error so callers can log it.
type Store struct {
	db *sql.DB
}

// Open creates the parent directory (mode 0700) if needed and opens the
// database at path, running migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("store: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("store migration failed")
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		log.Warn().Err(err).Msg("store close failed")
		return err
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			agent TEXT NOT NULL,
			pid INTEGER NOT NULL,
			working_dir TEXT NOT NULL,
			repo_name TEXT,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			status TEXT NOT NULL DEFAULT 'running',
			command_count INTEGER NOT NULL DEFAULT 0,
			blocked_count INTEGER NOT NULL DEFAULT 0,
			cumulative_risk INTEGER NOT NULL DEFAULT 0,
			metadata TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS commands (
			id TEXT PRIMARY KEY,
			session_id TEXT,
			created_at TEXT NOT NULL,
			command TEXT NOT NULL,
			allowed INTEGER NOT NULL,
			risk_score INTEGER NOT NULL,
			risk_level TEXT NOT NULL,
			risk_factors TEXT,
			duration_ms INTEGER NOT NULL,
			violations TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_commands_session ON commands(session_id);`,
		`CREATE INDEX IF NOT EXISTS idx_commands_created_at ON commands(created_at);`,
		`CREATE TABLE IF NOT EXISTS user_prompts (
			id TEXT PRIMARY KEY,
			session_id TEXT,
			created_at TEXT NOT NULL,
			prompt TEXT NOT NULL,
			original_length INTEGER NOT NULL,
			word_count INTEGER NOT NULL,
			char_length INTEGER NOT NULL,
			working_dir TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS tool_uses (
			id TEXT PRIMARY KEY,
			session_id TEXT,
			created_at TEXT NOT NULL,
			tool_name TEXT NOT NULL,
			input_json TEXT,
			output_json TEXT,
			exit_code INTEGER,
			success INTEGER,
			working_dir TEXT,
			repo_name TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS egress_blocks (
			id TEXT PRIMARY KEY,
			session_id TEXT,
			created_at TEXT NOT NULL,
			destination TEXT NOT NULL,
			reason TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			session_id TEXT,
			created_at TEXT NOT NULL,
			kind TEXT NOT NULL,
			detail TEXT
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
