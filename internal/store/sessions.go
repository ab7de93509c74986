package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// InsertSession creates a new running session and returns its id.
func (s *Store) InsertSession(ctx context.Context, agent string, pid int, workingDir, repoName string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, agent, pid, working_dir, repo_name, started_at, status)
		VALUES (?, ?, ?, ?, ?, ?, 'running')`,
		id, agent, pid, workingDir, nullIfEmpty(repoName), nowISO())
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

// UpdateSession applies any non-nil fields of u to session id.
func (s *Store) UpdateSession(ctx context.Context, id string, u SessionUpdate) error {
	if u.EndTime != nil {
		if _, err := s.db.ExecContext(ctx, `UPDATE sessions SET ended_at = ? WHERE id = ?`, *u.EndTime, id); err != nil {
			return fmt.Errorf("update session ended_at: %w", err)
		}
	}
	if u.Status != nil {
		if _, err := s.db.ExecContext(ctx, `UPDATE sessions SET status = ? WHERE id = ?`, *u.Status, id); err != nil {
			return fmt.Errorf("update session status: %w", err)
		}
	}
	if u.CommandCount != nil {
		if _, err := s.db.ExecContext(ctx, `UPDATE sessions SET command_count = ? WHERE id = ?`, *u.CommandCount, id); err != nil {
			return fmt.Errorf("update session command_count: %w", err)
		}
	}
	if u.BlockedCount != nil {
		if _, err := s.db.ExecContext(ctx, `UPDATE sessions SET blocked_count = ? WHERE id = ?`, *u.BlockedCount, id); err != nil {
			return fmt.Errorf("update session blocked_count: %w", err)
		}
	}
	if u.CumulativeRisk != nil {
		if _, err := s.db.ExecContext(ctx, `UPDATE sessions SET cumulative_risk = ? WHERE id = ?`, *u.CumulativeRisk, id); err != nil {
			return fmt.Errorf("update session cumulative_risk: %w", err)
		}
	}
	if u.Metadata != nil {
		if _, err := s.db.ExecContext(ctx, `UPDATE sessions SET metadata = ? WHERE id = ?`, *u.Metadata, id); err != nil {
			return fmt.Errorf("update session metadata: %w", err)
		}
	}
	return nil
}

// GetSession fetches one session by id.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, agent, pid, working_dir, COALESCE(repo_name, ''), started_at,
		       COALESCE(ended_at, ''), status, command_count, blocked_count, cumulative_risk, COALESCE(metadata, '')
		FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// GetSessions returns sessions, most-recent first, optionally filtered by
// agent and capped at limit.
func (s *Store) GetSessions(ctx context.Context, agent string, limit int) ([]Session, error) {
	query := `
		SELECT id, agent, pid, working_dir, COALESCE(repo_name, ''), started_at,
		       COALESCE(ended_at, ''), status, command_count, blocked_count, cumulative_risk, COALESCE(metadata, '')
		FROM sessions`
	var args []any
	if agent != "" {
		query += ` WHERE agent = ?`
		args = append(args, agent)
	}
	query += ` ORDER BY started_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSessionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sess)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row *sql.Row) (*Session, error) {
	var sess Session
	err := row.Scan(&sess.ID, &sess.Agent, &sess.PID, &sess.WorkingDir, &sess.RepoName,
		&sess.StartedAt, &sess.EndedAt, &sess.Status, &sess.CommandCount, &sess.BlockedCount,
		&sess.CumulativeRisk, &sess.Metadata)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &sess, nil
}

func scanSessionRows(rows rowScanner) (*Session, error) {
	var sess Session
	if err := rows.Scan(&sess.ID, &sess.Agent, &sess.PID, &sess.WorkingDir, &sess.RepoName,
		&sess.StartedAt, &sess.EndedAt, &sess.Status, &sess.CommandCount, &sess.BlockedCount,
		&sess.CumulativeRisk, &sess.Metadata); err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &sess, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
