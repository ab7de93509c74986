package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// InsertCommand stores a command record (never mutated afterward) and
// returns its id.
func (s *Store) InsertCommand(ctx context.Context, rec Command) (string, error) {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := rec.CreatedAt
	if createdAt == "" {
		createdAt = nowISO()
	}

	factors, _ := json.Marshal(rec.RiskFactors)
	violations, _ := json.Marshal(rec.Violations)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO commands (id, session_id, created_at, command, allowed, risk_score, risk_level, risk_factors, duration_ms, violations)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, nullIfEmpty(rec.SessionID), createdAt, rec.Command, boolToInt(rec.Allowed),
		rec.RiskScore, rec.RiskLevel, string(factors), rec.DurationMs, string(violations))
	if err != nil {
		return "", fmt.Errorf("insert command: %w", err)
	}
	return id, nil
}

// GetCommands returns commands, most-recent first, optionally filtered by
// session and capped at limit.
func (s *Store) GetCommands(ctx context.Context, sessionID string, limit int) ([]Command, error) {
	query := `SELECT id, COALESCE(session_id, ''), created_at, command, allowed, risk_score, risk_level, COALESCE(risk_factors, ''), duration_ms, COALESCE(violations, '') FROM commands`
	var args []any
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get commands: %w", err)
	}
	defer rows.Close()

	var out []Command
	for rows.Next() {
		cmd, err := scanCommand(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cmd)
	}
	return out, rows.Err()
}

// SearchCommands performs a case-insensitive substring search over command
// text, most-recent first.
func (s *Store) SearchCommands(ctx context.Context, query string, limit int) ([]Command, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(session_id, ''), created_at, command, allowed, risk_score, risk_level, COALESCE(risk_factors, ''), duration_ms, COALESCE(violations, '')
		FROM commands WHERE LOWER(command) LIKE LOWER(?) ORDER BY created_at DESC LIMIT ?`,
		"%"+strings.ToLower(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search commands: %w", err)
	}
	defer rows.Close()

	var out []Command
	for rows.Next() {
		cmd, err := scanCommand(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cmd)
	}
	return out, rows.Err()
}

// GetTotalCommandCount returns the number of commands ever recorded, used
// by the anomaly detector's global learning-phase gate.
func (s *Store) GetTotalCommandCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM commands`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count commands: %w", err)
	}
	return n, nil
}

// GetRecentCommandTexts returns the n most recent command texts for a
// session, most-recent first.
func (s *Store) GetRecentCommandTexts(ctx context.Context, sessionID string, n int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT command FROM commands WHERE session_id = ? ORDER BY created_at DESC LIMIT ?`, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("recent command texts: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan command text: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCommandCountSince counts commands with created_at >= sinceISO.
func (s *Store) GetCommandCountSince(ctx context.Context, sinceISO string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM commands WHERE created_at >= ?`, sinceISO).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count commands since: %w", err)
	}
	return n, nil
}

func scanCommand(rows rowScanner) (*Command, error) {
	var cmd Command
	var factors, violations string
	var allowed int
	if err := rows.Scan(&cmd.ID, &cmd.SessionID, &cmd.CreatedAt, &cmd.Command, &allowed,
		&cmd.RiskScore, &cmd.RiskLevel, &factors, &cmd.DurationMs, &violations); err != nil {
		return nil, fmt.Errorf("scan command: %w", err)
	}
	cmd.Allowed = allowed != 0
	if factors != "" {
		_ = json.Unmarshal([]byte(factors), &cmd.RiskFactors)
	}
	if violations != "" {
		_ = json.Unmarshal([]byte(violations), &cmd.Violations)
	}
	return &cmd, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
