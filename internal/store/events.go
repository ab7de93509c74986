package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is one observability-timeline entry: session lifecycle changes,
// blocked commands, and anything else worth a dashboard timeline row.
type Event struct {
	ID        string
	SessionID string
	CreatedAt string
	Kind      string
	Detail    string
}

// InsertEvent appends an event to the observability timeline.
func (s *Store) InsertEvent(ctx context.Context, sessionID, kind, detail string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, session_id, created_at, kind, detail)
		VALUES (?, ?, ?, ?, ?)`,
		id, nullIfEmpty(sessionID), nowISO(), kind, detail)
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	return id, nil
}

// GetLastEventTime returns when the most recent event of kind was recorded
// for the session, or the zero time if none exists.
func (s *Store) GetLastEventTime(ctx context.Context, sessionID, kind string) (time.Time, error) {
	var created string
	err := s.db.QueryRowContext(ctx, `
		SELECT created_at FROM events WHERE session_id = ? AND kind = ?
		ORDER BY created_at DESC LIMIT 1`, sessionID, kind).Scan(&created)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("last event time: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return time.Time{}, fmt.Errorf("last event time: parse: %w", err)
	}
	return t, nil
}

// GetEvents returns timeline events most-recent first, optionally filtered
// by session.
func (s *Store) GetEvents(ctx context.Context, sessionID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, COALESCE(session_id, ''), created_at, kind, COALESCE(detail, '') FROM events`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.SessionID, &e.CreatedAt, &e.Kind, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
