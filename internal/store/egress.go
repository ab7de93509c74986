package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// EgressBlock records a denied command that named an outbound network
// destination, so the dashboard can show where data almost went.
type EgressBlock struct {
	ID          string
	SessionID   string
	CreatedAt   string
	Destination string
	Reason      string
}

// InsertEgressBlock records one blocked egress attempt.
func (s *Store) InsertEgressBlock(ctx context.Context, sessionID, destination, reason string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO egress_blocks (id, session_id, created_at, destination, reason)
		VALUES (?, ?, ?, ?, ?)`,
		id, nullIfEmpty(sessionID), nowISO(), destination, reason)
	if err != nil {
		return "", fmt.Errorf("insert egress block: %w", err)
	}
	return id, nil
}

// GetEgressBlocks returns blocked egress attempts most-recent first.
func (s *Store) GetEgressBlocks(ctx context.Context, limit int) ([]EgressBlock, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(session_id, ''), created_at, destination, COALESCE(reason, '')
		FROM egress_blocks ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get egress blocks: %w", err)
	}
	defer rows.Close()

	var blocks []EgressBlock
	for rows.Next() {
		var b EgressBlock
		if err := rows.Scan(&b.ID, &b.SessionID, &b.CreatedAt, &b.Destination, &b.Reason); err != nil {
			return nil, fmt.Errorf("scan egress block: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}
