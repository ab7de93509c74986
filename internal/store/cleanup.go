package store

import (
	"context"
	"fmt"
	"time"
)

// Cleanup deletes user-prompt, command, and event rows older than
// retentionDays. Recent rows are never touched.
func (s *Store) Cleanup(ctx context.Context, retentionDays int) error {
	cutoff := time.Now().UTC().Add(-time.Duration(retentionDays) * 24 * time.Hour).Format(time.RFC3339Nano)

	if _, err := s.db.ExecContext(ctx, `DELETE FROM commands WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("cleanup commands: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_prompts WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("cleanup user_prompts: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("cleanup events: %w", err)
	}
	return nil
}
