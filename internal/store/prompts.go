package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// maxPromptChars caps how much of a user prompt record is stored.
const maxPromptChars = 50000

// InsertUserPrompt stores a prompt record, capping the stored text at
// maxPromptChars while preserving the original length.
func (s *Store) InsertUserPrompt(ctx context.Context, sessionID, prompt, workingDir string) (string, error) {
	id := uuid.NewString()
	originalLen := len([]rune(prompt))
	stored := prompt
	runes := []rune(prompt)
	if len(runes) > maxPromptChars {
		stored = string(runes[:maxPromptChars])
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_prompts (id, session_id, created_at, prompt, original_length, word_count, char_length, working_dir)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, nullIfEmpty(sessionID), nowISO(), stored, originalLen, wordCount(stored), len([]rune(stored)), workingDir)
	if err != nil {
		return "", fmt.Errorf("insert user prompt: %w", err)
	}
	return id, nil
}

// GetUserPrompts returns prompts optionally filtered by session and/or a
// since-timestamp, most-recent first, capped at limit.
func (s *Store) GetUserPrompts(ctx context.Context, sessionID, since string, limit int) ([]UserPrompt, error) {
	query := `SELECT id, COALESCE(session_id, ''), created_at, prompt, original_length, word_count, char_length, COALESCE(working_dir, '') FROM user_prompts WHERE 1=1`
	var args []any
	if sessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, sessionID)
	}
	if since != "" {
		query += ` AND created_at >= ?`
		args = append(args, since)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get user prompts: %w", err)
	}
	defer rows.Close()

	var out []UserPrompt
	for rows.Next() {
		var p UserPrompt
		if err := rows.Scan(&p.ID, &p.SessionID, &p.CreatedAt, &p.Prompt, &p.OriginalLength, &p.WordCount, &p.CharLength, &p.WorkingDir); err != nil {
			return nil, fmt.Errorf("scan user prompt: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UserPromptStats is a small aggregate used by the achievement read-model.
type UserPromptStats struct {
	Total          int
	TotalWordCount int
}

// GetUserPromptStats aggregates all prompts ever recorded.
func (s *Store) GetUserPromptStats(ctx context.Context) (UserPromptStats, error) {
	var stats UserPromptStats
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(word_count), 0) FROM user_prompts`).
		Scan(&stats.Total, &stats.TotalWordCount)
	if err != nil {
		return UserPromptStats{}, fmt.Errorf("user prompt stats: %w", err)
	}
	return stats, nil
}

func wordCount(s string) int {
	count := 0
	inWord := false
	for _, r := range s {
		isSpace := r == ' ' || r == '\t' || r == '\n' || r == '\r'
		if !isSpace && !inWord {
			count++
			inWord = true
		} else if isSpace {
			inWord = false
		}
	}
	return count
}
