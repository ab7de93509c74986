package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// InsertToolUse stores a generic tool-invocation record.
func (s *Store) InsertToolUse(ctx context.Context, rec ToolUse) (string, error) {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}

	var exitCode any
	if rec.ExitCode != nil {
		exitCode = *rec.ExitCode
	}
	var success any
	if rec.Success != nil {
		success = boolToInt(*rec.Success)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tool_uses (id, session_id, created_at, tool_name, input_json, output_json, exit_code, success, working_dir, repo_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, nullIfEmpty(rec.SessionID), nowISO(), rec.ToolName, rec.InputJSON, rec.OutputJSON,
		exitCode, success, rec.WorkingDir, rec.RepoName)
	if err != nil {
		return "", fmt.Errorf("insert tool use: %w", err)
	}
	return id, nil
}
