package store

import (
	"context"
	"fmt"
)

// GetSessionMetrics aggregates a session's command history into the view
// the status command and dashboard read.
func (s *Store) GetSessionMetrics(ctx context.Context, sessionID string) (SessionMetrics, error) {
	metrics := SessionMetrics{RiskDistribution: map[string]int{}}

	rows, err := s.db.QueryContext(ctx, `
		SELECT allowed, risk_score, risk_level, command FROM commands WHERE session_id = ?`, sessionID)
	if err != nil {
		return metrics, fmt.Errorf("session metrics: %w", err)
	}
	defer rows.Close()

	var riskSum int
	counts := map[string]int{}
	for rows.Next() {
		var allowed, riskScore int
		var level, command string
		if err := rows.Scan(&allowed, &riskScore, &level, &command); err != nil {
			return metrics, fmt.Errorf("scan session metrics row: %w", err)
		}
		metrics.TotalCommands++
		if allowed != 0 {
			metrics.AllowedCommands++
		} else {
			metrics.BlockedCommands++
		}
		riskSum += riskScore
		metrics.RiskDistribution[level]++
		counts[command]++
	}
	if err := rows.Err(); err != nil {
		return metrics, err
	}

	if metrics.TotalCommands > 0 {
		metrics.AvgRiskScore = float64(riskSum) / float64(metrics.TotalCommands)
	}

	for cmd, n := range counts {
		metrics.TopCommands = append(metrics.TopCommands, CommandCount{Command: cmd, Count: n})
	}
	sortTopCommands(metrics.TopCommands)
	if len(metrics.TopCommands) > 10 {
		metrics.TopCommands = metrics.TopCommands[:10]
	}

	return metrics, nil
}

func sortTopCommands(cs []CommandCount) {
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && cs[j].Count > cs[j-1].Count; j-- {
			cs[j], cs[j-1] = cs[j-1], cs[j]
		}
	}
}
