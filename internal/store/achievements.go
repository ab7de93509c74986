package store

import "context"

// AchievementStats is the raw aggregate achievements and XP are derived
// from. It owns no primary state of its own.
type AchievementStats struct {
	TotalSessions int
	TotalCommands int
	TotalAllowed  int
	TotalBlocked  int
	TotalPrompts  int
	TotalToolUses int
}

// GetAchievementStats aggregates counts across the whole store.
func (s *Store) GetAchievementStats(ctx context.Context) (AchievementStats, error) {
	var stats AchievementStats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&stats.TotalSessions); err != nil {
		return stats, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(allowed), 0) FROM commands`).
		Scan(&stats.TotalCommands, &stats.TotalAllowed); err != nil {
		return stats, err
	}
	stats.TotalBlocked = stats.TotalCommands - stats.TotalAllowed
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_prompts`).Scan(&stats.TotalPrompts); err != nil {
		return stats, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tool_uses`).Scan(&stats.TotalToolUses); err != nil {
		return stats, err
	}
	return stats, nil
}

// Tier names, lowest to highest.
const (
	TierBronze   = "Bronze"
	TierSilver   = "Silver"
	TierGold     = "Gold"
	TierPlatinum = "Platinum"
)

// Badge is one named, tiered achievement.
type Badge struct {
	Name  string
	Tier  int
	Label string
}

var tierLabels = []string{"", TierBronze, TierSilver, TierGold, TierPlatinum}

func tierFor(count int, thresholds []int) int {
	tier := 0
	for i, t := range thresholds {
		if count >= t {
			tier = i + 1
		}
	}
	return tier
}

// ComputeAchievements derives the badge list from stats. Thresholds are
// fixed: each badge has up to 4 tiers.
func ComputeAchievements(stats AchievementStats) []Badge {
	var badges []Badge

	addBadge := func(name string, count int, thresholds []int) {
		tier := tierFor(count, thresholds)
		if tier == 0 {
			return
		}
		badges = append(badges, Badge{Name: name, Tier: tier, Label: tierLabels[tier]})
	}

	addBadge("conversationalist", stats.TotalPrompts, []int{1, 25, 100, 500})
	addBadge("commander", stats.TotalCommands, []int{1, 100, 1000, 10000})
	addBadge("cautious", stats.TotalBlocked, []int{1, 10, 50, 200})
	addBadge("marathoner", stats.TotalSessions, []int{1, 10, 50, 200})
	addBadge("toolsmith", stats.TotalToolUses, []int{1, 25, 100, 500})

	return badges
}

// ComputeXP derives an XP score from stats and the already-computed badge
// list: each allowed command is worth 1 XP, each badge tier 50 XP.
func ComputeXP(stats AchievementStats, badges []Badge) int {
	xp := stats.TotalAllowed
	for _, b := range badges {
		xp += b.Tier * 50
	}
	return xp
}
