package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "bashbros.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id, err := s.InsertSession(ctx, "claude-code", 1234, "/work", "bashbros")
	if err != nil {
		t.Fatalf("InsertSession: %v", err)
	}

	count := 3
	blocked := 1
	status := "completed"
	if err := s.UpdateSession(ctx, id, SessionUpdate{CommandCount: &count, BlockedCount: &blocked, Status: &status}); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	got, err := s.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got == nil {
		t.Fatal("expected session, got nil")
	}
	if got.CommandCount != 3 || got.BlockedCount != 1 || got.Status != "completed" {
		t.Errorf("unexpected session state: %+v", got)
	}
	if got.BlockedCount > got.CommandCount {
		t.Error("invariant violated: blockedCount > commandCount")
	}
}

func TestCommandInsertAndCount(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	sid, _ := s.InsertSession(ctx, "agent", 1, "/work", "")
	for i := 0; i < 5; i++ {
		_, err := s.InsertCommand(ctx, Command{
			SessionID: sid, Command: "ls -la", Allowed: true, RiskScore: 1, RiskLevel: "safe", DurationMs: 5,
		})
		if err != nil {
			t.Fatalf("InsertCommand: %v", err)
		}
	}

	total, err := s.GetTotalCommandCount(ctx)
	if err != nil {
		t.Fatalf("GetTotalCommandCount: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}

	texts, err := s.GetRecentCommandTexts(ctx, sid, 3)
	if err != nil {
		t.Fatalf("GetRecentCommandTexts: %v", err)
	}
	if len(texts) != 3 {
		t.Errorf("got %d recent texts, want 3", len(texts))
	}
}

func TestSearchCommandsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	sid, _ := s.InsertSession(ctx, "agent", 1, "/work", "")
	s.InsertCommand(ctx, Command{SessionID: sid, Command: "GIT STATUS", Allowed: true, RiskScore: 1, RiskLevel: "safe"})

	results, err := s.SearchCommands(ctx, "git", 10)
	if err != nil {
		t.Fatalf("SearchCommands: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestSessionMetrics(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	sid, _ := s.InsertSession(ctx, "agent", 1, "/work", "")
	s.InsertCommand(ctx, Command{SessionID: sid, Command: "ls", Allowed: true, RiskScore: 1, RiskLevel: "safe"})
	s.InsertCommand(ctx, Command{SessionID: sid, Command: "rm -rf /", Allowed: false, RiskScore: 9, RiskLevel: "critical"})

	metrics, err := s.GetSessionMetrics(ctx, sid)
	if err != nil {
		t.Fatalf("GetSessionMetrics: %v", err)
	}
	if metrics.TotalCommands != 2 || metrics.AllowedCommands != 1 || metrics.BlockedCommands != 1 {
		t.Errorf("unexpected metrics: %+v", metrics)
	}
}

func TestAchievementsAndXP(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	sid, _ := s.InsertSession(ctx, "agent", 1, "/work", "")
	s.InsertUserPrompt(ctx, sid, "hello there", "/work")
	s.InsertCommand(ctx, Command{SessionID: sid, Command: "ls", Allowed: true, RiskScore: 1, RiskLevel: "safe"})

	stats, err := s.GetAchievementStats(ctx)
	if err != nil {
		t.Fatalf("GetAchievementStats: %v", err)
	}
	badges := ComputeAchievements(stats)
	found := false
	for _, b := range badges {
		if b.Name == "conversationalist" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected conversationalist badge, got %+v", badges)
	}

	xp := ComputeXP(stats, badges)
	if xp <= 0 {
		t.Errorf("expected positive XP, got %d", xp)
	}
}

func TestEventsTimeline(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	sid, _ := s.InsertSession(ctx, "agent", 1, "/work", "")

	if _, err := s.InsertEvent(ctx, sid, "session_started", "agent"); err != nil {
		t.Fatalf("InsertEvent: %v", err)
	}
	if _, err := s.InsertEvent(ctx, sid, "command_blocked", "blocked"); err != nil {
		t.Fatalf("InsertEvent: %v", err)
	}
	if _, err := s.InsertEvent(ctx, "", "session_started", "other"); err != nil {
		t.Fatalf("InsertEvent out-of-session: %v", err)
	}

	events, err := s.GetEvents(ctx, sid, 10)
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events for session, want 2", len(events))
	}

	all, err := s.GetEvents(ctx, "", 10)
	if err != nil {
		t.Fatalf("GetEvents all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d events total, want 3", len(all))
	}

	last, err := s.GetLastEventTime(ctx, sid, "command_blocked")
	if err != nil {
		t.Fatalf("GetLastEventTime: %v", err)
	}
	if last.IsZero() {
		t.Error("expected a non-zero time for a recorded event kind")
	}
	none, err := s.GetLastEventTime(ctx, sid, "never_recorded")
	if err != nil {
		t.Fatalf("GetLastEventTime missing kind: %v", err)
	}
	if !none.IsZero() {
		t.Errorf("expected the zero time for an unrecorded kind, got %v", none)
	}
}

func TestEgressBlocks(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	sid, _ := s.InsertSession(ctx, "agent", 1, "/work", "")

	if _, err := s.InsertEgressBlock(ctx, sid, "evil.example.com", "credential exfiltration"); err != nil {
		t.Fatalf("InsertEgressBlock: %v", err)
	}

	blocks, err := s.GetEgressBlocks(ctx, 10)
	if err != nil {
		t.Fatalf("GetEgressBlocks: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("got %d egress blocks, want 1", len(blocks))
	}
	if blocks[0].Destination != "evil.example.com" {
		t.Errorf("destination = %q, want evil.example.com", blocks[0].Destination)
	}
	if blocks[0].SessionID != sid {
		t.Errorf("session id = %q, want %q", blocks[0].SessionID, sid)
	}
}
