package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bashbros/cli/internal/policy"
	"github.com/bashbros/cli/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "bashbros.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionCounterConsistency(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	m := NewManager(s)

	if err := m.Start(ctx, "claude-code", "/work"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	n := 5
	blocked := 0
	for i := 0; i < n; i++ {
		allowed := i%2 == 0
		if !allowed {
			blocked++
		}
		if err := m.Record(ctx, "ls", allowed, policy.RiskScore{Score: 1, Level: "safe"}, nil, 1); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	if err := m.End(ctx); err != nil {
		t.Fatalf("End: %v", err)
	}

	got, err := s.GetSession(ctx, m.ID())
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.CommandCount != n {
		t.Errorf("CommandCount = %d, want %d", got.CommandCount, n)
	}
	if got.BlockedCount != blocked {
		t.Errorf("BlockedCount = %d, want %d", got.BlockedCount, blocked)
	}
	if got.Status != "completed" {
		t.Errorf("Status = %q, want completed", got.Status)
	}
}

func TestSessionManagerNilStoreNeverFails(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()
	if err := m.Start(ctx, "agent", "/work"); err != nil {
		t.Fatalf("Start with nil store must not fail: %v", err)
	}
	if err := m.Record(ctx, "ls", true, policy.RiskScore{Score: 1}, nil, 1); err != nil {
		t.Fatalf("Record with nil store must not fail: %v", err)
	}
	if m.CommandCount() != 1 {
		t.Errorf("CommandCount = %d, want 1", m.CommandCount())
	}
	if err := m.End(ctx); err != nil {
		t.Fatalf("End with nil store must not fail: %v", err)
	}
}

func TestCrashSetsCrashedStatus(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	m := NewManager(s)
	m.Start(ctx, "agent", "/work")
	m.Record(ctx, "ls", true, policy.RiskScore{Score: 1}, nil, 1)
	if err := m.Crash(ctx); err != nil {
		t.Fatalf("Crash: %v", err)
	}
	got, _ := s.GetSession(ctx, m.ID())
	if got.Status != "crashed" {
		t.Errorf("Status = %q, want crashed", got.Status)
	}
}
