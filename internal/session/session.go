// Package session implements thin lifecycle state on top of the shared
// store — start, record, end, and crash — with periodic partial counter
// persistence so a crash doesn't lose everything.
package session

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bashbros/cli/internal/policy"
	"github.com/bashbros/cli/internal/store"
)

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// persistEvery controls how often Record flushes partial counters to the
// store, so a crash leaves a recent snapshot rather than nothing.
const persistEvery = 10

// Manager owns at most one open session per process.
type Manager struct {
	store *store.Store

	id             string
	agent          string
	commandCount   int
	blockedCount   int
	cumulativeRisk int
	resumed        bool // true once Resume attaches to a session started by another process
}

// NewManager builds a Manager over st. st may be nil: Start then behaves
// as a no-op that still tracks in-memory counters, per the fail-open
// requirement for store unavailability.
func NewManager(st *store.Store) *Manager {
	return &Manager{store: st}
}

// Start begins a new session, replacing any previous in-memory state. A
// previous unended session is simply leaked; recovery is out of scope.
func (m *Manager) Start(ctx context.Context, agent, cwd string) error {
	m.agent = agent
	m.commandCount = 0
	m.blockedCount = 0
	m.cumulativeRisk = 0
	m.id = ""

	if m.store == nil {
		return nil
	}
	id, err := m.store.InsertSession(ctx, agent, os.Getpid(), cwd, "")
	if err != nil {
		return fmt.Errorf("session start: %w", err)
	}
	m.id = id
	// Timeline events are best-effort observability; a failed insert never
	// fails the lifecycle call.
	m.store.InsertEvent(ctx, m.id, "session_started", agent)
	return nil
}

// Resume attaches the manager to a session id created by an earlier
// process (the gate hook runs fresh per invocation): it loads the
// session's current counters as a baseline so a single Record call from
// this short-lived process contributes exactly one command to the
// running totals. Unlike Start, it never persists a new session row, and
// it persists counters after every Record rather than waiting for
// persistEvery, since this process will not live long enough to
// accumulate a batch.
func (m *Manager) Resume(ctx context.Context, id string) error {
	m.id = id
	m.resumed = true
	if m.store == nil || id == "" {
		return nil
	}
	sess, err := m.store.GetSession(ctx, id)
	if err != nil {
		return fmt.Errorf("session resume: %w", err)
	}
	if sess == nil {
		m.id = ""
		return nil
	}
	m.agent = sess.Agent
	m.commandCount = sess.CommandCount
	m.blockedCount = sess.BlockedCount
	m.cumulativeRisk = sess.CumulativeRisk
	return nil
}

// ID returns the current session id, or "" if no store-backed session
// exists (store unavailable, or Start not yet called).
func (m *Manager) ID() string { return m.id }

// CommandCount returns the in-memory running total, used by the loop
// detector's max-turn cutoff.
func (m *Manager) CommandCount() int { return m.commandCount }

// Record inserts a command row and bumps in-memory counters. Every
// persistEvery-th call also flushes partial counters to the session row.
func (m *Manager) Record(ctx context.Context, command string, allowed bool, risk policy.RiskScore, violations []policy.Violation, durationMs int64) error {
	m.commandCount++
	if !allowed {
		m.blockedCount++
	}
	m.cumulativeRisk += risk.Score

	if m.store == nil {
		return nil
	}

	var violationMessages []string
	for _, v := range violations {
		violationMessages = append(violationMessages, v.Message)
	}

	if _, err := m.store.InsertCommand(ctx, store.Command{
		SessionID:   m.id,
		Command:     command,
		Allowed:     allowed,
		RiskScore:   risk.Score,
		RiskLevel:   risk.Level,
		RiskFactors: risk.Factors,
		DurationMs:  durationMs,
		Violations:  violationMessages,
	}); err != nil {
		return fmt.Errorf("session record: %w", err)
	}

	if m.resumed || m.commandCount%persistEvery == 0 {
		if err := m.persistCounters(ctx); err != nil {
			return err
		}
	}
	return nil
}

// End persists final counters with status=completed.
func (m *Manager) End(ctx context.Context) error {
	return m.close(ctx, "completed")
}

// Crash persists counters with status=crashed, for a hook that detects an
// unexpected prior termination.
func (m *Manager) Crash(ctx context.Context) error {
	return m.close(ctx, "crashed")
}

func (m *Manager) close(ctx context.Context, status string) error {
	if m.store == nil || m.id == "" {
		return nil
	}
	endTime := nowISO()
	m.store.InsertEvent(ctx, m.id, "session_"+status, m.agent)
	return m.store.UpdateSession(ctx, m.id, store.SessionUpdate{
		EndTime:        &endTime,
		Status:         &status,
		CommandCount:   &m.commandCount,
		BlockedCount:   &m.blockedCount,
		CumulativeRisk: &m.cumulativeRisk,
	})
}

func (m *Manager) persistCounters(ctx context.Context) error {
	if m.id == "" {
		return nil
	}
	return m.store.UpdateSession(ctx, m.id, store.SessionUpdate{
		CommandCount:   &m.commandCount,
		BlockedCount:   &m.blockedCount,
		CumulativeRisk: &m.cumulativeRisk,
	})
}
