// Package loopdetect implements exact and semantic repeat detection plus
// a max-turn cutoff, over a session's recent command history in the
// shared store.
package loopdetect

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bashbros/cli/internal/policy"
)

// Store is the subset of store.Store the loop detector needs. The event
// methods carry the cooldown state across short-lived gate processes.
type Store interface {
	GetRecentCommandTexts(ctx context.Context, sessionID string, n int) ([]string, error)
	GetLastEventTime(ctx context.Context, sessionID, kind string) (time.Time, error)
	InsertEvent(ctx context.Context, sessionID, kind, detail string) (string, error)
}

// loopEventKind stamps the events timeline each time a loop finding is
// emitted, so a later Check can apply the cooldown window.
const loopEventKind = "loop_detected"

// Config holds the tunables for repeat and semantic-repeat detection.
type Config struct {
	MaxRepeats          int
	MaxTurns            int
	WindowSize          int
	SimilarityThreshold float64
	CooldownMs          int
	Action              string // warn | block
}

// Result is the outcome of a Check call.
type Result struct {
	Violation *policy.Violation
	Warning   string
}

// Check evaluates command against the session's recent history.
// sessionCommandCount is the running total for the session (owned by the
// session manager) used for the max-turn cutoff.
func Check(ctx context.Context, s Store, cfg Config, sessionID string, sessionCommandCount int, command string) (Result, error) {
	if sessionCommandCount >= cfg.MaxTurns {
		return triggered(ctx, s, cfg, sessionID, "max_turns", "session has exceeded the maximum number of turns")
	}

	recent, err := s.GetRecentCommandTexts(ctx, sessionID, cfg.WindowSize)
	if err != nil {
		return Result{}, fmt.Errorf("loopdetect: fetch recent commands: %w", err)
	}

	// The incoming command counts toward the repeat total, so the
	// maxRepeats-th occurrence is the one that trips the check.
	exactCount := 1
	for _, c := range recent {
		if c == command {
			exactCount++
		}
	}
	if exactCount >= cfg.MaxRepeats {
		return triggered(ctx, s, cfg, sessionID, "exact_repeat", "the same command has been repeated too many times")
	}

	normIncoming := normalize(command)
	similarCount := 1
	for _, c := range recent {
		if jaccard(tokenize(normIncoming), tokenize(normalize(c))) >= cfg.SimilarityThreshold {
			similarCount++
		}
	}
	if similarCount >= cfg.MaxRepeats {
		return triggered(ctx, s, cfg, sessionID, "semantic_repeat", "a very similar command has been repeated too many times")
	}

	return Result{}, nil
}

// triggered applies the cooldown window before emitting a finding: a loop
// already reported within cooldownMs is suppressed rather than re-raised on
// every subsequent command. Each emitted finding is stamped on the events
// timeline; the stamp write is best-effort.
func triggered(ctx context.Context, s Store, cfg Config, sessionID, rule, message string) (Result, error) {
	if cfg.CooldownMs > 0 && sessionID != "" {
		last, err := s.GetLastEventTime(ctx, sessionID, loopEventKind)
		if err == nil && !last.IsZero() && time.Since(last) < time.Duration(cfg.CooldownMs)*time.Millisecond {
			return Result{}, nil
		}
	}
	if sessionID != "" {
		s.InsertEvent(ctx, sessionID, loopEventKind, rule)
	}
	return asResult(cfg.Action, rule, message)
}

func asResult(action, rule, message string) (Result, error) {
	if action == "block" {
		return Result{Violation: &policy.Violation{
			Type:     "loop",
			Rule:     rule,
			Message:  message,
			Severity: policy.SeverityMedium,
		}}, nil
	}
	return Result{Warning: rule + ": " + message}, nil
}

var (
	digitRun = regexp.MustCompile(`[0-9]+`)
	hexRun   = regexp.MustCompile(`[0-9a-f]{8,}`)
	quotes   = regexp.MustCompile(`['"]`)
	spaces   = regexp.MustCompile(`\s+`)
)

// normalize applies semantic-repeat normalization: lowercase, strip
// quotes, collapse whitespace, replace digit runs with N, replace hex
// runs of 8+ chars with H.
func normalize(command string) string {
	s := strings.ToLower(command)
	s = quotes.ReplaceAllString(s, "")
	s = spaces.ReplaceAllString(s, " ")
	s = digitRun.ReplaceAllString(s, "N")
	s = hexRun.ReplaceAllString(s, "H")
	return strings.TrimSpace(s)
}

func tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, t := range strings.Fields(s) {
		tokens[t] = struct{}{}
	}
	return tokens
}

// jaccard computes |a ∩ b| / |a ∪ b| over token sets; two empty sets are
// considered fully similar.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for t := range a {
		if _, ok := b[t]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
