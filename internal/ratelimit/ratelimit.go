// Package ratelimit implements per-minute/hour caps enforced across
// processes via the shared store, with a process-local fallback for when
// no store is available.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/bashbros/cli/internal/policy"
	"github.com/bashbros/cli/internal/store"
)

// Store is the subset of store.Store the DB-backed limiter needs.
type Store interface {
	GetCommandCountSince(ctx context.Context, sinceISO string) (int, error)
}

var _ Store = (*store.Store)(nil)

// Limiter is the DB-backed rate limiter.
type Limiter struct {
	s            Store
	maxPerMinute int
	maxPerHour   int
}

// New builds a DB-backed limiter over s.
func New(s Store, maxPerMinute, maxPerHour int) *Limiter {
	return &Limiter{s: s, maxPerMinute: maxPerMinute, maxPerHour: maxPerHour}
}

// Check compares the command counts since now-60s and now-1h against the
// configured caps.
func (l *Limiter) Check(ctx context.Context, now time.Time) (*policy.Violation, error) {
	minuteAgo := now.Add(-60 * time.Second).UTC().Format(time.RFC3339Nano)
	perMinute, err := l.s.GetCommandCountSince(ctx, minuteAgo)
	if err != nil {
		return nil, fmt.Errorf("rate limit per-minute check: %w", err)
	}
	if perMinute >= l.maxPerMinute {
		return &policy.Violation{
			Type:     "rate_limit",
			Rule:     "rate_per_minute",
			Message:  "too many commands in the last minute",
			Severity: policy.SeverityMedium,
		}, nil
	}

	hourAgo := now.Add(-time.Hour).UTC().Format(time.RFC3339Nano)
	perHour, err := l.s.GetCommandCountSince(ctx, hourAgo)
	if err != nil {
		return nil, fmt.Errorf("rate limit per-hour check: %w", err)
	}
	if perHour >= l.maxPerHour {
		return &policy.Violation{
			Type:     "rate_limit",
			Rule:     "rate_per_hour",
			Message:  "too many commands in the last hour",
			Severity: policy.SeverityMedium,
		}, nil
	}

	return nil, nil
}

// LocalLimiter is the process-local fallback used when no store is
// reachable: two sliding windows of timestamps, cleaned on each check, plus
// a token-bucket burst guard (golang.org/x/time/rate) that catches a tight
// sub-second loop before either window would ever cross its threshold.
type LocalLimiter struct {
	maxPerMinute int
	maxPerHour   int
	minuteWindow []time.Time
	hourWindow   []time.Time
	burst        *rate.Limiter
}

// NewLocal builds a process-local limiter. The burst bucket refills at
// maxPerMinute/60 tokens per second with a burst allowance equal to
// maxPerMinute, so a legitimate steady stream at the configured rate never
// trips it.
func NewLocal(maxPerMinute, maxPerHour int) *LocalLimiter {
	return &LocalLimiter{
		maxPerMinute: maxPerMinute,
		maxPerHour:   maxPerHour,
		burst:        rate.NewLimiter(rate.Limit(maxPerMinute)/60, maxPerMinute),
	}
}

// Check evaluates the burst bucket and the sliding windows against now.
// The burst bucket is consumed on every call, whether or not the command
// is ultimately recorded, since a rejected burst is still a burst.
func (l *LocalLimiter) Check(now time.Time) *policy.Violation {
	if !l.burst.AllowN(now, 1) {
		return &policy.Violation{
			Type:     "rate_limit",
			Rule:     "rate_burst",
			Message:  "command rate exceeds the local burst allowance",
			Severity: policy.SeverityMedium,
		}
	}

	l.minuteWindow = prune(l.minuteWindow, now.Add(-60*time.Second))
	l.hourWindow = prune(l.hourWindow, now.Add(-time.Hour))

	if len(l.minuteWindow) >= l.maxPerMinute {
		return &policy.Violation{
			Type:     "rate_limit",
			Rule:     "rate_per_minute",
			Message:  "too many commands in the last minute",
			Severity: policy.SeverityMedium,
		}
	}
	if len(l.hourWindow) >= l.maxPerHour {
		return &policy.Violation{
			Type:     "rate_limit",
			Rule:     "rate_per_hour",
			Message:  "too many commands in the last hour",
			Severity: policy.SeverityMedium,
		}
	}
	return nil
}

// Record pushes now into both windows. Callers invoke this only when the
// command is allowed.
func (l *LocalLimiter) Record(now time.Time) {
	l.minuteWindow = append(l.minuteWindow, now)
	l.hourWindow = append(l.hourWindow, now)
}

func prune(window []time.Time, cutoff time.Time) []time.Time {
	out := window[:0]
	for _, t := range window {
		if t.After(cutoff) {
			out = append(out, t)
		}
	}
	return out
}
