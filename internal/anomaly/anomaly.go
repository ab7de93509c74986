// Package anomaly, after a global learning phase, flags off-hours
// activity, command bursts, and suspicious patterns.
//
// The learning phase is gated on the *total* command count across the
// entire store, not the session's own count — see DESIGN.md for why this
// reading was chosen over a per-session count.
package anomaly

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bashbros/cli/internal/policy"
)

// Store is the subset of store.Store the anomaly detector needs.
type Store interface {
	GetTotalCommandCount(ctx context.Context) (int, error)
	GetCommandCountSince(ctx context.Context, sinceISO string) (int, error)
}

// Config holds the tunables for off-hours, burst, and learning-phase detection.
type Config struct {
	WorkingHours             [2]int
	TypicalCommandsPerMinute int
	LearningCommands         int
	AdditionalPatterns       []string
	Action                   string // warn | block
}

// Result is the outcome of a Check call.
type Result struct {
	Violation *policy.Violation
	Warning   string
}

var suspiciousBuiltins = regexp.MustCompile(`(?i)(passwd|shadow|/root/|\.ssh/|\.gnupg/|\.aws/|\.kube/|wallet|crypto|bitcoin|ethereum|private.*key)`)

// Check evaluates command against the global learning gate and, once past
// it, the off-hours/burst/suspicious-pattern findings.
func Check(ctx context.Context, s Store, catalog *policy.Catalog, cfg Config, command string, now time.Time) (Result, error) {
	total, err := s.GetTotalCommandCount(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("anomaly: total command count: %w", err)
	}
	if total < cfg.LearningCommands {
		return Result{}, nil
	}

	var findings []string

	hour := now.Hour()
	if hour < cfg.WorkingHours[0] || hour >= cfg.WorkingHours[1] {
		findings = append(findings, "off_hours")
	}

	minuteAgo := now.Add(-60 * time.Second).UTC().Format(time.RFC3339Nano)
	recentCount, err := s.GetCommandCountSince(ctx, minuteAgo)
	if err != nil {
		return Result{}, fmt.Errorf("anomaly: recent command count: %w", err)
	}
	if recentCount > 2*cfg.TypicalCommandsPerMinute {
		findings = append(findings, "high_rate")
	}

	if isSuspicious(catalog, cfg.AdditionalPatterns, command) {
		findings = append(findings, "suspicious_pattern")
	}

	if len(findings) == 0 {
		return Result{}, nil
	}

	message := "anomaly detected: " + strings.Join(findings, ", ")
	if cfg.Action == "block" {
		return Result{Violation: &policy.Violation{
			Type:     "anomaly",
			Rule:     strings.Join(findings, "+"),
			Message:  message,
			Severity: policy.SeverityMedium,
		}}, nil
	}
	return Result{Warning: message}, nil
}

func isSuspicious(catalog *policy.Catalog, additional []string, command string) bool {
	if suspiciousBuiltins.MatchString(command) {
		return true
	}
	for _, p := range additional {
		re := catalog.CompileRegex(p)
		if re != nil && re.MatchString(command) {
			return true
		}
	}
	return false
}

// sensitiveCommandHeads are flagged by the process-local baseline variant
// once it has finished learning, if not seen during the learning window.
var sensitiveCommandHeads = map[string]struct{}{
	"curl": {}, "wget": {}, "nc": {}, "netcat": {}, "ssh": {}, "scp": {},
	"rsync": {}, "sudo": {}, "su": {}, "chmod": {}, "chown": {}, "mount": {}, "umount": {},
}

// LocalBaseline maintains a per-process baseline of seen command heads and
// working directories during the learning window, for hosts where no
// store is reachable.
type LocalBaseline struct {
	learningCommands int
	seenHeads        map[string]struct{}
	seenCwds         map[string]struct{}
	observed         int
}

// NewLocalBaseline builds an empty baseline.
func NewLocalBaseline(learningCommands int) *LocalBaseline {
	return &LocalBaseline{
		learningCommands: learningCommands,
		seenHeads:        make(map[string]struct{}),
		seenCwds:         make(map[string]struct{}),
	}
}

// Observe records command/cwd during the learning window; it is a no-op
// once learning has ended.
func (b *LocalBaseline) Observe(command, cwd string) {
	if b.observed >= b.learningCommands {
		return
	}
	b.observed++
	b.seenHeads[commandHead(command)] = struct{}{}
	b.seenCwds[cwd] = struct{}{}
}

// CheckNewSensitiveCommand reports whether command's head is a sensitive
// command type never seen during the learning window. Returns false while
// still learning.
func (b *LocalBaseline) CheckNewSensitiveCommand(command string) bool {
	if b.observed < b.learningCommands {
		return false
	}
	head := commandHead(command)
	if _, sensitive := sensitiveCommandHeads[head]; !sensitive {
		return false
	}
	_, seen := b.seenHeads[head]
	return !seen
}

func commandHead(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
