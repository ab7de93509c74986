// Package engine composes the command filter, secrets guard, path
// sandbox, risk scorer, loop detector, anomaly detector, and rate limiter
// into a single validate(command) decision.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/bashbros/cli/internal/anomaly"
	"github.com/bashbros/cli/internal/config"
	"github.com/bashbros/cli/internal/loopdetect"
	"github.com/bashbros/cli/internal/policy"
	"github.com/bashbros/cli/internal/ratelimit"
	"github.com/bashbros/cli/internal/store"
)

// Store is the subset of store.Store the DB-backed checks need. A nil
// Store makes Validate skip the loop, anomaly, and rate checks entirely
// (fail-open).
type Store interface {
	loopdetect.Store
	anomaly.Store
	ratelimit.Store
}

var _ Store = (*store.Store)(nil)

// Engine is the composed policy pipeline.
type Engine struct {
	cfg           *config.Config
	catalog       *policy.Catalog
	commandFilter *policy.CommandFilter
	secretsGuard  *policy.SecretsGuard
	pathSandbox   *policy.PathSandbox
	riskScorer    *policy.RiskScorer
	store         Store
	sessionID     string
	sessionTurns  int

	// localLimiter and localBaseline are the process-local fallbacks used
	// when no store is reachable. They only accumulate state across
	// repeated Validate calls on the same Engine instance (a long-lived
	// embedding); a fresh-per-invocation gate process always sees them
	// empty, which is the correct degraded behavior for that deployment
	// shape.
	localLimiter  *ratelimit.LocalLimiter
	localBaseline *anomaly.LocalBaseline
}

// New builds an Engine from cfg. store may be nil; sessionID and
// sessionTurns feed the loop detector's max-turn cutoff and are owned by
// the session manager.
func New(cfg *config.Config, st Store, sessionID string, sessionTurns int) *Engine {
	catalog := policy.NewCatalog()

	var patterns []string
	var scores []int
	var labels []string
	for _, p := range cfg.RiskScoring.Additional {
		patterns = append(patterns, p.Pattern)
		scores = append(scores, p.Score)
		labels = append(labels, p.Label)
	}

	return &Engine{
		cfg:           cfg,
		catalog:       catalog,
		commandFilter: policy.NewCommandFilter(catalog, cfg.Commands.Allow, cfg.Commands.Block),
		secretsGuard:  policy.NewSecretsGuard(catalog, cfg.Secrets.Patterns),
		pathSandbox:   policy.NewPathSandbox(cfg.Paths.Allow, cfg.Paths.Block),
		riskScorer:    policy.NewRiskScorer(catalog, patterns, scores, labels),
		store:         st,
		sessionID:     sessionID,
		sessionTurns:  sessionTurns,
		localLimiter:  ratelimit.NewLocal(cfg.RateLimit.MaxPerMinute, cfg.RateLimit.MaxPerHour),
		localBaseline: anomaly.NewLocalBaseline(cfg.AnomalyDetection.LearningCommands),
	}
}

// Decision is the full result of Validate: the accumulated violations,
// any non-blocking warnings, and the risk score computed along the way.
type Decision struct {
	Violations []policy.Violation
	Warnings   []string
	Risk       policy.RiskScore
}

// Validate runs the full pipeline and returns every violation found (the
// gate entry point uses only the first). Store errors during steps 5-7
// never produce a violation: they are fail-open, appended to Warnings
// instead.
func (e *Engine) Validate(ctx context.Context, command string) Decision {
	var d Decision

	if v := e.commandFilter.Check(command); v != nil {
		d.Violations = append(d.Violations, *v)
	}

	paths := policy.ExtractPaths(command)

	if e.cfg.Secrets.Enabled() {
		if v := e.secretsGuard.Check(command, paths); v != nil {
			if e.cfg.Secrets.Mode == "warn" {
				d.Warnings = append(d.Warnings, "secrets: "+v.Message)
			} else {
				d.Violations = append(d.Violations, *v)
			}
		}
	}

	for _, v := range e.pathSandbox.CheckAll(paths) {
		d.Violations = append(d.Violations, *v)
	}

	d.Risk = e.riskScorer.Score(command)
	if e.cfg.RiskScoring.Enabled() {
		if d.Risk.Score >= e.cfg.RiskScoring.BlockThreshold {
			d.Violations = append(d.Violations, policy.Violation{
				Type:     "risk",
				Rule:     "risk_threshold",
				Message:  fmt.Sprintf("risk score %d meets or exceeds the block threshold", d.Risk.Score),
				Severity: policy.SeverityHigh,
			})
		} else if d.Risk.Score >= e.cfg.RiskScoring.WarnThreshold {
			d.Warnings = append(d.Warnings, fmt.Sprintf("risk score %d meets the warn threshold", d.Risk.Score))
		}
	}

	if e.store == nil {
		d.Warnings = append(d.Warnings, "store unavailable: skipping loop/anomaly/rate checks")

		if e.cfg.AnomalyDetection.Enabled() && e.localBaseline.CheckNewSensitiveCommand(command) {
			d.Warnings = append(d.Warnings, "anomaly detected: unseen_sensitive_command")
		}
		e.localBaseline.Observe(command, "")

		if e.cfg.RateLimit.Enabled() {
			if v := e.localLimiter.Check(time.Now()); v != nil {
				d.Violations = append(d.Violations, *v)
			} else {
				e.localLimiter.Record(time.Now())
			}
		}
		return d
	}

	if e.cfg.LoopDetection.Enabled() {
		res, err := loopdetect.Check(ctx, e.store, loopdetect.Config{
			MaxRepeats:          e.cfg.LoopDetection.MaxRepeats,
			MaxTurns:            e.cfg.LoopDetection.MaxTurns,
			WindowSize:          e.cfg.LoopDetection.WindowSize,
			SimilarityThreshold: e.cfg.LoopDetection.SimilarityThreshold,
			CooldownMs:          e.cfg.LoopDetection.CooldownMs,
			Action:              e.cfg.LoopDetection.Action,
		}, e.sessionID, e.sessionTurns, command)
		if err != nil {
			d.Warnings = append(d.Warnings, "loop detector unavailable: "+err.Error())
		} else if res.Violation != nil {
			d.Violations = append(d.Violations, *res.Violation)
		} else if res.Warning != "" {
			d.Warnings = append(d.Warnings, res.Warning)
		}
	}

	if e.cfg.AnomalyDetection.Enabled() {
		res, err := anomaly.Check(ctx, e.store, e.catalog, anomaly.Config{
			WorkingHours:             [2]int(e.cfg.AnomalyDetection.WorkingHours),
			TypicalCommandsPerMinute: e.cfg.AnomalyDetection.TypicalCommandsPerMinute,
			LearningCommands:         e.cfg.AnomalyDetection.LearningCommands,
			AdditionalPatterns:       e.cfg.AnomalyDetection.AdditionalPatterns,
			Action:                   e.cfg.AnomalyDetection.Action,
		}, command, time.Now())
		if err != nil {
			d.Warnings = append(d.Warnings, "anomaly detector unavailable: "+err.Error())
		} else if res.Violation != nil {
			d.Violations = append(d.Violations, *res.Violation)
		} else if res.Warning != "" {
			d.Warnings = append(d.Warnings, res.Warning)
		}
	}

	if e.cfg.RateLimit.Enabled() {
		limiter := ratelimit.New(e.store, e.cfg.RateLimit.MaxPerMinute, e.cfg.RateLimit.MaxPerHour)
		v, err := limiter.Check(ctx, time.Now())
		if err != nil {
			d.Warnings = append(d.Warnings, "rate limiter unavailable: "+err.Error())
		} else if v != nil {
			d.Violations = append(d.Violations, *v)
		}
	}

	return d
}
