// Package config loads and resolves BashBros configuration.
//
// Configuration is loaded from (highest to lowest priority):
//  1. Command-line flags
//  2. Environment variables (BASHBROS_*)
//  3. Project config (./.bashbros.yml)
//  4. Home config ($HOME/.bashbros.yml, then $HOME/.bashbros/config.yml)
//  5. Profile defaults (strict, balanced, permissive)
//
// Load always returns a fully populated Config, even when no file is found
// or the file is partial: every sub-config carries defaults so downstream
// components never need nil checks.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the process-wide, immutable-after-load configuration tree.
type Config struct {
	Profile          string                 `yaml:"profile" json:"profile"`
	Agent            string                 `yaml:"agent" json:"agent"`
	Commands         CommandsConfig         `yaml:"commands" json:"commands"`
	Paths            PathsConfig            `yaml:"paths" json:"paths"`
	Secrets          SecretsConfig          `yaml:"secrets" json:"secrets"`
	Audit            AuditConfig            `yaml:"audit" json:"audit"`
	RateLimit        RateLimitConfig        `yaml:"rateLimit" json:"rateLimit"`
	RiskScoring      RiskScoringConfig      `yaml:"riskScoring" json:"riskScoring"`
	LoopDetection    LoopDetectionConfig    `yaml:"loopDetection" json:"loopDetection"`
	AnomalyDetection AnomalyDetectionConfig `yaml:"anomalyDetection" json:"anomalyDetection"`
}

// CommandsConfig holds the allow/block glob lists consumed by the command filter.
type CommandsConfig struct {
	Allow []string `yaml:"allow" json:"allow"`
	Block []string `yaml:"block" json:"block"`
}

// PathsConfig holds the allow/block prefix lists consumed by the path sandbox.
type PathsConfig struct {
	Allow []string `yaml:"allow" json:"allow"`
	Block []string `yaml:"block" json:"block"`
}

// SecretsConfig configures the secrets guard.
//
// Enable fields throughout the tree are pointers so an explicit
// `enable: false` in a user's YAML is distinguishable from an absent field
// and can switch a profile default off.
type SecretsConfig struct {
	Enable   *bool    `yaml:"enable" json:"enable"`
	Mode     string   `yaml:"mode" json:"mode"` // "warn" or "block"
	Patterns []string `yaml:"patterns" json:"patterns"`
}

// Enabled reports whether the secrets guard is on; unset counts as off.
func (c SecretsConfig) Enabled() bool { return c.Enable != nil && *c.Enable }

// AuditConfig configures the audit logger.
type AuditConfig struct {
	Enable      *bool  `yaml:"enable" json:"enable"`
	Destination string `yaml:"destination" json:"destination"` // local | remote | both
	RemoteURL   string `yaml:"remoteUrl" json:"remoteUrl"`
}

// Enabled reports whether audit logging is on; unset counts as off.
func (c AuditConfig) Enabled() bool { return c.Enable != nil && *c.Enable }

// RateLimitConfig configures the rate limiter.
type RateLimitConfig struct {
	Enable       *bool `yaml:"enable" json:"enable"`
	MaxPerMinute int   `yaml:"maxPerMinute" json:"maxPerMinute"`
	MaxPerHour   int   `yaml:"maxPerHour" json:"maxPerHour"`
}

// Enabled reports whether rate limiting is on; unset counts as off.
func (c RateLimitConfig) Enabled() bool { return c.Enable != nil && *c.Enable }

// RiskPattern is a single additional risk-scoring rule from config.
type RiskPattern struct {
	Pattern string `yaml:"pattern" json:"pattern"`
	Score   int    `yaml:"score" json:"score"`
	Label   string `yaml:"label" json:"label"`
}

// RiskScoringConfig configures the risk scorer.
type RiskScoringConfig struct {
	Enable         *bool         `yaml:"enable" json:"enable"`
	WarnThreshold  int           `yaml:"warnThreshold" json:"warnThreshold"`
	BlockThreshold int           `yaml:"blockThreshold" json:"blockThreshold"`
	Additional     []RiskPattern `yaml:"additional" json:"additional"`
}

// Enabled reports whether risk-threshold checks are on; unset counts as off.
func (c RiskScoringConfig) Enabled() bool { return c.Enable != nil && *c.Enable }

// LoopDetectionConfig configures the loop detector.
type LoopDetectionConfig struct {
	Enable              *bool   `yaml:"enable" json:"enable"`
	MaxRepeats          int     `yaml:"maxRepeats" json:"maxRepeats"`
	MaxTurns            int     `yaml:"maxTurns" json:"maxTurns"`
	WindowSize          int     `yaml:"windowSize" json:"windowSize"`
	SimilarityThreshold float64 `yaml:"similarityThreshold" json:"similarityThreshold"`
	CooldownMs          int     `yaml:"cooldownMs" json:"cooldownMs"`
	Action              string  `yaml:"action" json:"action"` // warn | block
}

// Enabled reports whether loop detection is on; unset counts as off.
func (c LoopDetectionConfig) Enabled() bool { return c.Enable != nil && *c.Enable }

// WorkingHours is a [start, end) hour range in 24h local time.
type WorkingHours [2]int

// AnomalyDetectionConfig configures the anomaly detector.
type AnomalyDetectionConfig struct {
	Enable                   *bool        `yaml:"enable" json:"enable"`
	WorkingHours             WorkingHours `yaml:"workingHours" json:"workingHours"`
	TypicalCommandsPerMinute int          `yaml:"typicalCommandsPerMinute" json:"typicalCommandsPerMinute"`
	LearningCommands         int          `yaml:"learningCommands" json:"learningCommands"`
	AdditionalPatterns       []string     `yaml:"additionalPatterns" json:"additionalPatterns"`
	Action                   string       `yaml:"action" json:"action"` // warn | block
}

// Enabled reports whether anomaly detection is on; unset counts as off.
func (c AnomalyDetectionConfig) Enabled() bool { return c.Enable != nil && *c.Enable }

// Profile names recognized by Default.
const (
	ProfileStrict     = "strict"
	ProfileBalanced   = "balanced"
	ProfilePermissive = "permissive"
)

// balancedAllowList is the curated allow list shipped with the "balanced" profile.
var balancedAllowList = []string{
	"ls *", "cat *", "git *", "npm *", "node *", "python *", "python3 *",
	"pip *", "pip3 *", "go *", "make *", "echo *", "pwd", "cd *", "mkdir *",
	"touch *", "grep *", "find *", "vim *", "nano *", "code *", "less *",
	"head *", "tail *", "diff *", "wc *",
}

// dangerousBlockList ships with every profile.
var dangerousBlockList = []string{
	"rm -rf /*", "rm -rf ~*", "mkfs*", "dd if=*of=/dev/*", ":(){ :|:& };:",
	"chmod -R 777 /*", "> /dev/sda*", "sudo rm -rf *",
}

// Default returns the fully populated default configuration for a profile.
// An unrecognized profile falls back to "balanced".
func Default(profile string) *Config {
	cfg := &Config{
		Profile: profile,
		Commands: CommandsConfig{
			Block: append([]string(nil), dangerousBlockList...),
		},
		Paths: PathsConfig{
			Allow: []string{"*"},
			Block: []string{"/etc", "/sys", "/proc", "/boot", "/root/.ssh"},
		},
		Secrets: SecretsConfig{
			Enable: boolPtr(true),
			Mode:   "block",
		},
		Audit: AuditConfig{
			Enable:      boolPtr(true),
			Destination: "local",
		},
		RateLimit: RateLimitConfig{
			Enable:       boolPtr(true),
			MaxPerMinute: 100,
			MaxPerHour:   1000,
		},
		RiskScoring: RiskScoringConfig{
			Enable:         boolPtr(true),
			WarnThreshold:  6,
			BlockThreshold: 9,
		},
		LoopDetection: LoopDetectionConfig{
			Enable:              boolPtr(true),
			MaxRepeats:          3,
			MaxTurns:            500,
			WindowSize:          20,
			SimilarityThreshold: 0.85,
			CooldownMs:          0,
			Action:              "warn",
		},
		AnomalyDetection: AnomalyDetectionConfig{
			Enable:                   boolPtr(true),
			WorkingHours:             WorkingHours{7, 22},
			TypicalCommandsPerMinute: 10,
			LearningCommands:         50,
			Action:                   "warn",
		},
	}

	switch profile {
	case ProfileStrict:
		cfg.Commands.Allow = nil
	case ProfilePermissive:
		cfg.Commands.Allow = []string{"*"}
	default:
		cfg.Profile = ProfileBalanced
		cfg.Commands.Allow = append([]string(nil), balancedAllowList...)
	}

	return cfg
}

// candidatePaths returns the config file search order, highest precedence last.
func candidatePaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".bashbros.yml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".bashbros.yml"))
		paths = append(paths, filepath.Join(home, ".bashbros", "config.yml"))
	}
	return paths
}

// Load resolves configuration using the full precedence chain.
// explicitPath, when non-empty (the --config flag), is applied last so it
// overrides every searched file. Load never returns an error for a missing
// or malformed file — bad YAML is logged by the caller (via the returned
// warning slice) and defaults are kept, since misconfiguration should never
// be fatal to the calling hook; an unreadable explicitPath still produces a
// warning so an operator pointing the gate at the wrong file finds out.
func Load(flagProfile, explicitPath string) (*Config, []string) {
	var warnings []string

	profile := strings.TrimSpace(os.Getenv("BASHBROS_PROFILE"))
	if flagProfile != "" {
		profile = flagProfile
	}
	if profile == "" {
		profile = ProfileBalanced
	}

	cfg := Default(profile)

	for _, path := range candidatePaths() {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			warnings = append(warnings, "config: failed to parse "+path+": "+err.Error())
			continue
		}
		cfg = merge(cfg, &fileCfg)
	}

	if explicitPath != "" {
		data, err := os.ReadFile(explicitPath)
		if err != nil {
			warnings = append(warnings, "config: cannot read "+explicitPath+": "+err.Error())
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(data, &fileCfg); err != nil {
				warnings = append(warnings, "config: failed to parse "+explicitPath+": "+err.Error())
			} else {
				cfg = merge(cfg, &fileCfg)
			}
		}
	}

	applyEnv(cfg)

	return cfg, warnings
}

// merge overlays any non-zero fields of src onto dst and returns dst.
// Slices are replaced wholesale (a file that sets commands.allow fully
// replaces the profile default rather than appending to it).
func merge(dst, src *Config) *Config {
	if src.Profile != "" {
		dst.Profile = src.Profile
	}
	if src.Agent != "" {
		dst.Agent = src.Agent
	}
	if src.Commands.Allow != nil {
		dst.Commands.Allow = src.Commands.Allow
	}
	if src.Commands.Block != nil {
		dst.Commands.Block = src.Commands.Block
	}
	if src.Paths.Allow != nil {
		dst.Paths.Allow = src.Paths.Allow
	}
	if src.Paths.Block != nil {
		dst.Paths.Block = src.Paths.Block
	}
	if src.Secrets.Patterns != nil {
		dst.Secrets.Patterns = src.Secrets.Patterns
	}
	if src.Secrets.Mode != "" {
		dst.Secrets.Mode = src.Secrets.Mode
	}
	if src.Secrets.Enable != nil {
		dst.Secrets.Enable = src.Secrets.Enable
	}

	if src.Audit.Destination != "" {
		dst.Audit.Destination = src.Audit.Destination
	}
	if src.Audit.RemoteURL != "" {
		dst.Audit.RemoteURL = src.Audit.RemoteURL
	}
	if src.Audit.Enable != nil {
		dst.Audit.Enable = src.Audit.Enable
	}

	if src.RateLimit.MaxPerMinute != 0 {
		dst.RateLimit.MaxPerMinute = src.RateLimit.MaxPerMinute
	}
	if src.RateLimit.MaxPerHour != 0 {
		dst.RateLimit.MaxPerHour = src.RateLimit.MaxPerHour
	}
	if src.RateLimit.Enable != nil {
		dst.RateLimit.Enable = src.RateLimit.Enable
	}

	if src.RiskScoring.WarnThreshold != 0 {
		dst.RiskScoring.WarnThreshold = src.RiskScoring.WarnThreshold
	}
	if src.RiskScoring.BlockThreshold != 0 {
		dst.RiskScoring.BlockThreshold = src.RiskScoring.BlockThreshold
	}
	if src.RiskScoring.Additional != nil {
		dst.RiskScoring.Additional = src.RiskScoring.Additional
	}
	if src.RiskScoring.Enable != nil {
		dst.RiskScoring.Enable = src.RiskScoring.Enable
	}

	if src.LoopDetection.MaxRepeats != 0 {
		dst.LoopDetection.MaxRepeats = src.LoopDetection.MaxRepeats
	}
	if src.LoopDetection.MaxTurns != 0 {
		dst.LoopDetection.MaxTurns = src.LoopDetection.MaxTurns
	}
	if src.LoopDetection.WindowSize != 0 {
		dst.LoopDetection.WindowSize = src.LoopDetection.WindowSize
	}
	if src.LoopDetection.SimilarityThreshold != 0 {
		dst.LoopDetection.SimilarityThreshold = src.LoopDetection.SimilarityThreshold
	}
	if src.LoopDetection.CooldownMs != 0 {
		dst.LoopDetection.CooldownMs = src.LoopDetection.CooldownMs
	}
	if src.LoopDetection.Action != "" {
		dst.LoopDetection.Action = src.LoopDetection.Action
	}
	if src.LoopDetection.Enable != nil {
		dst.LoopDetection.Enable = src.LoopDetection.Enable
	}

	if src.AnomalyDetection.WorkingHours != (WorkingHours{}) {
		dst.AnomalyDetection.WorkingHours = src.AnomalyDetection.WorkingHours
	}
	if src.AnomalyDetection.TypicalCommandsPerMinute != 0 {
		dst.AnomalyDetection.TypicalCommandsPerMinute = src.AnomalyDetection.TypicalCommandsPerMinute
	}
	if src.AnomalyDetection.LearningCommands != 0 {
		dst.AnomalyDetection.LearningCommands = src.AnomalyDetection.LearningCommands
	}
	if src.AnomalyDetection.AdditionalPatterns != nil {
		dst.AnomalyDetection.AdditionalPatterns = src.AnomalyDetection.AdditionalPatterns
	}
	if src.AnomalyDetection.Action != "" {
		dst.AnomalyDetection.Action = src.AnomalyDetection.Action
	}
	if src.AnomalyDetection.Enable != nil {
		dst.AnomalyDetection.Enable = src.AnomalyDetection.Enable
	}

	return dst
}

func boolPtr(b bool) *bool { return &b }

// applyEnv applies BASHBROS_* environment variable overrides.
func applyEnv(cfg *Config) {
	if v := os.Getenv("BASHBROS_AGENT"); v != "" {
		cfg.Agent = v
	}
	if v := os.Getenv("BASHBROS_AUDIT_DESTINATION"); v != "" {
		cfg.Audit.Destination = v
	}
	if v := os.Getenv("BASHBROS_AUDIT_REMOTE_URL"); v != "" {
		cfg.Audit.RemoteURL = v
	}
	if v := os.Getenv("BASHBROS_MAX_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.MaxPerMinute = n
		}
	}
	if v := os.Getenv("BASHBROS_MAX_PER_HOUR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.MaxPerHour = n
		}
	}
}

// StateDir returns the BashBros state directory ($HOME/.bashbros), creating
// it with mode 0700 if it does not exist.
func StateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".bashbros")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
