package policy

import (
	"regexp"
	"strings"

	"github.com/bashbros/cli/internal/worker"
)

// SecretsGuard scans for command-mode exfiltration attempts and
// text-mode credential leaks against a configurable pattern catalog.
type SecretsGuard struct {
	catalog       *Catalog
	secretGlobs   []string
	exfilPatterns []*regexp.Regexp
}

// sensitiveExtensions are path suffixes that make a command a secrets hit
// when read, opened, or referenced via encoding/indirection.
var sensitiveExtensions = []string{
	".env", ".pem", ".key", "id_rsa", "credentials", "secret", "password", "token",
}

// credentialPaths are well-known credential file locations.
var credentialPaths = []string{
	".aws/credentials", ".kube/config", ".ssh/id_rsa", ".ssh/id_ed25519",
	".ssh/id_ecdsa", "authorized_keys", ".gnupg/", ".git-credentials",
	".netrc", ".pgpass", ".my.cnf",
}

// exfilPatternSources is the curated built-in list of exfiltration-intent
// regexes. Each pattern is pre-anchored to be case-insensitive.
var exfilPatternSources = []string{
	`(?i)\b(cat|head|tail|less|more|bat)\b.*(\.env|\.pem|\.key|credentials|secret|password|token)`,
	`(?i)\b(python3?|node|ruby|perl)\b.*(open|read).*(\.env|\.pem|\.key|credentials)`,
	`(?i)echo\s+\$[A-Z_]*SECRET[A-Z_]*`,
	`(?i)\benv\b\s*\|\s*grep`,
	`(?i)\bprintenv\b`,
	`(?i)\bcurl\b.*-(H|header).*(authorization|bearer|token)`,
	`(?i)\bbase64\b\s+(-d|--decode)?`,
	`(?i)\bxxd\b|\bhexdump\b`,
	`cat\s+\$\(.*\)`,
	"cat\\s+`.*`",
	`cat\s+\$\{.*\}`,
	`[A-Z_]+=\S*(env|pem|key)\S*;\s*cat\s+\$[A-Z_]+`,
	`cat\s+\*env`,
	`cat\s+\?\?env`,
	`cat\s*<<`,
	`cat\s+<\(.*\)`,
	`(?i)\bhistory\b`,
	`(?i)\.bash_history|\.zsh_history`,
	`(?i)gpg\s+--export-secret`,
}

// NewSecretsGuard builds a guard with the given user-configured secret
// globs in addition to the built-in exfiltration pattern list.
func NewSecretsGuard(catalog *Catalog, secretGlobs []string) *SecretsGuard {
	return &SecretsGuard{
		catalog:       catalog,
		secretGlobs:   secretGlobs,
		exfilPatterns: catalog.CompileRegexes(exfilPatternSources),
	}
}

// Check runs command-mode detection: a user secret glob hit on any of
// paths, a built-in exfiltration pattern match on command, or an
// encoded/indirect reference to a sensitive extension.
func (g *SecretsGuard) Check(command string, paths []string) *Violation {
	for _, p := range paths {
		if _, hit := g.catalog.MatchAnyGlob(p, g.secretGlobs); hit {
			return &Violation{
				Type:        "secrets",
				Rule:        "secret_path",
				Message:     "command references a path matching a configured secret pattern",
				Remediation: []string{"avoid referencing credential files directly in commands"},
				Severity:    SeverityCritical,
			}
		}
	}

	for _, cp := range credentialPaths {
		if strings.Contains(command, cp) {
			return &Violation{
				Type:        "secrets",
				Rule:        "credential_path",
				Message:     "command references a well-known credential location: " + cp,
				Remediation: []string{"do not read or transmit stored credential files"},
				Severity:    SeverityCritical,
			}
		}
	}

	for _, re := range g.exfilPatterns {
		if re.MatchString(command) {
			return &Violation{
				Type:        "secrets",
				Rule:        "exfil_pattern",
				Message:     "command matches a known credential-exfiltration pattern",
				Remediation: []string{"avoid reading, printing, or transmitting secret material"},
				Severity:    SeverityHigh,
			}
		}
	}

	lower := strings.ToLower(command)
	for _, ext := range sensitiveExtensions {
		if strings.Contains(lower, ext) && (strings.Contains(lower, "base64") || strings.Contains(lower, "xxd") || strings.Contains(lower, "hexdump")) {
			return &Violation{
				Type:        "secrets",
				Rule:        "encoded_secret_access",
				Message:     "command encodes or decodes data near a sensitive file reference",
				Remediation: []string{"do not obfuscate credential access with encoding"},
				Severity:    SeverityCritical,
			}
		}
	}

	return nil
}

// Finding is a single credential match from a text-mode scan.
type Finding struct {
	Pattern  string `json:"pattern"`
	Line     int    `json:"line"`
	Severity string `json:"severity"`
	Redacted string `json:"redacted"`
}

// ScanResult is the outcome of ScanText.
type ScanResult struct {
	Clean    bool      `json:"clean"`
	Findings []Finding `json:"findings"`
}

type secretPattern struct {
	name     string
	re       *regexp.Regexp
	severity string
}

var textSecretPatterns = []secretPattern{
	{"AWS Access Key", regexp.MustCompile(`\b(AKIA|ASIA)[0-9A-Z]{16}\b`), SeverityCritical},
	{"AWS Secret Key", regexp.MustCompile(`(?i)aws_secret_access_key\s*[:=]\s*["']?[A-Za-z0-9/+=]{40}["']?`), SeverityCritical},
	{"GitHub Token", regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,255}\b`), SeverityCritical},
	{"Slack Token", regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9-]{10,}\b`), SeverityHigh},
	{"Stripe Key", regexp.MustCompile(`\b(sk|pk)_(live|test)_[A-Za-z0-9]{10,}\b`), SeverityCritical},
	{"OpenAI Key", regexp.MustCompile(`\bsk-[A-Za-z0-9]{20,}\b`), SeverityCritical},
	{"PEM Private Key", regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`), SeverityCritical},
	{"JWT", regexp.MustCompile(`\beyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\b`), SeverityHigh},
	{"Generic Credential Assignment", regexp.MustCompile(`(?i)\b(api[_-]?key|password|secret|token)\b\s*[:=]\s*["']?[^\s"']{6,}`), SeverityHigh},
}

// ScanText scans arbitrary text for leaked credentials: it never mutates
// input, only reports. Lines are scanned concurrently via a worker pool
// since a tool-output blob can run to tens of thousands of lines.
func ScanText(text string) ScanResult {
	lines := strings.Split(text, "\n")
	pool := worker.NewPool[[]Finding](0)
	perLine := pool.Process(lines, func(line string) ([]Finding, error) {
		var found []Finding
		for _, p := range textSecretPatterns {
			loc := p.re.FindStringIndex(line)
			if loc == nil {
				continue
			}
			match := line[loc[0]:loc[1]]
			found = append(found, Finding{
				Pattern:  p.name,
				Severity: p.severity,
				Redacted: redactMatch(match),
			})
		}
		return found, nil
	})

	result := ScanResult{Clean: true}
	for lineNo, r := range perLine {
		for _, f := range r.Value {
			f.Line = lineNo + 1
			result.Clean = false
			result.Findings = append(result.Findings, f)
		}
	}
	return result
}

// redactMatch keeps the first 4 and last 2 characters of match, replacing
// the middle with "***".
func redactMatch(match string) string {
	if len(match) <= 6 {
		return strings.Repeat("*", len(match))
	}
	return match[:4] + "***" + match[len(match)-2:]
}
