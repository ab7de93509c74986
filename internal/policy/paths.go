package policy

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bashbros/cli/internal/worker"
)

// PathSandbox resolves a path argument (symlinks, `~`) and tests the
// resolved path against a config-driven allow/block prefix set.
type PathSandbox struct {
	allow []string
	block []string
}

// NewPathSandbox builds a sandbox over the given allow/block prefix lists.
func NewPathSandbox(allow, block []string) *PathSandbox {
	return &PathSandbox{allow: allow, block: block}
}

// Check resolves path against the current working directory and home
// directory, then tests the real path for a symlink escape and against the
// block/allow prefix sets.
func (s *PathSandbox) Check(path string) *Violation {
	expanded := expandHome(path)

	abs := expanded
	if !filepath.IsAbs(abs) {
		if cwd, err := os.Getwd(); err == nil {
			abs = filepath.Join(cwd, abs)
		}
	}
	abs = filepath.Clean(abs)

	real := abs
	isSymlink := false
	if info, err := os.Lstat(abs); err == nil {
		isSymlink = info.Mode()&os.ModeSymlink != 0
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			real = resolved
		}
	}

	if isSymlink && firstSegment(real) != firstSegment(abs) {
		return &Violation{
			Type:     "path",
			Rule:     "symlink_escape",
			Message:  "path resolves outside its apparent location via a symlink",
			Severity: SeverityHigh,
		}
	}

	if prefix, hit := matchesPrefix(real, s.block); hit {
		return &Violation{
			Type:     "path",
			Rule:     "block:" + prefix,
			Message:  "path is inside a blocked location",
			Severity: SeverityCritical,
		}
	}

	if len(s.allow) == 0 {
		return nil
	}
	for _, p := range s.allow {
		if p == "*" {
			return nil
		}
	}
	if _, hit := matchesPrefix(real, s.allow); hit {
		return nil
	}
	return &Violation{
		Type:     "path",
		Rule:     "not-allowed",
		Message:  "path is outside the allowed locations",
		Severity: SeverityMedium,
	}
}

// CheckAll runs Check over every path token concurrently via a worker
// pool, returning violations in the same order as paths (nil entries
// dropped) — one command can carry several path arguments worth
// resolving in parallel.
func (s *PathSandbox) CheckAll(paths []string) []*Violation {
	pool := worker.NewPool[*Violation](0)
	results := pool.Process(paths, func(p string) (*Violation, error) {
		return s.Check(p), nil
	})
	out := make([]*Violation, 0, len(results))
	for _, r := range results {
		if r.Value != nil {
			out = append(out, r.Value)
		}
	}
	return out
}

func expandHome(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func firstSegment(path string) string {
	cleaned := filepath.Clean(path)
	parts := strings.SplitN(strings.TrimPrefix(cleaned, string(filepath.Separator)), string(filepath.Separator), 2)
	return parts[0]
}

// matchesPrefix reports whether real is equal to, or a path-prefix child
// of, any entry in prefixes.
func matchesPrefix(real string, prefixes []string) (string, bool) {
	for _, p := range prefixes {
		clean := filepath.Clean(expandHome(p))
		if real == clean || strings.HasPrefix(real, clean+string(filepath.Separator)) {
			return p, true
		}
	}
	return "", false
}
