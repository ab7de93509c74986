// Package audit implements an append-only audit log with file locking,
// size-based rotation, sanitization, and an optional remote destination.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	maxLogSize    = 10 * 1024 * 1024 // 10 MiB
	maxRotations  = 5
	maxCommandLen = 1000
	lockStaleAge  = 5 * time.Second
	lockRetries   = 10
	lockRetryWait = 50 * time.Millisecond
)

// Entry is one audit event.
type Entry struct {
	Timestamp  time.Time
	Allowed    bool
	Types      []string
	DurationMs int64
	Command    string
	Violations []Violation
	Agent      string
}

// Violation is the subset of policy.Violation the remote payload needs.
// Kept independent of the policy package so audit has no import-cycle
// dependency on the decision pipeline.
type Violation struct {
	Type    string `json:"type"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Logger writes entries to a local file, a remote endpoint, or both.
type Logger struct {
	path        string
	destination string // local | remote | both
	remoteURL   string
	httpClient  *http.Client
}

// New builds a Logger. path is the local audit.log file; remoteURL is only
// used when destination includes "remote".
func New(path, destination, remoteURL string) *Logger {
	return &Logger{
		path:        path,
		destination: destination,
		remoteURL:   remoteURL,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Log writes entry per the configured destination. Local failures are
// logged to stderr and otherwise swallowed; remote failures are silent.
// Neither ever returns an error that should affect the gate decision.
func (l *Logger) Log(ctx context.Context, e Entry) {
	if l.destination == "local" || l.destination == "both" {
		if err := l.writeLocal(e); err != nil {
			fmt.Fprintf(os.Stderr, "bashbros: audit write failed: %v\n", err)
		}
	}
	if l.destination == "remote" || l.destination == "both" {
		l.postRemote(ctx, e)
	}
}

func (l *Logger) writeLocal(e Entry) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	unlock := l.acquireLock()
	defer unlock()

	if err := l.rotateIfNeeded(); err != nil {
		log.Warn().Err(err).Msg("audit rotation failed")
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(e)); err != nil {
		return fmt.Errorf("write audit line: %w", err)
	}
	return f.Sync()
}

// FormatLine renders e as one audit-log line:
// "[<ISO8601>] <ALLOWED|BLOCKED>[<type1,type2,...>] (<duration>ms) <sanitized-command>\n"
func FormatLine(e Entry) string {
	status := "BLOCKED"
	if e.Allowed {
		status = "ALLOWED"
	}
	typeTag := ""
	if len(e.Types) > 0 {
		typeTag = "[" + strings.Join(e.Types, ",") + "]"
	}
	return fmt.Sprintf("[%s] %s%s (%dms) %s\n",
		e.Timestamp.UTC().Format(time.RFC3339),
		status, typeTag, e.DurationMs, Sanitize(e.Command))
}

// Sanitize strips ASCII control characters (\x00-\x1f, \x7f) and caps the
// result at maxCommandLen characters.
func Sanitize(command string) string {
	var b strings.Builder
	for _, r := range command {
		if r == 0x7f || (r >= 0 && r <= 0x1f) {
			continue
		}
		b.WriteRune(r)
	}
	s := b.String()
	runes := []rune(s)
	if len(runes) > maxCommandLen {
		return string(runes[:maxCommandLen])
	}
	return s
}

func (l *Logger) rotateIfNeeded() error {
	info, err := os.Stat(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Size() < maxLogSize {
		return nil
	}

	oldest := fmt.Sprintf("%s.%d", l.path, maxRotations)
	os.Remove(oldest)
	for n := maxRotations - 1; n >= 1; n-- {
		src := fmt.Sprintf("%s.%d", l.path, n)
		dst := fmt.Sprintf("%s.%d", l.path, n+1)
		if _, err := os.Stat(src); err == nil {
			os.Rename(src, dst)
		}
	}
	return os.Rename(l.path, l.path+".1")
}

// acquireLock implements the exclusive-create lock-file protocol: retry up
// to lockRetries times with lockRetryWait sleeps, removing stale locks
// older than lockStaleAge, proceeding unlocked (with a warning) if the
// lock can never be acquired.
func (l *Logger) acquireLock() func() {
	lockPath := filepath.Join(filepath.Dir(l.path), "audit.lock")

	for attempt := 0; attempt < lockRetries; attempt++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			f.Close()
			return func() { os.Remove(lockPath) }
		}
		if info, statErr := os.Stat(lockPath); statErr == nil {
			if time.Since(info.ModTime()) > lockStaleAge {
				os.Remove(lockPath)
				continue
			}
		}
		time.Sleep(lockRetryWait)
	}

	log.Warn().Str("lock", lockPath).Msg("audit lock unavailable, proceeding without it")
	return func() {}
}

// RemotePayload is the JSON body posted to the remote audit endpoint.
type RemotePayload struct {
	Timestamp  string      `json:"timestamp"`
	Command    string      `json:"command"`
	Allowed    bool        `json:"allowed"`
	Violations []Violation `json:"violations"`
	Duration   int64       `json:"duration"`
	Agent      string      `json:"agent"`
}

func marshalPayload(p RemotePayload) ([]byte, error) {
	return json.Marshal(p)
}

func (l *Logger) postRemote(ctx context.Context, e Entry) {
	if !strings.HasPrefix(l.remoteURL, "https://") {
		log.Warn().Str("url", l.remoteURL).Msg("remote audit URL must be https, dropping")
		return
	}

	body, err := marshalPayload(RemotePayload{
		Timestamp:  e.Timestamp.UTC().Format(time.RFC3339),
		Command:    Sanitize(e.Command),
		Allowed:    e.Allowed,
		Violations: e.Violations,
		Duration:   e.DurationMs,
		Agent:      e.Agent,
	})
	if err != nil {
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, l.remoteURL, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "BashBros/1.0")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
}
