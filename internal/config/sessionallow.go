package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// sessionAllowName is the process-local session allowlist file kept in the
// state directory alongside the store and the audit log.
const sessionAllowName = "session-allow.json"

// sessionAllowFile maps a session id to the command glob patterns the user
// approved for it. The empty key holds patterns approved outside any
// session.
type sessionAllowFile struct {
	Sessions map[string][]string `json:"sessions"`
}

func readSessionAllow(dir string) (*sessionAllowFile, error) {
	var f sessionAllowFile
	data, err := os.ReadFile(filepath.Join(dir, sessionAllowName))
	if err != nil {
		if os.IsNotExist(err) {
			return &sessionAllowFile{Sessions: map[string][]string{}}, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("session allow: parse: %w", err)
	}
	if f.Sessions == nil {
		f.Sessions = map[string][]string{}
	}
	return &f, nil
}

// LoadSessionAllow returns the allowlist patterns approved for sessionID,
// plus any approved outside a session. A missing or unreadable file yields
// no patterns; the allowlist only ever widens a config and must never make
// the gate fail.
func LoadSessionAllow(dir, sessionID string) []string {
	f, err := readSessionAllow(dir)
	if err != nil {
		return nil
	}
	patterns := append([]string(nil), f.Sessions[""]...)
	if sessionID != "" {
		patterns = append(patterns, f.Sessions[sessionID]...)
	}
	return patterns
}

// AppendSessionAllow adds pattern to sessionID's allowlist, writing the
// file atomically (temp file then rename) so a concurrent gate read never
// sees a torn write. Duplicate patterns are kept out.
func AppendSessionAllow(dir, sessionID, pattern string) error {
	f, err := readSessionAllow(dir)
	if err != nil {
		return err
	}
	for _, p := range f.Sessions[sessionID] {
		if p == pattern {
			return nil
		}
	}
	f.Sessions[sessionID] = append(f.Sessions[sessionID], pattern)

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("session allow: marshal: %w", err)
	}
	tmp, err := os.CreateTemp(dir, sessionAllowName+".*")
	if err != nil {
		return fmt.Errorf("session allow: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("session allow: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("session allow: close: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("session allow: chmod: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, sessionAllowName)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("session allow: rename: %w", err)
	}
	return nil
}
