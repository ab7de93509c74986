package policy

import "strings"

// ExtractPaths is a simple tokenizer: it splits a command on whitespace
// and returns tokens that look like filesystem paths (absolute,
// home-relative, or containing a path separator), skipping flags and
// bare words.
func ExtractPaths(command string) []string {
	var paths []string
	for _, tok := range strings.Fields(command) {
		tok = strings.Trim(tok, `'"`)
		if tok == "" || strings.HasPrefix(tok, "-") {
			continue
		}
		if strings.HasPrefix(tok, "/") || strings.HasPrefix(tok, "~") ||
			strings.HasPrefix(tok, "./") || strings.HasPrefix(tok, "../") ||
			strings.Contains(tok, "/") {
			paths = append(paths, tok)
		}
	}
	return paths
}

// ExtractDestination returns the host of the first URL-shaped token in the
// command, or "" if the command names no outbound destination. Used to
// record where a blocked command was about to send data.
func ExtractDestination(command string) string {
	for _, tok := range strings.Fields(command) {
		tok = strings.Trim(tok, `'"`)
		idx := strings.Index(tok, "://")
		if idx < 0 {
			continue
		}
		rest := tok[idx+3:]
		if end := strings.IndexAny(rest, "/?#"); end >= 0 {
			rest = rest[:end]
		}
		if rest != "" {
			return rest
		}
	}
	return ""
}
