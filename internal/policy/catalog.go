package policy

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Catalog compiles the glob and regex strings a config supplies exactly
// once per process, rather than recompiling them on every invocation.
type Catalog struct {
	globs   map[string]*regexp.Regexp
	regexes map[string]*regexp.Regexp
}

// NewCatalog builds an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		globs:   make(map[string]*regexp.Regexp),
		regexes: make(map[string]*regexp.Regexp),
	}
}

// CompileGlob compiles and caches pattern, a shell glob where only `*` is a
// metacharacter. The result is case-insensitive and anchored at both ends.
// A pattern already compiled is returned from cache.
func (c *Catalog) CompileGlob(pattern string) *regexp.Regexp {
	if re, ok := c.globs[pattern]; ok {
		return re
	}
	re := regexp.MustCompile("(?i)^" + globToRegex(pattern) + "$")
	c.globs[pattern] = re
	return re
}

// CompileRegex compiles and caches an arbitrary regex string. Patterns that
// fail to compile are logged to stderr and dropped: initialization never
// fails the gate path for a bad config value.
func (c *Catalog) CompileRegex(pattern string) *regexp.Regexp {
	if re, ok := c.regexes[pattern]; ok {
		return re
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bashbros: dropping invalid pattern %q: %v\n", pattern, err)
		c.regexes[pattern] = nil
		return nil
	}
	c.regexes[pattern] = re
	return re
}

// CompileRegexes compiles a list, skipping (and logging) any that fail.
func (c *Catalog) CompileRegexes(patterns []string) []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, p := range patterns {
		if re := c.CompileRegex(p); re != nil {
			out = append(out, re)
		}
	}
	return out
}

// MatchAnyGlob reports whether s matches any of patterns, compiling and
// caching each as needed.
func (c *Catalog) MatchAnyGlob(s string, patterns []string) (string, bool) {
	for _, p := range patterns {
		if c.CompileGlob(p).MatchString(s) {
			return p, true
		}
	}
	return "", false
}

func globToRegex(glob string) string {
	var b strings.Builder
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}
