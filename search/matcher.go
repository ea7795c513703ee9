package search

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/monochromegane/go-gitignore"
)

// Matcher decides which directories are skipped. It combines a regular
// expression built from name fragments with optional gitignore-style rules.
// A nil *Matcher excludes nothing.
type Matcher struct {
	re      *regexp.Regexp
	ignore  gitignore.IgnoreMatcher
	sources []string
}

// NewMatcher joins the non-empty fragments into one alternation, so
// NewMatcher("node_modules", `\.git`) matches either. It returns nil when no
// fragment is given.
func NewMatcher(fragments ...string) (*Matcher, error) {
	var parts []string
	for _, f := range fragments {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}
	expr := strings.Join(parts, "|")
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: bad exclude pattern %q: %w", ErrConfiguration, expr, err)
	}
	return &Matcher{re: re, sources: []string{expr}}, nil
}

// WithIgnoreRules adds gitignore-style rules read from r. Rules are anchored
// at the remote root "/". m may be nil.
func (m *Matcher) WithIgnoreRules(r io.Reader) *Matcher {
	if m == nil {
		m = &Matcher{}
	}
	m.ignore = gitignore.NewGitIgnoreFromReader("/", r)
	m.sources = append(m.sources, "gitignore rules")
	return m
}

// WithIgnoreFile adds the rules of a local gitignore-style file.
func (m *Matcher) WithIgnoreFile(path string) (*Matcher, error) {
	ignore, err := gitignore.NewGitIgnore(path, "/")
	if err != nil {
		return m, fmt.Errorf("%w: reading ignore file: %w", ErrConfiguration, err)
	}
	if m == nil {
		m = &Matcher{}
	}
	m.ignore = ignore
	m.sources = append(m.sources, path)
	return m, nil
}

// Excluded reports whether the directory called name, at fullPath, is skipped.
func (m *Matcher) Excluded(name, fullPath string) bool {
	if m == nil {
		return false
	}
	if m.re != nil && (m.re.MatchString(name) || m.re.MatchString(fullPath)) {
		return true
	}
	return m.ignore != nil && strings.HasPrefix(fullPath, "/") && m.ignore.Match(fullPath, true)
}

func (m *Matcher) String() string {
	if m == nil {
		return "<none>"
	}
	return strings.Join(m.sources, ", ")
}
