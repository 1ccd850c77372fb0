package poller

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/joe/dirpoll/pkg/filesystem"
)

// Candidate is a listed entry under evaluation.
// File and RelativePath are memoized and only computed when called.
type Candidate struct {
	File         func() (*RemoteFile, error)
	Name         string
	AbsolutePath string
	RelativePath func() string
	IsDirectory  bool

	// Siblings is the full listing of the directory the candidate was found in.
	Siblings []filesystem.Entry
}

// Filter decides whether a candidate is polled (files) or descended into (directories).
type Filter interface {
	Accept(c *Candidate) bool
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(c *Candidate) bool

// Accept calls f(c).
func (f FilterFunc) Accept(c *Candidate) bool {
	return f(c)
}

// AcceptAll accepts every candidate.
type AcceptAll struct{}

// Accept returns true.
func (AcceptAll) Accept(*Candidate) bool {
	return true
}

// Chain accepts a candidate only if every filter does. Filters run in order and
// stop at the first rejection, so filters with bookkeeping belong last.
type Chain []Filter

// Accept implements Filter.
func (c Chain) Accept(candidate *Candidate) bool {
	for _, filter := range c {
		if !filter.Accept(candidate) {
			return false
		}
	}

	return true
}

// HiddenFilter rejects entries whose name starts with a dot.
type HiddenFilter struct {
	IncludeFiles bool
	IncludeDirs  bool
}

// Accept implements Filter.
func (h HiddenFilter) Accept(c *Candidate) bool {
	if !strings.HasPrefix(c.Name, ".") {
		return true
	}

	if c.IsDirectory {
		return h.IncludeDirs
	}

	return h.IncludeFiles
}

// GlobFilter matches relative paths against doublestar glob patterns.
// Files must match an include pattern (if any) and no exclude pattern;
// directories are only checked against the directory exclude patterns.
// Matching is case-insensitive.
type GlobFilter struct {
	includes    []string
	excludes    []string
	dirExcludes []string
}

// NewGlobFilter creates a new GlobFilter. Empty include patterns match all files.
func NewGlobFilter(includes, excludes, dirExcludes []string) (*GlobFilter, error) {
	normalizedIncludes, err := normalizePatterns(includes)
	if err != nil {
		return nil, err
	}

	normalizedExcludes, err := normalizePatterns(excludes)
	if err != nil {
		return nil, err
	}

	normalizedDirExcludes, err := normalizePatterns(dirExcludes)
	if err != nil {
		return nil, err
	}

	return &GlobFilter{
		includes:    normalizedIncludes,
		excludes:    normalizedExcludes,
		dirExcludes: normalizedDirExcludes,
	}, nil
}

// Accept implements Filter.
func (f *GlobFilter) Accept(c *Candidate) bool {
	if c.IsDirectory {
		return !matchAny(f.dirExcludes, c.RelativePath())
	}

	return f.ShouldInclude(c.RelativePath())
}

// ShouldInclude returns true if the file at relativePath passes the patterns.
// Exclude patterns win over include patterns.
func (f *GlobFilter) ShouldInclude(relativePath string) bool {
	if matchAny(f.excludes, relativePath) {
		return false
	}

	if len(f.includes) == 0 {
		return true
	}

	return matchAny(f.includes, relativePath)
}

func normalizePatterns(patterns []string) ([]string, error) {
	normalized := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}

		lower := strings.ToLower(pattern)
		if !doublestar.ValidatePattern(lower) {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, doublestar.ErrBadPattern)
		}

		normalized = append(normalized, lower)
	}

	return normalized, nil
}

func matchAny(patterns []string, relativePath string) bool {
	normalizedPath := strings.ToLower(relativePath)

	for _, pattern := range patterns {
		// Patterns are validated up front, so Match cannot fail here
		if matched, _ := doublestar.Match(pattern, normalizedPath); matched {
			return true
		}
	}

	return false
}
