package errors

import "strings"

// PatternMatcher matches error messages to categories using string patterns.
type PatternMatcher interface {
	Match(errorMsg string) ErrorCategory
}

// NewPatternMatcher creates a new PatternMatcher with predefined patterns.
// Categories are checked in order, so a message that mentions both a missing path
// and a dropped connection is reported as a connection problem.
func NewPatternMatcher() PatternMatcher {
	return &patternMatcher{
		patterns: []categoryPatterns{
			{CategoryAuth, []string{
				"unable to authenticate",
				"handshake failed",
				"invalidaccesskeyid",
				"signaturedoesnotmatch",
				"expiredtoken",
			}},
			{CategoryConnection, []string{
				"connection refused",
				"connection reset",
				"connection lost",
				"broken pipe",
				"i/o timeout",
				"no route to host",
				"use of closed network connection",
			}},
			{CategoryThrottled, []string{
				"slowdown",
				"too many requests",
				"throttl",
			}},
			{CategoryPermission, []string{
				"permission denied",
				"access denied",
				"accessdenied",
				"operation not permitted",
				"forbidden",
			}},
			{CategoryPath, []string{
				"no such file or directory",
				"file does not exist",
				"file not found",
				"path does not exist",
				"nosuchbucket",
				"not a directory",
			}},
		},
	}
}

// categoryPatterns pairs a category with the message fragments that identify it.
type categoryPatterns struct {
	category ErrorCategory
	patterns []string
}

// patternMatcher is the concrete implementation of PatternMatcher.
type patternMatcher struct {
	patterns []categoryPatterns
}

// Match returns the error category based on pattern matching.
func (m *patternMatcher) Match(errorMsg string) ErrorCategory {
	lowerMsg := strings.ToLower(errorMsg)

	for _, group := range m.patterns {
		for _, pattern := range group.patterns {
			if strings.Contains(lowerMsg, pattern) {
				return group.category
			}
		}
	}

	return CategoryUnknown
}
