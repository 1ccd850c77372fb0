package errors

import (
	"errors"
	"regexp"
	"strings"
)

// Enricher enriches standard errors with actionable suggestions.
type Enricher interface {
	Enrich(err error, affectedPath string) error
}

// Categorized is implemented by errors that already know their category,
// such as listing failures classified by the transport that produced them.
type Categorized interface {
	Category() ErrorCategory
}

// NewEnricher creates a new Enricher with default pattern matcher and suggestion generator.
func NewEnricher() Enricher {
	return &enricher{
		matcher:   NewPatternMatcher(),
		generator: NewSuggestionGenerator(),
	}
}

// Classify returns the category of err. Errors implementing Categorized anywhere in
// the chain win over message matching. A nil error is CategoryUnknown.
func Classify(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}

	var categorized Categorized
	if errors.As(err, &categorized) {
		return categorized.Category()
	}

	return defaultMatcher.Match(err.Error())
}

// unexported variables.
var (
	//nolint:gochecknoglobals // Compiled regexes shared across all enricher instances for performance
	pathExtractionPatterns = []*regexp.Regexp{
		// Unix/Linux paths (absolute and relative)
		regexp.MustCompile(`\b\w+\s+([./][^\s:]+):`),
		// Windows paths with backslashes
		regexp.MustCompile(`\b\w+\s+([A-Za-z]:\\[^\s:]+):`),
		// Windows paths with forward slashes
		regexp.MustCompile(`\b\w+\s+([A-Za-z]:/[^\s:]+):`),
	}

	//nolint:gochecknoglobals // Stateless matcher shared by Classify
	defaultMatcher = NewPatternMatcher()
)

// enricher is the concrete implementation of Enricher.
type enricher struct {
	matcher   PatternMatcher
	generator SuggestionGenerator
}

// Enrich takes a standard error and enriches it with category and actionable suggestions.
// If the error is already an ActionableError, it is returned unchanged.
// If affectedPath is empty, attempts to extract a path from the error message.
func (e *enricher) Enrich(err error, affectedPath string) error {
	var actionableErr ActionableError
	if errors.As(err, &actionableErr) {
		return actionableErr
	}

	errMsg := err.Error()

	if affectedPath == "" {
		affectedPath = extractPath(errMsg)
	}

	var category ErrorCategory

	var categorized Categorized
	if errors.As(err, &categorized) {
		category = categorized.Category()
	} else {
		category = e.matcher.Match(errMsg)
	}

	suggestions := e.generator.Generate(category, affectedPath)

	return NewActionableError(
		errMsg,
		category,
		suggestions,
		affectedPath,
	)
}

// extractPath attempts to extract a path from common Go error message formats.
// Returns empty string if no path is found.
//
// This function recognizes standard Go error formats like:
//   - "open /path/to/dir: permission denied"
//   - "failed to list /inbox/2024: no such file or directory"
//
// Patterns are pre-compiled at package initialization. Enrichment only happens when
// an error is displayed, never inside a poll.
func extractPath(errorMsg string) string {
	for _, pattern := range pathExtractionPatterns {
		if matches := pattern.FindStringSubmatch(errorMsg); len(matches) > 1 {
			path := strings.TrimSpace(matches[1])
			if path != "" {
				return path
			}
		}
	}

	return ""
}
