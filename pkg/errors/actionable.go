// Package errors provides actionable error handling with context-aware suggestions.
//
// This package enriches listing and connection errors with a category and actionable
// suggestions. The category is also what decides whether a failed directory listing is
// ignorable (the directory is missing or unreadable) or fatal for a poll cycle.
//
// Basic Usage:
//
//	enricher := errors.NewEnricher()
//	entries, err := lister.List(ctx, "/inbox")
//	if err != nil {
//	    actionableErr := enricher.Enrich(err, "/inbox")
//	    fmt.Println(actionableErr.Error())
//	    fmt.Println(errors.FormatSuggestions(actionableErr))
//	}
//
// The enricher extracts paths from error messages when none is given:
//
//	err := errors.New("open /home/user/inbox: permission denied")
//	enriched := enricher.Enrich(err, "") // Path will be extracted from error message
package errors

import "strings"

// Exported constants.
const (
	CategoryAuth       ErrorCategory = "auth"
	CategoryConnection ErrorCategory = "connection"
	CategoryPath       ErrorCategory = "path"
	CategoryPermission ErrorCategory = "permission"
	CategoryThrottled  ErrorCategory = "throttled"
	CategoryUnknown    ErrorCategory = "unknown"
)

// ActionableError represents an error with actionable suggestions for the user.
type ActionableError interface {
	error
	OriginalError() string
	Category() ErrorCategory
	Suggestions() []string
	AffectedPath() string
}

// NewActionableError creates a new ActionableError with the given details.
func NewActionableError(
	originalError string,
	category ErrorCategory,
	suggestions []string,
	affectedPath string,
) ActionableError {
	return &actionableError{
		originalError: originalError,
		category:      category,
		suggestions:   suggestions,
		affectedPath:  affectedPath,
	}
}

// ErrorCategory represents the type of error that occurred.
type ErrorCategory string

// NotFoundOrPermission reports whether the category describes a directory that is
// absent or cannot be read. Pollers may treat such listings as empty.
func (c ErrorCategory) NotFoundOrPermission() bool {
	return c == CategoryPath || c == CategoryPermission
}

// FormatSuggestions formats the suggestions from an ActionableError as a bulleted list.
// Returns empty string if the error is nil or has no suggestions.
func FormatSuggestions(err error) string {
	if err == nil {
		return ""
	}

	actionable, ok := err.(ActionableError)
	if !ok {
		return ""
	}

	suggestions := actionable.Suggestions()
	if len(suggestions) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, suggestion := range suggestions {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString("  • ")
		builder.WriteString(suggestion)
	}

	return builder.String()
}

// actionableError is the concrete implementation of ActionableError.
type actionableError struct {
	originalError string
	category      ErrorCategory
	suggestions   []string
	affectedPath  string
}

// AffectedPath returns the remote path affected by this error.
func (e *actionableError) AffectedPath() string {
	return e.affectedPath
}

// Category returns the error category.
func (e *actionableError) Category() ErrorCategory {
	return e.category
}

// Error implements the error interface.
func (e *actionableError) Error() string {
	return e.originalError
}

// OriginalError returns the original error message.
func (e *actionableError) OriginalError() string {
	return e.originalError
}

// Suggestions returns the list of actionable suggestions.
func (e *actionableError) Suggestions() []string {
	return e.suggestions
}
