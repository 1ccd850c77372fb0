package errors

import "fmt"

// SuggestionGenerator generates actionable suggestions based on error category.
type SuggestionGenerator interface {
	Generate(category ErrorCategory, affectedPath string) []string
}

// NewSuggestionGenerator creates a new SuggestionGenerator.
func NewSuggestionGenerator() SuggestionGenerator {
	return &suggestionGenerator{}
}

// suggestionGenerator is the concrete implementation of SuggestionGenerator.
type suggestionGenerator struct{}

// Generate returns actionable suggestions based on the error category and affected path.
func (g *suggestionGenerator) Generate(category ErrorCategory, affectedPath string) []string {
	switch category {
	case CategoryAuth:
		return g.generateAuthSuggestions(affectedPath)
	case CategoryConnection:
		return g.generateConnectionSuggestions(affectedPath)
	case CategoryThrottled:
		return g.generateThrottledSuggestions(affectedPath)
	case CategoryPermission:
		return g.generatePermissionSuggestions(affectedPath)
	case CategoryPath:
		return g.generatePathSuggestions(affectedPath)
	case CategoryUnknown:
		return g.generateUnknownSuggestions(affectedPath)
	default:
		return g.generateUnknownSuggestions(affectedPath)
	}
}

func (g *suggestionGenerator) generateAuthSuggestions(_ string) []string {
	return []string{
		"For SFTP, make sure ssh-agent is running or a key exists in ~/.ssh",
		"For S3, check the access key, secret key and region",
		"Verify the user name in the source URL",
	}
}

func (g *suggestionGenerator) generateConnectionSuggestions(_ string) []string {
	return []string{
		"Check that the remote host is reachable and the port is correct",
		"Verify no firewall or proxy blocks the connection",
		"Try the poll again - this may be a transient network error",
	}
}

func (g *suggestionGenerator) generatePathSuggestions(path string) []string {
	suggestions := []string{
		"Verify the directory exists and is spelled correctly",
	}

	if path != "" {
		suggestions = append(suggestions, "Check if the directory exists: "+path)
	}

	suggestions = append(suggestions,
		"Enable --ignore-not-found-or-permission to treat missing directories as empty")

	return suggestions
}

func (g *suggestionGenerator) generatePermissionSuggestions(path string) []string {
	suggestions := []string{
		"Ensure the polling user may list the directory",
	}

	if path != "" {
		suggestions = append(suggestions, fmt.Sprintf("Check permissions with 'ls -la %s'", path))
	} else {
		suggestions = append(suggestions, "Check permissions with 'ls -la' on the affected path")
	}

	suggestions = append(suggestions,
		"Enable --ignore-not-found-or-permission to skip unreadable directories")

	return suggestions
}

func (g *suggestionGenerator) generateThrottledSuggestions(_ string) []string {
	return []string{
		"Increase the poll interval",
		"Lower --max-messages-per-poll or --max-depth to issue fewer listings per cycle",
	}
}

func (g *suggestionGenerator) generateUnknownSuggestions(path string) []string {
	suggestions := []string{
		"Check the error message for more details",
		"Verify directory permissions and connectivity",
	}

	if path != "" {
		suggestions = append(suggestions, "Verify the path is accessible: "+path)
	}

	return suggestions
}
