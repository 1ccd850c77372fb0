package output

import "github.com/charmbracelet/lipgloss"

const (
	accentColorCode  = "62"  // Blue
	dimColorCode     = "240" // Dark gray
	errorColorCode   = "196" // Red
	successColorCode = "42"  // Green
	warningColorCode = "226" // Yellow
)

// TitleStyle returns the style for batch headers
func TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(accentColorCode)).
		Bold(true)
}

// DimStyle returns the style for secondary columns
func DimStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(dimColorCode))
}

// PathStyle returns the style for file paths
func PathStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(successColorCode))
}

// WarningStyle returns the style for warnings
func WarningStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(warningColorCode))
}

// ErrorStyle returns the style for error messages
func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(errorColorCode)).
		Bold(true)
}

// RenderError renders an error message with consistent styling
func RenderError(text string) string {
	return ErrorStyle().Render(text)
}
