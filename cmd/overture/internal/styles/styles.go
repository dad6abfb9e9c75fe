// Package styles holds the centralized lipgloss style definitions for the
// boot monitor UI.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Header styles.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// Controller row styles.
	ReadyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // green
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // red
	SkippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // yellow
	OriginStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4")) // blue

	// Spinner / animation styles.
	SpinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")) // magenta

	// General utility styles.
	DimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // gray
)
