package ui

import "github.com/charmbracelet/lipgloss"

// Color palette. Single amber accent; tiles are desert-colored after all.
const (
	ColorAmber    = "214" // Primary accent
	ColorAmberDim = "172" // Dimmed accent for secondary elements
	ColorWhite    = "255" // Headers, important text
	ColorGray     = "245" // Secondary text, labels
	ColorDarkGray = "238" // Borders, separators
	ColorRed      = "196" // Errors
	ColorYellow   = "220" // Warnings
	ColorGreen    = "114" // Satisfied criteria
)

// Styles holds the lipgloss styles for search rendering.
type Styles struct {
	Header   lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Dim      lipgloss.Style
	Phase    lipgloss.Style
	Score    lipgloss.Style
	Label    lipgloss.Style
	Panel    lipgloss.Style
	Selected lipgloss.Style
}

// DefaultStyles returns styled components for TTY mode.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAmber)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGreen)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Phase:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAmberDim)),
		Score:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAmber)),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorDarkGray)).
			Padding(0, 1),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
	}
}

// NoColorStyles returns unstyled components for plain mode.
func NoColorStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle(),
		Success:  lipgloss.NewStyle(),
		Warning:  lipgloss.NewStyle(),
		Error:    lipgloss.NewStyle(),
		Dim:      lipgloss.NewStyle(),
		Phase:    lipgloss.NewStyle(),
		Score:    lipgloss.NewStyle(),
		Label:    lipgloss.NewStyle(),
		Panel:    lipgloss.NewStyle(),
		Selected: lipgloss.NewStyle(),
	}
}
