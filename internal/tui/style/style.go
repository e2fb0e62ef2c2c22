// Package style defines lipgloss styles for the TUI.
package style

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/alkime/onerep/internal/phase"
)

// Names omit a "Style" suffix since they are read through the package
// (style.Title, not style.TitleStyle).
var (
	// Title is used for the workout name header.
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205"))

	// Subtitle is used for secondary text.
	Subtitle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	// Success is used for completed exercises and confirmations.
	Success = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	// Error is used for error messages.
	Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color("196"))

	// Warning is used for the paused banner.
	Warning = lipgloss.NewStyle().
		Foreground(lipgloss.Color("214"))

	// Panel frames the phase countdown.
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 2)

	// Help is used for keyboard shortcut hints.
	Help = lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	// Progress is used for the microphone level strip.
	Progress = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))

	// Label is used for inline labels (e.g., "Next:", "Heard:").
	Label = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("255"))

	// Muted is used for de-emphasized text.
	Muted = lipgloss.NewStyle().
		Foreground(lipgloss.Color("245"))

	// Bullet marks the current exercise.
	Bullet = lipgloss.NewStyle().
		Foreground(lipgloss.Color("205"))

	// Countdown is the seconds left in the phase.
	Countdown = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255"))
)

var phaseColors = map[phase.Phase]lipgloss.Color{
	phase.Prep:           lipgloss.Color("214"),
	phase.Positioning:    lipgloss.Color("214"),
	phase.Eccentric:      lipgloss.Color("39"),
	phase.Concentric:     lipgloss.Color("196"),
	phase.FinalEccentric: lipgloss.Color("39"),
	phase.Rest:           lipgloss.Color("42"),
}

// Phase returns the heading style for p. Work phases are colored so the
// current effort reads at a glance from the bench.
func Phase(p phase.Phase) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	if c, ok := phaseColors[p]; ok {
		return s.Foreground(c)
	}

	return s.Foreground(lipgloss.Color("245"))
}
