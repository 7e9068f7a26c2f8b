package tui

import "github.com/charmbracelet/lipgloss"

// The palette matches the consent gate so a run reads as one flow: blue for
// structure, red only on failure.
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginTop(1)
	summaryStyle = lipgloss.NewStyle().MarginTop(1)

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("35"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	failureStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("160"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)
