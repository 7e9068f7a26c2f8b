package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/appfx/appfx/internal/model"
	"github.com/appfx/appfx/internal/tui/components"
)

// View renders the current state of the model.
func (m Model) View() string {
	var sections []string

	title := titleStyle.Render(fmt.Sprintf("appfx • %s %q", m.operation, m.envName))
	sections = append(sections, title)

	progress := components.NewProgress(m.total).View(m.completed)
	sections = append(sections, sectionStyle.Render("Progress"), progress)

	for _, pv := range m.phases {
		entries := components.NewPluginList(pv.order, pv.results).Entries()
		if len(entries) == 0 {
			continue
		}
		sections = append(sections, sectionStyle.Render(phaseLabel(pv.phase)))
		sections = append(sections, renderPluginEntries(entries))
	}

	summary := components.NewSummary(components.SummaryData{
		Total:     m.total,
		Completed: m.completed,
		Finished:  m.finished,
		Cancelled: m.cancelled,
		Failures:  m.failures(),
	}).View()
	if strings.TrimSpace(summary) != "" {
		sections = append(sections, sectionStyle.Render("Summary"), summaryStyle.Render(summary))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderPluginEntries(entries []components.PluginEntry) string {
	var lines []string
	for _, entry := range entries {
		res := entry.Result
		icon := StatusIcon(res.Status)
		line := fmt.Sprintf(" %s %s", icon, entry.Name)
		if strings.TrimSpace(res.Message) != "" {
			line = fmt.Sprintf("%s — %s", line, res.Message)
		}
		if res.Duration > 0 {
			line = fmt.Sprintf("%s (%s)", line, res.Duration.Truncate(10*time.Millisecond))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// failures collects failed plugin calls across all phases, in arrival order.
func (m Model) failures() []components.Failure {
	var failures []components.Failure
	for _, pv := range m.phases {
		for _, name := range pv.order {
			res := pv.results[name]
			if res.Status != model.StatusFailed {
				continue
			}
			message := res.Message
			if message == "" && res.Error != nil {
				message = res.Error.Error()
			}
			failures = append(failures, components.Failure{Plugin: name, Message: message})
		}
	}
	return failures
}

func phaseLabel(phase model.Phase) string {
	switch phase {
	case model.PhaseProvision:
		return "Provision resources"
	case model.PhaseTemplateDeploy:
		return "Infrastructure template"
	case model.PhaseConfigure:
		return "Configure resources"
	case model.PhaseDeploy:
		return "Deploy application"
	default:
		return string(phase)
	}
}

// StatusIcon returns the glyph representing a plugin call status.
func StatusIcon(status string) string {
	switch status {
	case model.StatusSuccess:
		return successStyle.Render("✓")
	case model.StatusRunning:
		return runningStyle.Render("⏳")
	case model.StatusFailed:
		return failureStyle.Render("✗")
	case model.StatusSkipped:
		return skippedStyle.Render("⊘")
	case model.StatusWouldCreate:
		return pendingStyle.Render("✱")
	default:
		return pendingStyle.Render("…")
	}
}
