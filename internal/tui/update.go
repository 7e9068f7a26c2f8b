package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/appfx/appfx/internal/model"
)

// Update handles Bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, nil
	case PhaseStartMsg:
		m.startPhase(msg.Phase, msg.Plugins)
		return m, nil
	case PluginCompleteMsg:
		name := msg.Result.Plugin
		if name == "" {
			return m, nil
		}
		idx := m.phaseIndex(msg.Result.Phase)
		pv := &m.phases[idx]
		existing, announced := pv.results[name]
		if !announced {
			pv.order = append(pv.order, name)
			m.total++
		}
		pv.results[name] = msg.Result
		if !announced || existing.Status == model.StatusRunning || existing.Status == model.StatusPending {
			m.completed++
		}
		if msg.Result.Status == model.StatusFailed {
			m.failed++
		}
		return m, nil
	case RunDoneMsg:
		m.finished = true
		m.runErr = msg.Err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			m.finished = true
			return m, tea.Quit
		}
	case tea.QuitMsg:
		m.finished = true
		return m, nil
	}

	return m, nil
}
