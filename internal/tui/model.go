package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/appfx/appfx/internal/model"
)

// PhaseStartMsg announces one lifecycle phase and the plugins it will run.
type PhaseStartMsg struct {
	Phase   model.Phase
	Plugins []string
	Time    time.Time
}

// PluginCompleteMsg reports one finished plugin call.
type PluginCompleteMsg struct {
	Result model.PluginResult
}

// RunDoneMsg reports that the engine returned. Err is nil on success.
type RunDoneMsg struct {
	Err error
}

type tickMsg struct{}

// phaseView tracks one announced phase: its plugins in announcement order
// and the results that have arrived so far.
type phaseView struct {
	phase   model.Phase
	order   []string
	results map[string]model.PluginResult
}

// Model contains the Bubbletea state for one provisioning or deployment run.
// Phases arrive sequentially; plugin completions within a phase arrive in
// whatever order the engine collects them.
type Model struct {
	operation string
	envName   string

	phases    []phaseView
	total     int
	completed int
	failed    int

	finished  bool
	cancelled bool
	runErr    error
}

// NewModel constructs the progress model for a named run, e.g.
// NewModel("provision", "dev").
func NewModel(operation, envName string) Model {
	return Model{operation: operation, envName: envName}
}

// Init starts the Bubbletea program.
func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

// TotalPlugins returns how many plugin calls have been announced.
func (m Model) TotalPlugins() int {
	return m.total
}

// CompletedPlugins returns how many plugin calls have finished.
func (m Model) CompletedPlugins() int {
	return m.completed
}

// IsFinished reports whether the run has ended.
func (m Model) IsFinished() bool {
	return m.finished
}

// IsCancelled reports whether the operator interrupted the run.
func (m Model) IsCancelled() bool {
	return m.cancelled
}

func (m *Model) startPhase(phase model.Phase, plugins []string) {
	pv := phaseView{phase: phase, order: plugins, results: make(map[string]model.PluginResult, len(plugins))}
	for _, name := range plugins {
		pv.results[name] = model.PluginResult{Plugin: name, Phase: phase, Status: model.StatusRunning}
	}
	m.phases = append(m.phases, pv)
	m.total += len(plugins)
}

// phaseIndex finds the most recent view for a phase, creating one if a
// completion arrives for a phase that was never announced.
func (m *Model) phaseIndex(phase model.Phase) int {
	for i := len(m.phases) - 1; i >= 0; i-- {
		if m.phases[i].phase == phase {
			return i
		}
	}
	m.startPhase(phase, nil)
	return len(m.phases) - 1
}
