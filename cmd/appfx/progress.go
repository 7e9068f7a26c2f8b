package main

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/appfx/appfx/internal/model"
	"github.com/appfx/appfx/internal/tui"
)

// runProgress adapts engine events to the progress display. Interactive runs
// stream messages into a live Bubbletea program; scripted runs fold messages
// into the model directly and print the final view once.
//
// The program starts lazily on the first phase so the prompts that precede
// provisioning (consent, subscription pick) keep the terminal to themselves.
type runProgress struct {
	interactive bool
	state       tui.Model
	program     *tea.Program
	done        chan struct{}
	programErr  error
	// cancel stops the engine when the operator quits the display.
	cancel context.CancelFunc
}

func newRunProgress(operation, envName string, interactive bool, cancel context.CancelFunc) *runProgress {
	return &runProgress{
		interactive: interactive,
		state:       tui.NewModel(operation, envName),
		done:        make(chan struct{}),
		cancel:      cancel,
	}
}

// PhaseStarted implements engine.Events.
func (p *runProgress) PhaseStarted(phase model.Phase, plugins []string) {
	p.start()
	p.dispatch(tui.PhaseStartMsg{Phase: phase, Plugins: plugins, Time: time.Now()})
}

// PluginCompleted implements engine.Events.
func (p *runProgress) PluginCompleted(result model.PluginResult) {
	p.dispatch(tui.PluginCompleteMsg{Result: result})
}

func (p *runProgress) start() {
	if !p.interactive || p.program != nil {
		return
	}

	p.program = tea.NewProgram(p.state)
	go func() {
		final, err := p.program.Run()
		if m, ok := final.(tui.Model); ok {
			p.state = m
		}
		p.programErr = err
		if p.state.IsCancelled() && p.cancel != nil {
			p.cancel()
		}
		close(p.done)
	}()
}

func (p *runProgress) dispatch(msg tea.Msg) {
	if p.program != nil {
		p.program.Send(msg)
		return
	}
	p.fold(msg)
}

func (p *runProgress) fold(msg tea.Msg) {
	updated, _ := p.state.Update(msg)
	if m, ok := updated.(tui.Model); ok {
		p.state = m
	}
}

// finish delivers the run outcome to the display and tears it down. In
// scripted mode the accumulated view prints once, and only if a phase ever
// started; runs that fail before the first phase have nothing to show.
func (p *runProgress) finish(out io.Writer, runErr error) error {
	if p.program != nil {
		p.program.Send(tui.RunDoneMsg{Err: runErr})
		<-p.done
		return p.programErr
	}

	p.fold(tui.RunDoneMsg{Err: runErr})
	if p.state.TotalPlugins() > 0 {
		fmt.Fprintln(out, p.state.View())
	}
	return nil
}
