// Package ui is the operator interaction surface: prompts, selections, and
// link opening. Commands wire the survey-backed implementation when a
// terminal is attached; tests and scripted runs use ScriptedInteractor.
package ui

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	surveyterminal "github.com/AlecAivazis/survey/v2/terminal"
)

// ErrNonInteractive is returned when a prompt is required but no interactive
// surface is available.
var ErrNonInteractive = errors.New("input required but session is not interactive")

// ErrPromptAborted is returned when the operator interrupts a prompt.
var ErrPromptAborted = errors.New("prompt aborted")

// Interactor is the prompt surface used by the consent gate and the
// subscription picker.
type Interactor interface {
	// Select asks the operator to pick one option. The default is
	// pre-highlighted.
	Select(message string, options []string, defaultOption string) (string, error)
	// Confirm asks a yes/no question.
	Confirm(message string, defaultYes bool) (bool, error)
	// OpenURL surfaces a link to the operator.
	OpenURL(url string) error
}

// Prompter implements Interactor with survey prompts on the terminal.
type Prompter struct {
	out io.Writer
}

// NewPrompter creates a terminal-backed Interactor.
func NewPrompter(out io.Writer) *Prompter {
	if out == nil {
		out = os.Stdout
	}
	return &Prompter{out: out}
}

// Select asks the operator to pick one option.
func (p *Prompter) Select(message string, options []string, defaultOption string) (string, error) {
	prompt := &survey.Select{
		Message: message,
		Options: options,
	}
	if defaultOption != "" {
		prompt.Default = defaultOption
	}

	var choice string
	if err := survey.AskOne(prompt, &choice); err != nil {
		return "", promptError(err)
	}
	return choice, nil
}

// Confirm asks a yes/no question.
func (p *Prompter) Confirm(message string, defaultYes bool) (bool, error) {
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultYes,
	}

	var confirmed bool
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return false, promptError(err)
	}
	return confirmed, nil
}

// OpenURL prints the link for the operator to follow. Core stays free of
// browser integration; callers that embed a launcher can wrap this.
func (p *Prompter) OpenURL(url string) error {
	_, err := fmt.Fprintf(p.out, "Open this link to continue: %s\n", url)
	return err
}

func promptError(err error) error {
	if errors.Is(err, surveyterminal.InterruptErr) {
		return ErrPromptAborted
	}
	return err
}

// NonInteractive fails every prompt, for scripted sessions where pinned
// configuration must already answer everything.
type NonInteractive struct{}

// Select fails: scripted sessions cannot pick.
func (NonInteractive) Select(message string, options []string, defaultOption string) (string, error) {
	return "", ErrNonInteractive
}

// Confirm fails: scripted sessions cannot answer.
func (NonInteractive) Confirm(message string, defaultYes bool) (bool, error) {
	return false, ErrNonInteractive
}

// OpenURL writes the link to stdout.
func (NonInteractive) OpenURL(url string) error {
	_, err := fmt.Fprintf(os.Stdout, "%s\n", url)
	return err
}
