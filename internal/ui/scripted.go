package ui

import "fmt"

// ScriptedInteractor answers prompts from pre-queued responses and records
// every prompt it saw. Tests in other packages drive consent and picker
// flows through it.
type ScriptedInteractor struct {
	// Selections are consumed in order by Select.
	Selections []string
	// Confirms are consumed in order by Confirm.
	Confirms []bool

	// SelectErr, ConfirmErr and OpenErr inject failures.
	SelectErr  error
	ConfirmErr error
	OpenErr    error

	// Recorded prompts, in order.
	SelectPrompts  []string
	SelectOptions  [][]string
	SelectDefaults []string
	ConfirmPrompts []string
	OpenedURLs     []string
}

// Select pops the next queued selection.
func (s *ScriptedInteractor) Select(message string, options []string, defaultOption string) (string, error) {
	s.SelectPrompts = append(s.SelectPrompts, message)
	s.SelectOptions = append(s.SelectOptions, options)
	s.SelectDefaults = append(s.SelectDefaults, defaultOption)
	if s.SelectErr != nil {
		return "", s.SelectErr
	}
	if len(s.Selections) == 0 {
		return "", fmt.Errorf("no scripted answer for select %q", message)
	}
	choice := s.Selections[0]
	s.Selections = s.Selections[1:]
	return choice, nil
}

// Confirm pops the next queued answer.
func (s *ScriptedInteractor) Confirm(message string, defaultYes bool) (bool, error) {
	s.ConfirmPrompts = append(s.ConfirmPrompts, message)
	if s.ConfirmErr != nil {
		return false, s.ConfirmErr
	}
	if len(s.Confirms) == 0 {
		return false, fmt.Errorf("no scripted answer for confirm %q", message)
	}
	answer := s.Confirms[0]
	s.Confirms = s.Confirms[1:]
	return answer, nil
}

// OpenURL records the link.
func (s *ScriptedInteractor) OpenURL(url string) error {
	s.OpenedURLs = append(s.OpenedURLs, url)
	return s.OpenErr
}
