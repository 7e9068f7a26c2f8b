package components

import (
	"fmt"
	"strings"
)

// Failure identifies one plugin that did not complete its phase.
type Failure struct {
	Plugin  string
	Message string
}

// SummaryData aggregates run counts for rendering summaries.
type SummaryData struct {
	Total     int
	Completed int
	Finished  bool
	Cancelled bool
	Failures  []Failure
}

// Summary renders a textual run summary.
type Summary struct {
	data SummaryData
}

// NewSummary creates a new Summary component.
func NewSummary(data SummaryData) Summary {
	return Summary{data: data}
}

// View renders the summary.
func (s Summary) View() string {
	var lines []string
	if s.data.Total > 0 {
		lines = append(lines, fmt.Sprintf("Plugins: %d/%d completed", s.data.Completed, s.data.Total))
	}

	switch {
	case s.data.Cancelled:
		lines = append(lines, "Run cancelled")
	case s.data.Finished && len(s.data.Failures) == 0 && s.data.Total > 0:
		lines = append(lines, "Run finished successfully")
	case s.data.Finished && len(s.data.Failures) > 0:
		lines = append(lines, fmt.Sprintf("Run finished with %d failure(s)", len(s.data.Failures)))
	}

	if len(s.data.Failures) > 0 {
		lines = append(lines, "Failures:")
		for _, f := range s.data.Failures {
			line := fmt.Sprintf("  ✗ %s", f.Plugin)
			if strings.TrimSpace(f.Message) != "" {
				line = fmt.Sprintf("%s — %s", line, f.Message)
			}
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n")
}
