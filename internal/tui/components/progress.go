package components

import (
	"fmt"
	"math"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

var countStyle = lipgloss.NewStyle().Bold(true)

// Progress renders completion across every plugin call of the run. Phases
// announce their plugins incrementally, so the total grows between frames.
type Progress struct {
	bar   progress.Model
	total int
}

// NewProgress creates the bar for the given plugin-call total.
func NewProgress(total int) Progress {
	bar := progress.New(progress.WithSolidFill("39"), progress.WithWidth(36))
	return Progress{bar: bar, total: total}
}

// View renders the bar followed by a completion count. A zero total renders
// an empty bar, which is what an operator sees before the first phase. The
// count is never clamped; the bar caps at full.
func (p Progress) View(completed int) string {
	ratio := 0.0
	if p.total > 0 {
		ratio = math.Min(1.0, float64(completed)/float64(p.total))
	}
	count := fmt.Sprintf("%d/%d plugins", completed, p.total)
	return lipgloss.JoinHorizontal(lipgloss.Left, p.bar.ViewAs(ratio), "  ", countStyle.Render(count))
}
