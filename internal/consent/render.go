package consent

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	noticeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	factStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	costStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).MarginTop(1)
)

// Render formats the summary for terminal display: the facts in their fixed
// order, the resource group creation note when one will be created, and the
// cost notice last.
func Render(s Summary) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Provision preview for environment %q", s.EnvName)))
	b.WriteString("\n")

	for i, fact := range s.Sentences() {
		style := factStyle
		if i == 0 && (s.SwitchedTenant || s.SwitchedSubscription) {
			style = noticeStyle
		}
		b.WriteString(style.Render("  " + fact))
		b.WriteString("\n")
	}

	if s.NewResourceGroup != "" {
		b.WriteString(factStyle.Render(fmt.Sprintf("  A new resource group %q will be created.", s.NewResourceGroup)))
		b.WriteString("\n")
	}

	b.WriteString(costStyle.Render(CostNotice))
	return b.String()
}
