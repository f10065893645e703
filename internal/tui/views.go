package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/sunwise/internal/cli"
	"github.com/Veraticus/sunwise/internal/model"
	"github.com/charmbracelet/lipgloss"
)

var (
	cursorStyle = lipgloss.NewStyle().
			Foreground(cli.PrimaryColor).
			Bold(true)

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true)

	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(cli.SubtleColor).
			PaddingLeft(1)
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	title := cli.SunIcon + " Review matches"
	if m.source != "" {
		title += " · " + m.source
	}
	b.WriteString(cli.FormatTitle(title))
	b.WriteString("\n\n")

	if len(m.hits) == 0 {
		b.WriteString(cli.SubtleStyle.Render("No catalog products found in this document."))
		b.WriteString("\n\n")
		b.WriteString(m.help.View(m.keys))
		return b.String()
	}

	for i, hit := range m.hits {
		b.WriteString(m.renderRow(i, hit))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderDetail(m.hits[m.cursor]))
	b.WriteString("\n")

	if m.state == StateCorrect {
		b.WriteString("\n")
		b.WriteString(cli.BoldStyle.Render("Which product was actually quoted?"))
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		if m.statusErr {
			b.WriteString(cli.WarningStyle.Render(m.status))
		} else {
			b.WriteString(cli.SuccessStyle.Render(m.status))
		}
		b.WriteString("\n")
	}

	s := m.Summary()
	b.WriteString("\n")
	b.WriteString(cli.SubtleStyle.Render(fmt.Sprintf("%d confirmed · %d corrected · %d to review",
		s.Confirmed, s.Corrected, s.Skipped)))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderRow(i int, hit model.MatchHit) string {
	pointer := "  "
	if i == m.cursor {
		pointer = cursorStyle.Render("> ")
	}

	mark := " "
	d := m.decisions[i]
	switch {
	case d.pending:
		mark = "…"
	case d.kind == model.FeedbackConfirm:
		mark = cli.SuccessStyle.Render(cli.SuccessIcon)
	case d.kind == model.FeedbackCorrect:
		mark = cli.ErrorStyle.Render(cli.ErrorIcon)
	}

	auto := " "
	if m.learner != nil && hit.Score >= m.learner.AutoAcceptThreshold(hit.Product.Brand) {
		auto = "*"
	}

	row := fmt.Sprintf("%s %-30s %5.2f%s  %s", mark, hit.Product.DisplayName(), hit.Score, auto, hit.Raw)
	if i == m.cursor {
		row = selectedRowStyle.Render(row)
	}
	return pointer + row
}

func (m Model) renderDetail(hit model.MatchHit) string {
	lines := []string{
		fmt.Sprintf("%s  %s", hit.ProductID, cli.SubtleStyle.Render(string(hit.Product.Type))),
		fmt.Sprintf("matched %q at offset %d", hit.Raw, hit.At),
		"evidence: " + cli.DescribeEvidence(hit.Evidence),
	}
	if m.learner != nil {
		lines = append(lines, fmt.Sprintf("auto-accept threshold for %s: %.2f",
			hit.Product.Brand, m.learner.AutoAcceptThreshold(hit.Product.Brand)))
	}
	if d := m.decisions[m.cursor]; d.kind == model.FeedbackCorrect {
		lines = append(lines, "corrected to "+d.trueProduct)
	}
	return detailStyle.Render(strings.Join(lines, "\n"))
}
