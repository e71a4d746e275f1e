package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/baseguide/baseguide/internal/service"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 2)
)

// Summary renders a styled post-run summary of a pipeline result.
func Summary(result *service.Result) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Base: %s", result.Analysis.BaseName)))
	b.WriteString("\n\n")

	rows := []struct {
		label string
		value string
	}{
		{"Tables", fmt.Sprintf("%d", result.Metrics.TableCount)},
		{"Fields", fmt.Sprintf("%d", result.Metrics.FieldCount)},
		{"Relationships", fmt.Sprintf("%d", result.Metrics.RelationshipCount)},
		{"Complexity", fmt.Sprintf("%s (score %d)", result.Metrics.ComplexityLabel, result.Metrics.RoundedScore())},
		{"Creation order", strings.Join(result.Analysis.CreationOrder, " -> ")},
		{"Report", result.ReportPath},
	}
	for _, row := range rows {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-15s", row.label)))
		b.WriteString(valueStyle.Render(row.value))
		b.WriteString("\n")
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}
