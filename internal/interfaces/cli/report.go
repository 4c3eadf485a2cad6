package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"springresolver.dev/cli/internal/application/services"
	"springresolver.dev/cli/internal/core/analysis"
)

var (
	warningPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("220")).
				Padding(0, 1)

	issuePanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().Bold(true)

	bulletStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))

	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	severityColors = map[analysis.Severity]lipgloss.Color{
		analysis.SeverityCritical: lipgloss.Color("196"),
		analysis.SeverityError:    lipgloss.Color("196"),
		analysis.SeverityHigh:     lipgloss.Color("202"),
		analysis.SeverityMedium:   lipgloss.Color("220"),
		analysis.SeverityWarning:  lipgloss.Color("220"),
		analysis.SeverityLow:      lipgloss.Color("75"),
		analysis.SeverityInfo:     lipgloss.Color("75"),
	}
)

// renderReport prints accumulated warnings (grouped by category), analyzer
// issues, and the success line to stderr.
func renderReport(w io.Writer, result *services.Result, issues []analysis.Issue, outputPath string) {
	if len(result.Warnings) > 0 {
		var lines []string
		categories, grouped := result.WarningsByCategory()
		for _, category := range categories {
			lines = append(lines, categoryStyle.Render(string(category)))
			for _, message := range grouped[category] {
				lines = append(lines, fmt.Sprintf("%s %s", bulletStyle.Render("•"), message))
			}
		}
		panel := warningPanelStyle.Render(panelTitleStyle.Render("Warnings") + "\n" + strings.Join(lines, "\n"))
		fmt.Fprintln(w, panel)
	}

	if len(issues) > 0 {
		var lines []string
		for _, issue := range issues {
			color, ok := severityColors[issue.Severity]
			if !ok {
				color = lipgloss.Color("252")
			}
			marker := lipgloss.NewStyle().Foreground(color).Render("•")
			lines = append(lines, fmt.Sprintf("%s [%s] %s: %s", marker, strings.ToUpper(string(issue.Severity)), issue.PropertyPath, issue.Message))
			if issue.Recommendation != "" {
				lines = append(lines, categoryStyle.Render("  → "+issue.Recommendation))
			}
		}
		panel := issuePanelStyle.Render(panelTitleStyle.Render("Analysis") + "\n" + strings.Join(lines, "\n"))
		fmt.Fprintln(w, panel)
	}

	if outputPath != "" {
		fmt.Fprintf(w, "%s Configuration written to %s (profiles: %s)\n",
			successStyle.Render("✓"), outputPath, strings.Join(result.ActiveProfiles, ", "))
	}
}
