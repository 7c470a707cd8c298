package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	skipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headStyle = lipgloss.NewStyle().Bold(true)
)

// ConsoleReporter renders one line per step and a score table at the end.
type ConsoleReporter struct {
	w io.Writer
}

// NewConsoleReporter writes to w.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{w: w}
}

// Step implements Reporter.
func (c *ConsoleReporter) Step(result StepResult) {
	switch {
	case result.Skipped:
		fmt.Fprintf(c.w, "  %s %s %s\n", skipStyle.Render("⊘"), result.StepID, skipStyle.Render(result.Message))
	case result.OK:
		fmt.Fprintf(c.w, "  %s %s (%d/%d) %v\n", passStyle.Render("✓"), result.StepID,
			result.PointsAwarded, result.PointsPossible, result.Duration.Round(timeRounding))
	default:
		fmt.Fprintf(c.w, "  %s %s [%s] %s\n", failStyle.Render("✗"), result.StepID,
			result.Code, result.Message)
		if result.DetailPath != "" {
			fmt.Fprintf(c.w, "      diff: %s\n", result.DetailPath)
		}
	}
}

// Summary implements Reporter.
func (c *ConsoleReporter) Summary(report RunReport) {
	fmt.Fprintf(c.w, "\n%s\n", headStyle.Render("Run "+report.RunID))
	for _, q := range report.QuestionTotals() {
		name := q.Question
		if name == "" {
			name = "(unassigned)"
		}
		fmt.Fprintf(c.w, "  %-12s %d/%d\n", name, q.Awarded, q.Possible)
	}
	fmt.Fprintf(c.w, "  %s %d/%d in %v\n", headStyle.Render("total"),
		report.PointsAwarded, report.PointsPossible, report.Duration.Round(timeRounding))
	if report.PumpFailures > 0 {
		fmt.Fprintf(c.w, "  %s %d output pump failure(s)\n", failStyle.Render("!"), report.PumpFailures)
	}
}
