package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/aretw0/portico/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsTerminal reports whether f is attached to an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ReportMarkdown formats a validation report as markdown.
func ReportMarkdown(report *domain.ValidationReport) string {
	var sb strings.Builder
	sb.WriteString("# Portal Validation\n\n")

	if report.Clean {
		fmt.Fprintf(&sb, "✅ %d partitions checked, no issues found.\n", report.Visited)
		return sb.String()
	}

	fmt.Fprintf(&sb, "%d partitions checked, **%d issues** in %d partitions",
		report.Visited, report.IssueCount(), len(report.Partitions))
	if len(report.Failures) > 0 {
		fmt.Fprintf(&sb, ", **%d failed**", len(report.Failures))
	}
	sb.WriteString(".\n")

	for _, pr := range report.Partitions {
		fmt.Fprintf(&sb, "\n## %s\n\n", pr.Partition)
		sb.WriteString(pr.Message())
		sb.WriteString("\n")
	}

	if len(report.Failures) > 0 {
		sb.WriteString("\n## Failures\n\n")
		for _, f := range report.Failures {
			fmt.Fprintf(&sb, "- `%s`: %s\n", f.Partition, f.Error)
		}
	}
	return sb.String()
}

// RenderReport renders a validation report for a terminal. When the output
// is not interactive the plain markdown is returned.
func RenderReport(report *domain.ValidationReport, interactive bool) string {
	md := ReportMarkdown(report)
	if !interactive {
		return md
	}
	out, err := NewRenderer()(md)
	if err != nil {
		return md
	}
	return out
}
