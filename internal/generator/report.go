package generator

import (
	"fmt"
	"strings"

	"github.com/richhaase/repowiki/internal/terminal"
)

// RenderSummary renders a terminal summary of a batch.
func RenderSummary(b BatchResult) string {
	width := terminal.ReportWidth()

	var lines []string
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("%s%s%s summary%s %s(%s)%s",
		terminal.Color(terminal.Cyan), terminal.Color(terminal.Bold), titleCase(string(b.Operation)), terminal.Color(terminal.Reset),
		terminal.Color(terminal.Dim), shortID(b.BatchID), terminal.Color(terminal.Reset)))
	lines = append(lines, terminal.Ruler(width, "━"))

	lines = append(lines, fmt.Sprintf("  %s✓%s Succeeded: %d", terminal.Color(terminal.Green), terminal.Color(terminal.Reset), b.Success))
	failColor := terminal.Dim
	if b.Failed > 0 {
		failColor = terminal.Red
	}
	lines = append(lines, fmt.Sprintf("  %s✗%s Failed:    %d", terminal.Color(failColor), terminal.Color(terminal.Reset), b.Failed))
	lines = append(lines, fmt.Sprintf("  %s-%s Skipped:   %d", terminal.Color(terminal.Dim), terminal.Color(terminal.Reset), b.Skipped))
	lines = append(lines, fmt.Sprintf("  %s⏱%s Duration:  %s", terminal.Color(terminal.Dim), terminal.Color(terminal.Reset), terminal.FormatDuration(b.Duration)))

	if len(b.Errors) > 0 {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("%s⚠ %d %s%s", terminal.Color(terminal.Yellow), len(b.Errors), terminal.Plural(len(b.Errors), "error"), terminal.Color(terminal.Reset)))
		lines = append(lines, terminal.Ruler(width, "─"))
		for _, e := range b.Errors {
			lines = append(lines, fmt.Sprintf("  %s•%s %s", terminal.Color(terminal.Yellow), terminal.Color(terminal.Reset), e))
		}
	}

	lines = append(lines, terminal.Ruler(width, "━"))
	return strings.Join(lines, "\n")
}

func titleCase(s string) string {
	if s == "" {
		return "Batch"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
