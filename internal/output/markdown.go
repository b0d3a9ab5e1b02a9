package output

import (
	"fmt"
	"strings"
)

// MarkdownReportWriter writes run reports as Markdown.
type MarkdownReportWriter struct{}

// Write outputs the run report as Markdown.
func (w *MarkdownReportWriter) Write(report *RunReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintln(out, "# TFVC Migration Results")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "**Collection:** %s\n\n", report.Collection)
	fmt.Fprintf(out, "**Generated:** %s\n\n", formatTime(report.GeneratedAt))
	fmt.Fprintf(out, "**Jobs:** %d (%d failed)\n\n", len(report.Jobs), report.Failed())

	fmt.Fprintln(out, "| Branch | Repository | Commits | Empty | Tag | Status |")
	fmt.Fprintln(out, "|--------|------------|---------|-------|-----|--------|")
	for _, job := range report.Jobs {
		tag := ""
		if job.Tag != "" {
			tag = "`" + job.Tag + "`"
		}
		fmt.Fprintf(out, "| `%s` | `%s` | %d | %d | %s | %s %s |\n",
			job.ServerPath, job.Repository, job.Commits, job.Empty, tag,
			getStatusEmoji(job.Status()), job.Status())
	}

	var failures []JobReport
	for _, job := range report.Jobs {
		if !job.Succeeded() {
			failures = append(failures, job)
		}
	}
	if len(failures) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "## Failures")
		fmt.Fprintln(out)
		for _, job := range failures {
			fmt.Fprintf(out, "- **%s**: %s\n", escapeMarkdown(job.ServerPath), escapeMarkdown(errorText(job.Err)))
		}
	}

	return nil
}

func getStatusEmoji(status string) string {
	if status == "completed" {
		return "\U0001F7E2"
	}
	return "\U0001F534"
}

// escapeMarkdown escapes special Markdown characters in a string.
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"|", "\\|",
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
	)
	return replacer.Replace(s)
}
