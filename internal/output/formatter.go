package output

import (
	"fmt"
	"strings"
	"time"
)

// Compile-time interface conformance checks.
var (
	_ ReportWriter = (*ConsoleReportWriter)(nil)
	_ ReportWriter = (*JSONReportWriter)(nil)
	_ ReportWriter = (*CSVReportWriter)(nil)
	_ ReportWriter = (*MarkdownReportWriter)(nil)
	_ ReportWriter = (*CIReportWriter)(nil)
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	FormatConsole  OutputFormat = "console"
	FormatJSON     OutputFormat = "json"
	FormatCSV      OutputFormat = "csv"
	FormatMarkdown OutputFormat = "markdown"
	FormatCI       OutputFormat = "ci"
)

// ParseFormat parses a format name. The empty string selects FormatConsole.
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "console":
		return FormatConsole, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "ci", "ndjson":
		return FormatCI, nil
	default:
		return "", fmt.Errorf("unknown output format %q (console, json, csv, markdown, ci)", s)
	}
}

// OutputOptions controls output behavior.
type OutputOptions struct {
	Format     OutputFormat
	OutputPath string
}

// RunReport holds the outcome of one invocation.
type RunReport struct {
	Collection  string
	GeneratedAt time.Time
	Jobs        []JobReport
}

// Failed counts the jobs that did not complete.
func (r *RunReport) Failed() int {
	n := 0
	for _, job := range r.Jobs {
		if !job.Succeeded() {
			n++
		}
	}
	return n
}

// Commits totals the commits created across all jobs.
func (r *RunReport) Commits() int {
	n := 0
	for _, job := range r.Jobs {
		n += job.Commits
	}
	return n
}

// ReportWriter writes run reports.
type ReportWriter interface {
	Write(report *RunReport, options OutputOptions) error
}

// NewReportWriter creates a report writer for the specified format.
func NewReportWriter(format OutputFormat) ReportWriter {
	switch format {
	case FormatJSON:
		return &JSONReportWriter{}
	case FormatCSV:
		return &CSVReportWriter{}
	case FormatMarkdown:
		return &MarkdownReportWriter{}
	case FormatCI:
		return &CIReportWriter{}
	default:
		return &ConsoleReportWriter{}
	}
}
