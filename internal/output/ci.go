package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// CIReportWriter writes run reports as NDJSON (one JSON object per line) for CI pipelines.
type CIReportWriter struct{}

// CISummary is the first line of CI output, containing aggregate statistics.
type CISummary struct {
	Type       string `json:"type"`
	Collection string `json:"collection"`
	TotalJobs  int    `json:"totalJobs"`
	FailedJobs int    `json:"failedJobs"`
	Commits    int    `json:"commits"`
}

// CIJobEntry represents a single job in CI output.
type CIJobEntry struct {
	Type string `json:"type"`
	JSONJob
}

// Write outputs the run report as NDJSON.
func (w *CIReportWriter) Write(report *RunReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	summary := CISummary{
		Type:       "summary",
		Collection: report.Collection,
		TotalJobs:  len(report.Jobs),
		FailedJobs: report.Failed(),
		Commits:    report.Commits(),
	}
	if err := writeNDJSONLine(out, summary); err != nil {
		return err
	}

	for _, job := range report.Jobs {
		if err := writeNDJSONLine(out, CIJobEntry{Type: "job", JSONJob: toJSONJob(job)}); err != nil {
			return err
		}
	}

	return nil
}

func writeNDJSONLine(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal NDJSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
