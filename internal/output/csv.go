package output

import (
	"encoding/csv"
	"fmt"
	"os"
)

// CSVReportWriter writes run reports as CSV, one row per job.
type CSVReportWriter struct{}

// Write outputs the run report as CSV.
func (w *CSVReportWriter) Write(report *RunReport, options OutputOptions) error {
	writer, file, err := createCSVWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	headers := []string{"Branch", "Repository", "Commits", "EmptyCommits", "Tag", "Status", "Error",
		"Started", "Finished", "DurationSeconds"}
	if err := writer.Write(headers); err != nil {
		return err
	}

	for _, job := range report.Jobs {
		row := []string{
			job.ServerPath,
			job.Repository,
			fmt.Sprintf("%d", job.Commits),
			fmt.Sprintf("%d", job.Empty),
			job.Tag,
			job.Status(),
			errorText(job.Err),
			formatTime(job.Started),
			formatTime(job.Finished),
			fmt.Sprintf("%.3f", job.Duration().Seconds()),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func createCSVWriter(outputPath string) (*csv.Writer, *os.File, error) {
	out, file, err := openOutputWriter(outputPath)
	if err != nil {
		return nil, nil, err
	}
	return csv.NewWriter(out), file, nil
}
