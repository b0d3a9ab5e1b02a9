package output

import (
	"encoding/json"
	"fmt"
	"os"
)

// JSONReportWriter writes run reports as JSON.
type JSONReportWriter struct{}

// JSONRunReport is the JSON output structure for a run.
type JSONRunReport struct {
	Collection  string    `json:"collection"`
	GeneratedAt string    `json:"generatedAt"`
	TotalJobs   int       `json:"totalJobs"`
	FailedJobs  int       `json:"failedJobs"`
	Jobs        []JSONJob `json:"jobs"`
}

// JSONJob is the JSON output structure for a single job.
type JSONJob struct {
	Branch          string  `json:"branch"`
	Repository      string  `json:"repository"`
	Commits         int     `json:"commits"`
	EmptyCommits    int     `json:"emptyCommits"`
	Tag             string  `json:"tag,omitempty"`
	Status          string  `json:"status"`
	Error           string  `json:"error,omitempty"`
	Started         string  `json:"started,omitempty"`
	Finished        string  `json:"finished,omitempty"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// Write outputs the run report as JSON.
func (w *JSONReportWriter) Write(report *RunReport, options OutputOptions) error {
	jobs := make([]JSONJob, len(report.Jobs))
	for i, job := range report.Jobs {
		jobs[i] = toJSONJob(job)
	}

	return writeJSON(JSONRunReport{
		Collection:  report.Collection,
		GeneratedAt: formatTime(report.GeneratedAt),
		TotalJobs:   len(report.Jobs),
		FailedJobs:  report.Failed(),
		Jobs:        jobs,
	}, options.OutputPath)
}

func toJSONJob(job JobReport) JSONJob {
	return JSONJob{
		Branch:          job.ServerPath,
		Repository:      job.Repository,
		Commits:         job.Commits,
		EmptyCommits:    job.Empty,
		Tag:             job.Tag,
		Status:          job.Status(),
		Error:           errorText(job.Err),
		Started:         formatTime(job.Started),
		Finished:        formatTime(job.Finished),
		DurationSeconds: job.Duration().Seconds(),
	}
}

func writeJSON(data interface{}, outputPath string) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if outputPath == "" {
		_, err = fmt.Fprintln(stdout, string(jsonData))
		return err
	}
	return os.WriteFile(outputPath, append(jsonData, '\n'), 0644)
}
