package output

import (
	"fmt"
)

// ConsoleReportWriter writes run reports as a table.
type ConsoleReportWriter struct{}

// Write outputs the run report to the console.
func (w *ConsoleReportWriter) Write(report *RunReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintln(out)
	WriteSummary(out, report.Jobs)

	total := fmt.Sprintf("%d job(s), %d commit(s), %d failed", len(report.Jobs), report.Commits(), report.Failed())
	if report.Failed() > 0 {
		colorError.Fprintln(out, total)
	} else {
		colorSuccess.Fprintln(out, total)
	}
	return nil
}
