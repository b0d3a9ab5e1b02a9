package cmd

import (
	"time"

	"github.com/masmgr/tfs2git/internal/output"
)

func writeReport(collection string, reports []output.JobReport, opts output.OutputOptions) error {
	report := &output.RunReport{
		Collection:  collection,
		GeneratedAt: time.Now(),
		Jobs:        reports,
	}
	writer := output.NewReportWriter(opts.Format)
	return writer.Write(report, opts)
}
