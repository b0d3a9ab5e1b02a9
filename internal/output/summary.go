package output

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

// JobReport is the outcome of migrating one branch into one repository.
type JobReport struct {
	ServerPath string
	Repository string
	Commits    int
	Empty      int
	Tag        string
	Started    time.Time
	Finished   time.Time
	Err        error
}

// Succeeded reports whether the job completed and was tagged.
func (r JobReport) Succeeded() bool {
	return r.Err == nil
}

// Duration is the wall time the job took.
func (r JobReport) Duration() time.Duration {
	if r.Started.IsZero() || r.Finished.Before(r.Started) {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// Status is "completed" or "failed".
func (r JobReport) Status() string {
	if r.Succeeded() {
		return "completed"
	}
	return "failed"
}

// WriteSummary renders one table row per job.
func WriteSummary(w io.Writer, reports []JobReport) {
	if len(reports) == 0 {
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Branch", "Repository", "Commits", "Empty", "Tag", "Status"})
	table.SetAutoWrapText(false)

	for _, r := range reports {
		status := "completed"
		if r.Err != nil {
			status = fmt.Sprintf("failed: %v", r.Err)
		}
		table.Append([]string{
			r.ServerPath,
			r.Repository,
			strconv.Itoa(r.Commits),
			strconv.Itoa(r.Empty),
			r.Tag,
			status,
		})
	}

	table.Render()
}
