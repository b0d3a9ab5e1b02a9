package output

import (
	"io"
	"os"
	"time"
)

const reportDateTimeLayout = "2006-01-02T15:04:05"

// openOutputWriter returns the status writer for an empty path, otherwise a
// newly created file the caller must close.
func openOutputWriter(outputPath string) (io.Writer, *os.File, error) {
	if outputPath == "" {
		return stdout, nil, nil
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, err
	}
	return file, file, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(reportDateTimeLayout)
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
