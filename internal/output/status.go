package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	stdout io.Writer = color.Output
	stderr io.Writer = color.Error

	colorSuccess = color.New(color.FgGreen)
	colorInfo    = color.New(color.FgBlue)
	colorNotice  = color.New(color.FgCyan)
	colorError   = color.New(color.FgRed)
	colorStdout  = color.New(color.FgYellow)
)

// SetOutput redirects status output and returns a function restoring the
// previous writers.
func SetOutput(out, errOut io.Writer) (restore func()) {
	prevOut, prevErr := stdout, stderr
	stdout, stderr = out, errOut
	return func() {
		stdout, stderr = prevOut, prevErr
	}
}

// Println writes an uncolored status line.
func Println(format string, args ...interface{}) {
	fmt.Fprintf(stdout, format+"\n", args...)
}

// Success writes a green status line.
func Success(format string, args ...interface{}) {
	colorSuccess.Fprintf(stdout, format+"\n", args...)
}

// Info describes the step that is about to run.
func Info(format string, args ...interface{}) {
	colorInfo.Fprintf(stdout, format+"\n", args...)
}

// Notice writes a cyan line to stderr for conditions that are not errors.
func Notice(format string, args ...interface{}) {
	colorNotice.Fprintf(stderr, format+"\n", args...)
}

// Error writes a red line to stderr.
func Error(format string, args ...interface{}) {
	colorError.Fprintf(stderr, format+"\n", args...)
}

// ProcessStdout echoes one line of subprocess standard output.
func ProcessStdout(line string) {
	colorStdout.Fprintln(stdout, strings.TrimRight(line, "\r"))
}

// ProcessStderr echoes one line of subprocess standard error.
func ProcessStderr(line string) {
	colorError.Fprintln(stderr, strings.TrimRight(line, "\r"))
}
