package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	shellquote "github.com/kballard/go-shellquote"
	apperrors "github.com/masmgr/tfs2git/internal/errors"
	"github.com/masmgr/tfs2git/internal/output"
	"golang.org/x/text/encoding"
)

// DefaultTimeout bounds every subprocess invocation.
const DefaultTimeout = 7 * time.Minute

// Runner runs external tools.
type Runner interface {
	Run(ctx context.Context, tool Tool, args []string, opts RunOptions) (*Result, error)
}

// RunOptions configures a single invocation.
type RunOptions struct {
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env is appended to the inherited environment.
	Env []string
}

// Result holds the captured output of a finished process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Executor runs tools as subprocesses, echoing their output line by line.
type Executor struct {
	Timeout time.Duration
	// Echo controls whether output lines are written to the console.
	Echo bool
	// Encoding decodes output written in a legacy code page. Nil means UTF-8.
	Encoding encoding.Encoding
}

// NewExecutor creates an executor with the given timeout (DefaultTimeout if
// zero) that echoes subprocess output.
func NewExecutor(timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Executor{Timeout: timeout, Echo: true}
}

// Run executes tool with args and blocks until it exits, its output streams are
// drained, or the timeout elapses.
func (e *Executor) Run(ctx context.Context, tool Tool, args []string, opts RunOptions) (*Result, error) {
	argv, err := tool.argv(args)
	if err != nil {
		return nil, err
	}
	cmdline := shellquote.Join(argv...)

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}
	// Output streams may outlive the process by up to the same timeout.
	cmd.WaitDelay = timeout

	stdout := &lineWriter{decode: decoderFor(e.Encoding)}
	stderr := &lineWriter{decode: decoderFor(e.Encoding), detect: IsServicesUnavailable}
	if e.Echo {
		stdout.echo = output.ProcessStdout
		stderr.echo = output.ProcessStderr
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	runErr := cmd.Run()
	stdout.Flush()
	stderr.Flush()

	result := &Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if ctx.Err() != nil {
		return result, fmt.Errorf("%s: %w", cmdline, ctx.Err())
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) || errors.Is(runErr, exec.ErrWaitDelay) {
		return result, apperrors.NewProcessHungError(cmdline)
	}

	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		return result, fmt.Errorf("failed to start %s: %w", cmdline, runErr)
	}

	if !tool.succeeded(result.ExitCode) {
		return result, apperrors.NewProcessFailedError(result.ExitCode, cmdline, runErr)
	}
	if stderr.Detected() {
		return result, apperrors.NewServicesUnavailableError(cmdline)
	}

	return result, nil
}

// lineWriter splits a byte stream into lines, echoing and capturing each one.
// exec.Cmd feeds it from its own copying goroutine.
type lineWriter struct {
	mu       sync.Mutex
	partial  bytes.Buffer
	captured strings.Builder
	decode   func(line string) string
	echo     func(line string)
	detect   func(line string) bool
	detected bool
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.partial.Write(p)
	for {
		idx := bytes.IndexByte(w.partial.Bytes(), '\n')
		if idx == -1 {
			break
		}
		line := string(w.partial.Next(idx + 1))
		w.emit(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

// Flush emits a trailing line that was not newline-terminated.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.partial.Len() > 0 {
		w.emit(strings.TrimRight(w.partial.String(), "\r"))
		w.partial.Reset()
	}
}

func (w *lineWriter) emit(line string) {
	if w.decode != nil {
		line = w.decode(line)
	}
	w.captured.WriteString(line)
	w.captured.WriteByte('\n')
	if w.detect != nil && w.detect(line) {
		w.detected = true
	}
	if w.echo != nil {
		w.echo(line)
	}
}

func (w *lineWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.captured.String()
}

func (w *lineWriter) Detected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.detected
}

// Compile-time interface conformance check.
var _ Runner = (*Executor)(nil)
