package mirror

import (
	"context"
	"fmt"

	"github.com/masmgr/tfs2git/internal/process"
)

// Robocopy mirrors directory trees with robocopy /MIR.
type Robocopy struct {
	runner process.Runner
	tool   process.Tool
}

// NewRobocopy creates a mirror that shells out to robocopy.
func NewRobocopy(runner process.Runner, tool process.Tool) *Robocopy {
	return &Robocopy{runner: runner, tool: tool}
}

// Mirror runs robocopy /MIR src dst /XD exclude...
func (r *Robocopy) Mirror(ctx context.Context, src, dst string, exclude []string) error {
	args := []string{"/MIR", src, dst}
	if len(exclude) > 0 {
		args = append(args, "/XD")
		args = append(args, exclude...)
	}
	if _, err := r.runner.Run(ctx, r.tool, args, process.RunOptions{}); err != nil {
		return fmt.Errorf("mirror %s to %s: %w", src, dst, err)
	}
	return nil
}

// Compile-time interface conformance check.
var _ Mirrorer = (*Robocopy)(nil)
