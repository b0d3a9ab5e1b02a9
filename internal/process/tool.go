package process

import (
	"fmt"
	"strings"

	shlex "github.com/anmitsu/go-shlex"
)

// Tool is an external program together with the exit codes it reports
// success with.
type Tool struct {
	Name string
	// Command is the executable, optionally followed by leading arguments
	// (e.g. "/opt/tee/tf -login:user,secret"). Empty means Name.
	Command string
	Success func(exitCode int) bool
}

// TfTool is the TFVC command-line client. Exit code 100 means "partial
// success" and is accepted.
func TfTool(command string) Tool {
	return Tool{
		Name:    "tf",
		Command: command,
		Success: func(code int) bool { return code == 0 || code == 100 },
	}
}

// RobocopyTool treats exit codes below 8 as success; they are bit flags
// describing what was copied.
func RobocopyTool(command string) Tool {
	return Tool{
		Name:    "robocopy",
		Command: command,
		Success: func(code int) bool { return code < 8 },
	}
}

// GitTool is the git executable.
func GitTool(command string) Tool {
	return Tool{
		Name:    "git",
		Command: command,
		Success: func(code int) bool { return code == 0 },
	}
}

func (t Tool) succeeded(code int) bool {
	if t.Success == nil {
		return code == 0
	}
	return t.Success(code)
}

// argv returns the full argument vector for one invocation.
func (t Tool) argv(args []string) ([]string, error) {
	command := strings.TrimSpace(t.Command)
	if command == "" {
		command = t.Name
	}
	words, err := shlex.Split(command, true)
	if err != nil {
		return nil, fmt.Errorf("preparing %q for execution: %w", command, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("no executable configured for %s", t.Name)
	}
	return append(words, args...), nil
}
