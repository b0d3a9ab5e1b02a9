package process

import (
	"context"
	"strings"
	"sync"
)

// Call records one invocation seen by MockRunner.
type Call struct {
	Tool string
	Args []string
	Opts RunOptions
}

// CommandLine joins the arguments with spaces, for assertions.
func (c Call) CommandLine() string {
	return strings.Join(c.Args, " ")
}

// MockRunner is a test double for Executor.
// Handler, when set, decides the outcome of each call; otherwise every call
// succeeds with empty output.
type MockRunner struct {
	mu      sync.Mutex
	Calls   []Call
	Handler func(call Call) (*Result, error)
}

// NewMockRunner creates a MockRunner with the given handler.
func NewMockRunner(handler func(call Call) (*Result, error)) *MockRunner {
	return &MockRunner{Handler: handler}
}

// Run records the call and delegates to Handler.
func (m *MockRunner) Run(_ context.Context, tool Tool, args []string, opts RunOptions) (*Result, error) {
	call := Call{Tool: tool.Name, Args: append([]string(nil), args...), Opts: opts}

	m.mu.Lock()
	m.Calls = append(m.Calls, call)
	handler := m.Handler
	m.mu.Unlock()

	if handler == nil {
		return &Result{}, nil
	}
	return handler(call)
}

// CallsTo returns the recorded calls whose first argument is verb.
func (m *MockRunner) CallsTo(verb string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()

	var calls []Call
	for _, c := range m.Calls {
		if len(c.Args) > 0 && c.Args[0] == verb {
			calls = append(calls, c)
		}
	}
	return calls
}

// Compile-time interface conformance check.
var _ Runner = (*MockRunner)(nil)
