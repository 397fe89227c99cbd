package command

import (
	"context"
	"sync"

	"github.com/piforge/piforge/internal/ports"
)

// Call records one invocation seen by a FakeRunner.
type Call struct {
	Command string
	Args    []string
}

// FakeRunner is a scripted CommandRunner for tests.
// Responses are keyed by the full command line; unmatched commands
// succeed with empty output unless DefaultResult is set.
type FakeRunner struct {
	mu            sync.Mutex
	responses     map[string]ports.CommandResult
	errs          map[string]error
	calls         []Call
	DefaultResult ports.CommandResult
}

// NewFakeRunner creates an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		responses: make(map[string]ports.CommandResult),
		errs:      make(map[string]error),
	}
}

func key(command string, args []string) string {
	k := command
	for _, a := range args {
		k += " " + a
	}
	return k
}

// Stub registers a result for an exact command line.
func (f *FakeRunner) Stub(line string, result ports.CommandResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[line] = result
}

// StubError registers a hard error (command not found etc.) for a line.
func (f *FakeRunner) StubError(line string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[line] = err
}

// Run returns the scripted result and records the call.
func (f *FakeRunner) Run(_ context.Context, command string, args ...string) (ports.CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, Call{Command: command, Args: args})

	line := key(command, args)
	if err, ok := f.errs[line]; ok {
		return ports.CommandResult{ExitCode: -1}, err
	}
	if res, ok := f.responses[line]; ok {
		return res, nil
	}
	return f.DefaultResult, nil
}

// Calls returns a copy of all recorded invocations.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns the number of invocations whose line has the given prefix.
func (f *FakeRunner) CallCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		line := key(c.Command, c.Args)
		if len(line) >= len(prefix) && line[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

// Ensure FakeRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*FakeRunner)(nil)
