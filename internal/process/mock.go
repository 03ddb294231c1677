package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MockLauncher is a Launcher for tests. It answers commands with canned
// output instead of starting processes and records every launch.
type MockLauncher struct {
	mu           sync.Mutex
	Expectations map[string]MockResponse
	Calls        []Command
}

// MockResponse is what a mocked command prints and how it ends. A non-nil
// SpawnErr makes Launch fail as if the program did not exist; a non-nil
// TerminateErr makes Terminate fail after the output was read.
type MockResponse struct {
	Stdout       string
	Stderr       string
	ExitCode     int
	SpawnErr     error
	TerminateErr error
	// Effect, if set, is called on every launch of the command. Tests use
	// it to change other expectations, e.g. make brew appear after install.
	Effect func()
}

func NewMockLauncher() *MockLauncher {
	return &MockLauncher{
		Expectations: make(map[string]MockResponse),
	}
}

var _ Launcher = (*MockLauncher)(nil)

// OnLaunch registers the response for the command whose String() is cmd.
func (m *MockLauncher) OnLaunch(cmd string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Expectations[cmd] = resp
}

func (m *MockLauncher) Launch(ctx context.Context, cmd Command) (Handle, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, cmd)
	resp, ok := m.Expectations[cmd.String()]
	m.mu.Unlock()

	if ok && resp.Effect != nil {
		resp.Effect()
	}
	if !ok {
		return nil, &SpawnError{Command: cmd.String(), Err: fmt.Errorf("mock: command not mocked")}
	}
	if resp.SpawnErr != nil {
		return nil, &SpawnError{Command: cmd.String(), Err: resp.SpawnErr}
	}
	return &mockHandle{
		stdout: strings.NewReader(resp.Stdout),
		stderr: strings.NewReader(resp.Stderr),
		code:   resp.ExitCode,
		err:    resp.TerminateErr,
		line:   cmd.String(),
	}, nil
}

// Launched returns the String() of every launched command, in order.
func (m *MockLauncher) Launched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Calls))
	for _, c := range m.Calls {
		out = append(out, c.String())
	}
	return out
}

// AssertCalled reports whether any launched command contains fragment.
func (m *MockLauncher) AssertCalled(fragment string) bool {
	for _, c := range m.Launched() {
		if strings.Contains(c, fragment) {
			return true
		}
	}
	return false
}

type mockHandle struct {
	stdout io.Reader
	stderr io.Reader
	code   int
	err    error
	line   string
	done   bool
}

func (h *mockHandle) Stdout() io.Reader { return h.stdout }
func (h *mockHandle) Stderr() io.Reader { return h.stderr }

func (h *mockHandle) Terminate() (int, error) {
	if h.done {
		return h.code, errors.New("mock: terminated twice")
	}
	h.done = true
	if h.err != nil {
		return -1, &TerminationError{Command: h.line, Err: h.err}
	}
	return h.code, nil
}
