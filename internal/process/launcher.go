package process

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
)

// Launcher starts a Command with both output channels captured.
type Launcher interface {
	Launch(ctx context.Context, cmd Command) (Handle, error)
}

// Handle is a running child owned by exactly one caller at a time.
//
// Stdout and Stderr must never return nil for a handle produced by a
// Launcher. Terminate forcibly stops the child, reaps it and reports its exit
// code (-1 when it did not exit on its own). Terminating a child that already
// exited is not an error.
type Handle interface {
	Stdout() io.Reader
	Stderr() io.Reader
	Terminate() (int, error)
}

// LocalLauncher runs commands on this machine through os/exec.
type LocalLauncher struct{}

var _ Launcher = (*LocalLauncher)(nil)

// Launch starts cmd with its stdout and stderr redirected into pipes. The
// program is resolved through PATH unless it contains a path separator.
// Cancelling ctx kills the child.
func (l *LocalLauncher) Launch(ctx context.Context, cmd Command) (Handle, error) {
	c := exec.CommandContext(ctx, cmd.name, cmd.args...)
	c.Dir = cmd.dir
	if len(cmd.env) > 0 {
		c.Env = append(os.Environ(), cmd.env...)
	}

	stdout, err := c.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{Command: cmd.String(), Err: err}
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		stdout.Close()
		return nil, &SpawnError{Command: cmd.String(), Err: err}
	}

	if err := c.Start(); err != nil {
		return nil, &SpawnError{Command: cmd.String(), Err: err}
	}

	return &localHandle{
		cmd:    c,
		name:   cmd.String(),
		stdout: stdout,
		stderr: stderr,
	}, nil
}

type localHandle struct {
	cmd    *exec.Cmd
	name   string
	stdout io.ReadCloser
	stderr io.ReadCloser
}

func (h *localHandle) Stdout() io.Reader { return h.stdout }
func (h *localHandle) Stderr() io.Reader { return h.stderr }

func (h *localHandle) Terminate() (int, error) {
	if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return -1, &TerminationError{Command: h.name, Err: err}
	}

	err := h.cmd.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	// Wait reports the context error when the child was stopped by cancellation.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return -1, nil
	}
	return -1, &TerminationError{Command: h.name, Err: err}
}
