package process

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"
)

// mergeBuffer bounds how far a fast reader may run ahead of the consumer.
const mergeBuffer = 64

// Summary describes a finished drain.
type Summary struct {
	StdoutLines int
	StderrLines int
	// ExitCode is the child's own exit code, or -1 if it was killed before
	// exiting.
	ExitCode int
}

// Success reports whether the child exited on its own with status 0.
func (s Summary) Success() bool { return s.ExitCode == 0 }

// Drain takes ownership of h, reads its stdout and stderr concurrently and
// forwards every line to sink as soon as it is read. Lines of one origin keep
// their order; lines of different origins interleave as they arrive.
//
// Drain returns once both channels reached end of stream, after which the
// child is killed and reaped. A read error ends that channel like EOF does.
// The only error returned is a *TerminationError.
//
// Drain panics if h is missing an output channel. If sink panics, the child
// is still terminated before the panic continues.
func Drain(h Handle, sink Sink) (Summary, error) {
	stdout, stderr := h.Stdout(), h.Stderr()
	if stdout == nil {
		panic("process: handle has no stdout channel")
	}
	if stderr == nil {
		panic("process: handle has no stderr channel")
	}

	lines := make(chan Line, mergeBuffer)
	// done is closed when the consumer leaves, including by panic, so that
	// readers blocked on a send can return.
	done := make(chan struct{})
	terminated := false
	defer func() {
		close(done)
		if r := recover(); r != nil {
			// A panicking sink must not leak the child or readers blocked
			// on its pipes.
			if !terminated {
				_, _ = h.Terminate()
			}
			panic(r)
		}
	}()

	var g errgroup.Group
	g.Go(func() error {
		readLines(stdout, Stdout, lines, done)
		return nil
	})
	g.Go(func() error {
		readLines(stderr, Stderr, lines, done)
		return nil
	})
	go func() {
		_ = g.Wait()
		close(lines)
	}()

	var sum Summary
	for line := range lines {
		if line.Origin == Stderr {
			sum.StderrLines++
		} else {
			sum.StdoutLines++
		}
		sink.Forward(line)
	}

	terminated = true
	code, err := h.Terminate()
	sum.ExitCode = code
	if err != nil {
		var te *TerminationError
		if !errors.As(err, &te) {
			err = &TerminationError{Err: err}
		}
		return sum, err
	}
	return sum, nil
}

// Run launches cmd with l and drains it into sink.
func Run(ctx context.Context, l Launcher, cmd Command, sink Sink) (Summary, error) {
	h, err := l.Launch(ctx, cmd)
	if err != nil {
		return Summary{ExitCode: -1}, err
	}
	return Drain(h, sink)
}

func readLines(r io.Reader, origin Origin, out chan<- Line, done <-chan struct{}) {
	br := bufio.NewReader(r)
	for {
		text, err := br.ReadString('\n')
		if text != "" {
			line := Line{Origin: origin, Text: strings.TrimRightFunc(text, unicode.IsSpace)}
			select {
			case out <- line:
			case <-done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}
