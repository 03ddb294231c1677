package process

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Sink receives every drained line, in merge order, from a single goroutine.
type Sink interface {
	Forward(line Line)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(line Line)

func (f SinkFunc) Forward(line Line) { f(line) }

// WriterSink writes stdout lines to Stdout and stderr lines to Stderr, one
// line per write.
type WriterSink struct {
	Stdout io.Writer
	Stderr io.Writer
}

// ConsoleSink echoes lines to the parent's own stdout and stderr.
func ConsoleSink() WriterSink {
	return WriterSink{Stdout: os.Stdout, Stderr: os.Stderr}
}

func (s WriterSink) Forward(line Line) {
	w := s.Stdout
	if line.Origin == Stderr {
		w = s.Stderr
	}
	if w == nil {
		return
	}
	fmt.Fprintln(w, line.Text)
}

// Tee forwards each line to all sinks in order.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(line Line) {
		for _, s := range sinks {
			s.Forward(line)
		}
	})
}

// Capture records lines in memory. It is safe to read while a drain is
// still writing to it.
type Capture struct {
	mu    sync.Mutex
	lines []Line
}

func (c *Capture) Forward(line Line) {
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
}

// Lines returns a copy of everything captured so far.
func (c *Capture) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Line(nil), c.lines...)
}

// Texts returns the captured text of one origin, in delivery order.
func (c *Capture) Texts(origin Origin) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, l := range c.lines {
		if l.Origin == origin {
			out = append(out, l.Text)
		}
	}
	return out
}

// String joins the captured lines of one origin with newlines.
func (c *Capture) String(origin Origin) string {
	return strings.Join(c.Texts(origin), "\n")
}
