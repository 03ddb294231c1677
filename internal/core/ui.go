package core

import "io"

// UI is what commands use to talk to the person running brewstrap. Child
// process output never goes through it; that is echoed raw by a process.Sink.
type UI interface {
	// Title prints the banner of a command.
	Title(title string)
	// Section starts a new step.
	Section(title string)
	Success(msg string)
	Info(msg string)
	Warning(msg string)
	Error(msg string)
	// Table prints rows with the first row as header.
	Table(rows [][]string) error
	// WithWriter returns a UI writing to w.
	WithWriter(w io.Writer) UI
}
