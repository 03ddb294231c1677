package process

import (
	"errors"
	"fmt"
)

var (
	// ErrSpawn matches every *SpawnError.
	ErrSpawn = errors.New("process could not be started")
	// ErrTermination matches every *TerminationError.
	ErrTermination = errors.New("process could not be terminated")
)

// SpawnError is returned by a Launcher when the process could not be created.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

func (e *SpawnError) Is(target error) bool { return target == ErrSpawn }

// TerminationError is returned by Drain when the drained process could not be
// killed or reaped.
type TerminationError struct {
	Command string
	Err     error
}

func (e *TerminationError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("terminate: %v", e.Err)
	}
	return fmt.Sprintf("terminate %s: %v", e.Command, e.Err)
}

func (e *TerminationError) Unwrap() error { return e.Err }

func (e *TerminationError) Is(target error) bool { return target == ErrTermination }
