package state

import "time"

// Step outcomes recorded in history.
const (
	StatusChanged   = "changed"
	StatusUnchanged = "unchanged"
	StatusFailed    = "failed"
	StatusDryRun    = "dry-run"
	StatusSkipped   = "skipped"
)

// StepRecord is what happened to one step during a run.
type StepRecord struct {
	Name     string `json:"name"`
	Action   string `json:"action"`
	Command  string `json:"command,omitempty"`
	ExitCode int    `json:"exit_code"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
}

// Transaction is one install or uninstall run.
type Transaction struct {
	ID        string       `json:"id"`
	Action    string       `json:"action"`
	Host      string       `json:"host,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
	Status    string       `json:"status"` // success, failed
	Steps     []StepRecord `json:"steps"`
}

// State is the content of the history file.
type State struct {
	Version string        `json:"version"`
	LastRun time.Time     `json:"last_run"`
	History []Transaction `json:"history,omitempty"`
}

func NewState() *State {
	return &State{
		Version: "1.0",
	}
}
