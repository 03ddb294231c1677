package core

import (
	"context"
	"os"
	"runtime"
)

// SystemContext holds what is known about the target machine for one run,
// together with the logger and UI the run reports through.
type SystemContext struct {
	context.Context

	OS       string // darwin, linux
	Arch     string // amd64, arm64
	Distro   string // ubuntu, fedora; empty on macOS
	Version  string // 14.4, 22.04
	Hostname string
	User     string
	HomeDir  string

	// Remote is true when commands run on another host over SSH.
	Remote bool

	// DryRun logs the commands that would run instead of launching them.
	DryRun bool

	Logger Logger
	UI     UI
}

// NewSystemContext returns a context describing the local process defaults.
// system.Detect fills in the rest.
func NewSystemContext(parent context.Context, dryRun bool) *SystemContext {
	if parent == nil {
		parent = context.Background()
	}
	home, _ := os.UserHomeDir()
	return &SystemContext{
		Context: parent,
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
		User:    os.Getenv("USER"),
		HomeDir: home,
		DryRun:  dryRun,
		Logger:  NewDefaultLogger(os.Stderr, LevelInfo),
		UI:      &NoOpUI{},
	}
}

// Facts exposes the detected values under the names used by `when`
// conditions.
func (c *SystemContext) Facts() map[string]any {
	return map[string]any{
		"os":       c.OS,
		"arch":     c.Arch,
		"distro":   c.Distro,
		"version":  c.Version,
		"hostname": c.Hostname,
		"user":     c.User,
		"home":     c.HomeDir,
		"remote":   c.Remote,
	}
}
