package installer

import (
	"github.com/melih-ucgun/brewstrap/internal/core"
	"github.com/melih-ucgun/brewstrap/internal/process"
)

// Target is what a step knows about the machine it works on.
type Target struct {
	*core.SystemContext

	// Brew is how to invoke brew on the target: "brew" when it is on PATH,
	// an absolute path when found under a known prefix, "" when Homebrew is
	// not installed.
	Brew string
}

// Prober runs a presence check. A probe is positive when its command could
// be started and exited with status 0. A probe that could not be started is
// negative; one whose process could not be terminated returns the
// *process.TerminationError.
type Prober interface {
	Probe(t *Target, cmd process.Command) (bool, error)
}

// Step is one prerequisite managed by the installer.
type Step interface {
	Name() string
	// Check reports whether the target must change to reach desired.
	Check(t *Target, p Prober, desired core.ResourceState) (bool, error)
	// Command returns what to run to reach desired.
	Command(t *Target, desired core.ResourceState) (process.Command, error)
}
