package installer

import (
	"fmt"

	"github.com/melih-ucgun/brewstrap/internal/config"
	"github.com/melih-ucgun/brewstrap/internal/core"
	"github.com/melih-ucgun/brewstrap/internal/process"
)

// Homebrew installs and removes Homebrew itself with the official scripts.
type Homebrew struct {
	cfg config.Homebrew
}

func NewHomebrew(cfg config.Homebrew) *Homebrew {
	return &Homebrew{cfg: cfg}
}

func (h *Homebrew) Name() string { return "homebrew" }

func (h *Homebrew) Check(t *Target, p Prober, desired core.ResourceState) (bool, error) {
	installed := t.Brew != ""
	if desired == core.StateAbsent {
		return installed, nil
	}
	return !installed, nil
}

func (h *Homebrew) Command(t *Target, desired core.ResourceState) (process.Command, error) {
	raw := h.cfg.InstallURL
	if desired == core.StateAbsent {
		raw = h.cfg.UninstallURL
	}

	url, err := core.ExecuteTemplate(raw, t.SystemContext)
	if err != nil {
		return process.Command{}, fmt.Errorf("render homebrew script url: %w", err)
	}
	if url == "" {
		return process.Command{}, fmt.Errorf("homebrew script url %q rendered empty", raw)
	}

	script := fmt.Sprintf(`/bin/bash -c "$(curl -fsSL %s)"`, process.Quote(url))
	return process.NewCommand("/bin/sh", "-c", script).WithEnv("NONINTERACTIVE=1"), nil
}

// locateBrew finds brew on the target: on PATH first, then under prefixes.
func locateBrew(t *Target, p Prober, prefixes []string) (string, error) {
	onPath, err := p.Probe(t, process.NewCommand("sh", "-c", "command -v brew"))
	if err != nil {
		return "", err
	}
	if onPath {
		return "brew", nil
	}
	for _, prefix := range prefixes {
		candidate := prefix + "/brew"
		found, err := p.Probe(t, process.NewCommand("test", "-x", candidate))
		if err != nil {
			return "", err
		}
		if found {
			return candidate, nil
		}
	}
	return "", nil
}
