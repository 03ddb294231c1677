package installer

import (
	"errors"
	"fmt"

	"github.com/melih-ucgun/brewstrap/internal/config"
	"github.com/melih-ucgun/brewstrap/internal/core"
	"github.com/melih-ucgun/brewstrap/internal/process"
)

var (
	errNoBrew = errors.New("brew is not available on the target")
	// errNoneSelected means every formula was filtered out by its condition.
	errNoneSelected = errors.New("no formulas selected for this host")
)

// Formulas manages a bundle of Homebrew formulas, GStreamer and its plugins
// by default, with one brew invocation.
type Formulas struct {
	name     string
	formulas []config.Formula
	options  []string
}

func NewFormulas(name string, formulas []config.Formula, options []string) *Formulas {
	return &Formulas{
		name:     name,
		formulas: formulas,
		options:  options,
	}
}

func (f *Formulas) Name() string { return f.name }

// Selected returns the formula names whose `when` condition holds on t.
func (f *Formulas) Selected(t *Target) ([]string, error) {
	var names []string
	for _, formula := range f.formulas {
		ok, err := core.EvaluateCondition(formula.When, t.SystemContext)
		if err != nil {
			return nil, fmt.Errorf("formula %s: %w", formula.Name, err)
		}
		if ok {
			names = append(names, formula.Name)
		}
	}
	return names, nil
}

// Check probes each selected formula with `brew ls --versions`. Installing
// is needed when any is missing, uninstalling when any is present. It returns
// errNoneSelected when no formula applies to t.
func (f *Formulas) Check(t *Target, p Prober, desired core.ResourceState) (bool, error) {
	names, err := f.Selected(t)
	if err != nil {
		return false, err
	}
	if len(names) == 0 {
		return false, errNoneSelected
	}

	if t.Brew == "" {
		// Nothing can be installed without brew; uninstall has nothing to do.
		return desired != core.StateAbsent, nil
	}

	for _, name := range names {
		installed, err := p.Probe(t, process.NewCommand(t.Brew, "ls", "--versions", name))
		if err != nil {
			return false, err
		}
		if desired == core.StateAbsent && installed {
			return true, nil
		}
		if desired != core.StateAbsent && !installed {
			return true, nil
		}
	}
	return false, nil
}

func (f *Formulas) Command(t *Target, desired core.ResourceState) (process.Command, error) {
	if t.Brew == "" {
		return process.Command{}, errNoBrew
	}
	names, err := f.Selected(t)
	if err != nil {
		return process.Command{}, err
	}

	var args []string
	if desired == core.StateAbsent {
		args = append([]string{"uninstall"}, names...)
		args = append(args, "--force")
	} else {
		args = append([]string{"install"}, names...)
		args = append(args, f.options...)
	}
	return process.NewCommand(t.Brew, args...).WithEnv("HOMEBREW_NO_ENV_HINTS=1"), nil
}
