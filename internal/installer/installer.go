package installer

import (
	"errors"
	"fmt"

	"github.com/melih-ucgun/brewstrap/internal/config"
	"github.com/melih-ucgun/brewstrap/internal/core"
	"github.com/melih-ucgun/brewstrap/internal/process"
	"github.com/melih-ucgun/brewstrap/internal/state"
)

// Recorder stores finished runs.
type Recorder interface {
	AddTransaction(tx state.Transaction) error
}

// Installer sequences the steps of an install or uninstall run. Child
// output is forwarded line by line to Sink; everything else goes through
// the logger and UI of the system context.
type Installer struct {
	Launcher process.Launcher
	Sink     process.Sink
	// History is optional.
	History Recorder
	// Host names the remote target in history, "" for the local machine.
	Host string

	prefixes []string
	steps    []Step
}

// New builds an installer for cfg: Homebrew first, then the formula bundle.
func New(cfg *config.Config, launcher process.Launcher, sink process.Sink) *Installer {
	return &Installer{
		Launcher: launcher,
		Sink:     sink,
		prefixes: cfg.Homebrew.Prefixes,
		steps: []Step{
			NewHomebrew(cfg.Homebrew),
			NewFormulas("gstreamer", cfg.Formulas, cfg.Options),
		},
	}
}

// StepStatus is the presence of one step on the target.
type StepStatus struct {
	Name    string
	Present bool
}

// Install brings every step to present, in order.
func (i *Installer) Install(ctx *core.SystemContext) error {
	return i.run(ctx, "install", core.StatePresent, i.steps)
}

// Uninstall removes every step, in reverse order.
func (i *Installer) Uninstall(ctx *core.SystemContext) error {
	steps := make([]Step, 0, len(i.steps))
	for n := len(i.steps) - 1; n >= 0; n-- {
		steps = append(steps, i.steps[n])
	}
	return i.run(ctx, "uninstall", core.StateAbsent, steps)
}

// Status probes every step without changing anything.
func (i *Installer) Status(ctx *core.SystemContext) ([]StepStatus, error) {
	t, err := i.target(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]StepStatus, 0, len(i.steps))
	for _, step := range i.steps {
		missing, err := step.Check(t, i, core.StatePresent)
		if errors.Is(err, errNoneSelected) {
			// nothing is required on this host
			out = append(out, StepStatus{Name: step.Name(), Present: true})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
		out = append(out, StepStatus{Name: step.Name(), Present: !missing})
	}
	return out, nil
}

// Probe implements Prober by draining cmd into a capture sink. Probe output
// is only shown at trace level.
func (i *Installer) Probe(t *Target, cmd process.Command) (bool, error) {
	out := &process.Capture{}
	sum, err := process.Run(t, i.Launcher, cmd, out)
	t.Logger.Trace("Probe finished",
		"command", cmd.String(),
		"exit", sum.ExitCode,
		"stdout", out.String(process.Stdout),
		"stderr", out.String(process.Stderr),
	)
	if errors.Is(err, process.ErrTermination) {
		return false, err
	}
	if err != nil {
		t.Logger.Debug("Probe could not run", "command", cmd.String(), "error", err)
		return false, nil
	}
	return sum.Success(), nil
}

func (i *Installer) target(ctx *core.SystemContext) (*Target, error) {
	t := &Target{SystemContext: ctx}
	brew, err := locateBrew(t, i, i.prefixes)
	if err != nil {
		return nil, fmt.Errorf("locate brew: %w", err)
	}
	t.Brew = brew
	return t, nil
}

func (i *Installer) run(ctx *core.SystemContext, action string, desired core.ResourceState, steps []Step) (err error) {
	tx := state.NewTransaction(action, i.Host)
	defer func() {
		if err != nil {
			tx.Status = "failed"
		}
		if i.History == nil || ctx.DryRun {
			return
		}
		if herr := i.History.AddTransaction(tx); herr != nil {
			ctx.Logger.Warn("Could not save run history", "error", herr)
		}
	}()

	ctx.Logger.Debug("Run started", "action", action, "transaction", tx.ID)
	t, err := i.target(ctx)
	if err != nil {
		ctx.UI.Error(err.Error())
		return err
	}

	for _, step := range steps {
		ctx.UI.Section(fmt.Sprintf("%s %s", action, step.Name()))

		res, record, serr := i.apply(t, step, desired)
		record.Action = action
		tx.Record(record)
		if serr != nil {
			ctx.UI.Error(res.Message)
			return serr
		}

		switch {
		case res.Failed:
			ctx.UI.Error(res.Message)
		case res.Changed:
			ctx.UI.Success(res.Message)
		default:
			ctx.UI.Info(res.Message)
		}

		// Installing or removing Homebrew changes where brew lives.
		if t, err = i.target(ctx); err != nil {
			ctx.UI.Error(err.Error())
			return err
		}
	}
	return nil
}

// apply runs one step. The returned error is non-nil only when the run
// must stop: a command could not be spawned or terminated, or the step is
// misconfigured.
func (i *Installer) apply(t *Target, step Step, desired core.ResourceState) (core.Result, state.StepRecord, error) {
	log := t.Logger.With("step", step.Name())
	record := state.StepRecord{Name: step.Name(), ExitCode: -1}

	needsAction, err := step.Check(t, i, desired)
	if errors.Is(err, errNoneSelected) {
		msg := errNoneSelected.Error()
		log.Info(msg)
		record.Status = state.StatusUnchanged
		record.Message = msg
		return core.SuccessNoChange(msg), record, nil
	}
	if err != nil {
		record.Status = state.StatusFailed
		record.Message = err.Error()
		return core.Failure(err, fmt.Sprintf("%s: %v", step.Name(), err)), record, err
	}
	if !needsAction {
		msg := fmt.Sprintf("%s is already %s", step.Name(), desired)
		log.Info(msg)
		record.Status = state.StatusUnchanged
		record.Message = msg
		return core.SuccessNoChange(msg), record, nil
	}

	target := t
	if t.DryRun && t.Brew == "" {
		dry := *t
		dry.Brew = "brew"
		target = &dry
	}

	cmd, err := step.Command(target, desired)
	if errors.Is(err, errNoBrew) {
		msg := fmt.Sprintf("%s skipped: %v", step.Name(), err)
		log.Error(msg)
		record.Status = state.StatusFailed
		record.Message = msg
		return core.Failure(err, msg), record, nil
	}
	if err != nil {
		record.Status = state.StatusFailed
		record.Message = err.Error()
		return core.Failure(err, fmt.Sprintf("%s: %v", step.Name(), err)), record, err
	}
	record.Command = cmd.String()

	if t.DryRun {
		msg := fmt.Sprintf("[DryRun] %s", cmd.String())
		record.Status = state.StatusDryRun
		record.Message = msg
		return core.SuccessChange(msg, -1), record, nil
	}

	log.Info(fmt.Sprintf("%s is not %s, running installer", step.Name(), desired), "command", cmd.String())
	sum, err := process.Run(t, i.Launcher, cmd, i.Sink)
	record.ExitCode = sum.ExitCode
	if err != nil {
		record.Status = state.StatusFailed
		record.Message = err.Error()
		return core.Failure(err, fmt.Sprintf("%s: %v", step.Name(), err)), record, err
	}

	log.Debug("Command finished", "exit", sum.ExitCode, "stdout_lines", sum.StdoutLines, "stderr_lines", sum.StderrLines)
	if !sum.Success() {
		msg := fmt.Sprintf("%s: command exited with code %d", step.Name(), sum.ExitCode)
		log.Warn(msg)
		record.Status = state.StatusFailed
		record.Message = msg
		res := core.Failure(fmt.Errorf("exit code %d", sum.ExitCode), msg)
		res.ExitCode = sum.ExitCode
		return res, record, nil
	}

	msg := fmt.Sprintf("%s is now %s", step.Name(), desired)
	record.Status = state.StatusChanged
	record.Message = msg
	return core.SuccessChange(msg, sum.ExitCode), record, nil
}
