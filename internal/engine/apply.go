package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/mcman-io/mcman/internal/install"
	"github.com/mcman-io/mcman/internal/ir"
	"github.com/mcman-io/mcman/internal/logging"
	"github.com/mcman-io/mcman/internal/state"
)

// Event statuses.
const (
	StatusStarted   = "started"
	StatusSkipped   = "skipped"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ApplyEvent represents a progress event during apply.
type ApplyEvent struct {
	Step     Step
	Status   string // "started", "skipped", "completed", "failed"
	Duration time.Duration
	Error    error
}

// ApplyCallback is called for each apply event if set.
type ApplyCallback func(event ApplyEvent)

// Apply provisions plan's instance: java, then either the mod loader and
// its mods or the vanilla server, then the launch scripts. The first failing
// step aborts the run. The instance lock is held for the duration.
func (e *Engine) Apply(ctx context.Context, plan *ir.Plan, callback ApplyCallback) error {
	if err := plan.Instance.Validate(); err != nil {
		return err
	}

	emit := func(event ApplyEvent) {
		if callback != nil {
			callback(event)
		}
	}

	lock := state.ForInstance(plan.InstanceDir).WithStaleAfter(e.lockStaleAfter)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logging.Warn("failed to release instance lock", "path", lock.Path(), "error", err)
		}
	}()
	stopHeartbeat := lock.Heartbeat(ctx)
	defer stopHeartbeat()

	logging.Info("provisioning instance",
		"instance", plan.Instance.Name,
		"version", plan.Instance.Version,
		"mod_loader", plan.Instance.ModLoader != nil,
		"mods", len(plan.Instance.Mods))

	for _, step := range Steps(plan) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("apply cancelled: %w", err)
		}

		start := time.Now()
		emit(ApplyEvent{Step: step, Status: StatusStarted})

		outcome, err := e.runStep(ctx, step, plan)
		if err != nil {
			emit(ApplyEvent{Step: step, Status: StatusFailed, Duration: time.Since(start), Error: err})
			return fmt.Errorf("%s step failed: %w", step, err)
		}

		status := StatusCompleted
		if outcome == install.Skipped {
			status = StatusSkipped
		}
		emit(ApplyEvent{Step: step, Status: status, Duration: time.Since(start)})
	}

	logging.Info("instance ready", "instance", plan.Instance.Name, "dir", plan.InstanceDir)
	return nil
}

func (e *Engine) runStep(ctx context.Context, step Step, plan *ir.Plan) (install.Outcome, error) {
	inst := plan.Instance
	logging.Debug("running step", "step", step, "instance", inst.Name)

	switch step {
	case StepJava:
		return e.installer.Java(ctx, inst.Java, plan.JavaRoot)
	case StepServer:
		return e.installer.Server(ctx, *inst.Server, plan.InstanceDir)
	case StepModLoader:
		return e.installer.ModLoader(ctx, *inst.ModLoader, plan.InstanceDir, plan.JavaHome())
	case StepMods:
		return e.installer.Mods(ctx, inst.Mods, plan.ModsDir())
	case StepFinalize:
		return install.Installed, e.installer.Finalize(ctx, install.FinalizeInput{
			InstanceDir:   plan.InstanceDir,
			ScreenName:    plan.ScreenName,
			Command:       inst.Command,
			JavaHome:      plan.JavaHome(),
			World:         inst.World,
			TemplatesPath: plan.TemplatesPath,
		})
	default:
		return install.Installed, fmt.Errorf("unknown step %q", step)
	}
}
