package install

import (
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/mcman-io/mcman/internal/logging"
)

// Runner executes an external program in dir and returns its combined
// output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec. Cancelling ctx kills the process.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	// Installers may leave children holding the output pipe after a kill.
	cmd.WaitDelay = 10 * time.Second

	logging.Debug("running command", "command", cmd.String(), "dir", dir)
	out, err := cmd.CombinedOutput()
	if err == nil {
		return out, nil
	}

	serr := &SubprocessError{
		Command:  append([]string{name}, args...),
		Dir:      dir,
		ExitCode: -1,
		Output:   tail(out, outputTailLines),
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		serr.ExitCode = exitErr.ExitCode()
	}
	if ctx.Err() != nil {
		serr.Err = ctx.Err()
	}
	return out, serr
}
