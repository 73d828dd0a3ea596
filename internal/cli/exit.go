package cli

import (
	"errors"

	"github.com/mcman-io/mcman/internal/fetch"
	"github.com/mcman-io/mcman/internal/install"
	"github.com/mcman-io/mcman/internal/state"
)

// Process exit codes.
const (
	ExitOK        = 0
	ExitConfig    = 1
	ExitTransport = 2
	ExitInstall   = 3
)

// ExitCode maps an error chain to the process exit code. Configuration and
// unclassified errors exit 1, download and verification failures 2, and
// install-time failures 3, including an instance locked by another run.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var transportErr *fetch.TransportError
	var integrityErr *fetch.IntegrityError
	if errors.As(err, &transportErr) || errors.As(err, &integrityErr) {
		return ExitTransport
	}

	var subprocessErr *install.SubprocessError
	var stepErr *install.StepError
	var lockedErr *state.LockedError
	if errors.As(err, &subprocessErr) || errors.As(err, &stepErr) || errors.As(err, &lockedErr) {
		return ExitInstall
	}

	return ExitConfig
}
