package install

import (
	"fmt"
	"strings"
)

// StepError is an install-time filesystem or archive failure.
type StepError struct {
	Step string
	Path string
	Err  error
}

func (e *StepError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Step, e.Path, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// SubprocessError is an external command that could not start or exited
// non-zero. ExitCode is -1 when the process never ran to completion.
type SubprocessError struct {
	Command  []string
	Dir      string
	ExitCode int
	// Output is the tail of the combined stdout/stderr.
	Output string
	Err    error
}

func (e *SubprocessError) Error() string {
	msg := fmt.Sprintf("command %q in %s", strings.Join(e.Command, " "), e.Dir)
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" exited with status %d", e.ExitCode)
	} else {
		msg += fmt.Sprintf(" failed: %v", e.Err)
	}
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

func (e *SubprocessError) Unwrap() error {
	return e.Err
}

const outputTailLines = 20

// tail returns the last n lines of out.
func tail(out []byte, n int) string {
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
