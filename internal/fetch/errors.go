package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/mcman-io/mcman/pkg/source"
)

// TransportError is a failure to obtain an artifact's bytes: connection,
// DNS, timeout or a non-success status from the source.
type TransportError struct {
	URL        string
	StatusCode int
	Status     string
	Transient  bool
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Status != "" && e.Err != nil:
		return fmt.Sprintf("fetching %s: %s: %v", e.URL, e.Status, e.Err)
	case e.Status != "":
		return fmt.Sprintf("fetching %s: %s", e.URL, e.Status)
	default:
		return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IntegrityError reports a completed download whose SHA-256 does not match
// the catalog. It is never retried.
type IntegrityError struct {
	URL      string
	Path     string
	Expected string
	Actual   string
	// KeptAt is where the mismatching bytes were left, if anywhere.
	KeptAt string
}

func (e *IntegrityError) Error() string {
	msg := fmt.Sprintf("digest mismatch for %s: expected sha256 %s, got %s", e.URL, e.Expected, e.Actual)
	if e.KeptAt != "" {
		msg += " (kept at " + e.KeptAt + ")"
	}
	return msg
}

func newTransportError(rawURL string, err error) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}

	te = &TransportError{URL: rawURL, Err: err}

	var se *source.Error
	if errors.As(err, &se) {
		te.StatusCode = se.StatusCode
		te.Status = se.Status
		te.Transient = se.Transient
		te.Err = se.Err
		return te
	}

	switch {
	case errors.Is(err, context.Canceled):
		te.Transient = false
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, io.ErrUnexpectedEOF):
		te.Transient = true
	default:
		var ne net.Error
		te.Transient = (errors.As(err, &ne) && ne.Timeout()) || IsTransientError(err)
	}
	return te
}

func isRetryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Transient
}
