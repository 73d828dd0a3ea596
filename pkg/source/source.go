// Package source defines the contract between the downloader and the
// artifact sources that serve a URL scheme.
package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
)

// Source opens the body of a remote artifact. The caller closes it.
type Source interface {
	Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error)
}

// Error is a classified failure reported by a source. Transient errors are
// worth retrying; everything else fails the download immediately.
type Error struct {
	URL        string
	StatusCode int
	Status     string
	Transient  bool
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Status != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.URL, e.Status, e.Err)
	case e.Status != "":
		return fmt.Sprintf("%s: %s", e.URL, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.URL, e.Err)
	default:
		return e.URL + ": fetch failed"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}
