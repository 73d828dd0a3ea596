package local

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/url"
	"os"

	"github.com/mcman-io/mcman/pkg/source"
)

// Provider serves file:// URLs from the local filesystem, for mirrors
// mounted on the host.
type Provider struct{}

func New() *Provider {
	return &Provider{}
}

func (p *Provider) Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if u.Host != "" && u.Host != "localhost" {
		return nil, &source.Error{URL: u.String(), Err: errors.New("file URLs must not name a remote host")}
	}

	f, err := os.Open(u.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &source.Error{URL: u.String(), Status: "not found", Err: err}
		}
		return nil, &source.Error{URL: u.String(), Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &source.Error{URL: u.String(), Err: err}
	}
	if info.IsDir() {
		f.Close()
		return nil, &source.Error{URL: u.String(), Err: errors.New("is a directory")}
	}
	return f, nil
}
