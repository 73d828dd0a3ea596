package web

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mcman-io/mcman/internal/logging"
	"github.com/mcman-io/mcman/pkg/source"
)

// Options configures the HTTP source.
type Options struct {
	// InsecureSkipVerify disables TLS certificate validation. Only meant for
	// internal mirrors with self-signed certificates.
	InsecureSkipVerify bool
	UserAgent          string
}

type Provider struct {
	client    *http.Client
	userAgent string
}

func New(opts Options) *Provider {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = 2 * time.Minute
	if opts.InsecureSkipVerify {
		logging.Warn("TLS certificate verification is disabled for artifact downloads")
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = "mcman"
	}

	return &Provider{
		client:    &http.Client{Transport: transport},
		userAgent: ua,
	}
}

func (p *Provider) Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &source.Error{URL: u.String(), Err: err}
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &source.Error{
			URL:        u.String(),
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Transient:  isTransientStatus(resp.StatusCode),
		}
	}

	logging.Debug("http response", "url", u.String(), "status", resp.StatusCode, "content_length", resp.ContentLength)
	return resp.Body, nil
}

func isTransientStatus(code int) bool {
	switch {
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		return true
	case code >= 500:
		return code != http.StatusNotImplemented
	default:
		return false
	}
}
