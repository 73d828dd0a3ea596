//go:build gcp

package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/mcman-io/mcman/pkg/source"
)

// Provider serves gs://bucket/object URLs using application default
// credentials.
type Provider struct {
	mu     sync.Mutex
	client *storage.Client
}

func New() *Provider {
	return &Provider{}
}

func (p *Provider) ensureClient(ctx context.Context) (*storage.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	p.client = client
	return client, nil
}

func (p *Provider) Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	bucket := u.Host
	object := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || object == "" {
		return nil, &source.Error{URL: u.String(), Err: errors.New("gs URLs must have the form gs://bucket/object")}
	}

	client, err := p.ensureClient(ctx)
	if err != nil {
		return nil, &source.Error{URL: u.String(), Err: err}
	}

	reader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, &source.Error{URL: u.String(), Status: "not found", Err: err}
		}
		return nil, fmt.Errorf("gcs get failed for %s: %w", u, err)
	}
	return reader, nil
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}
