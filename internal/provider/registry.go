package provider

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/mcman-io/mcman/pkg/source"
	"github.com/mcman-io/mcman/providers/aws"
	"github.com/mcman-io/mcman/providers/local"
	"github.com/mcman-io/mcman/providers/web"
)

// Options are passed to sources as they are loaded.
type Options struct {
	InsecureTLS bool
	UserAgent   string
}

// Registry manages the artifact sources, keyed by URL scheme.
type Registry struct {
	mu        sync.RWMutex
	opts      Options
	providers map[string]source.Source
}

func NewRegistry(opts Options) *Registry {
	return &Registry{
		opts:      opts,
		providers: make(map[string]source.Source),
	}
}

// LoadProvider initializes and registers the source for a scheme.
func (r *Registry) LoadProvider(scheme string) error {
	scheme = strings.ToLower(scheme)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[scheme]; exists {
		return nil
	}

	var p source.Source
	switch scheme {
	case "http", "https":
		// Both schemes share one client.
		if existing, ok := r.providers["http"]; ok {
			p = existing
		} else if existing, ok := r.providers["https"]; ok {
			p = existing
		} else {
			p = web.New(web.Options{InsecureSkipVerify: r.opts.InsecureTLS, UserAgent: r.opts.UserAgent})
		}
	case "s3":
		p = aws.New(aws.Options{})
	case "gs":
		gp, err := newGCSProvider()
		if err != nil {
			return err
		}
		p = gp
	case "file":
		p = local.New()
	default:
		return fmt.Errorf("unknown artifact source scheme: %q", scheme)
	}

	r.providers[scheme] = p
	return nil
}

// Register installs a source for a scheme, replacing any loaded one.
func (r *Registry) Register(scheme string, p source.Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[strings.ToLower(scheme)] = p
}

// Get returns a registered source.
func (r *Registry) Get(scheme string) (source.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[strings.ToLower(scheme)]
	if !ok {
		return nil, fmt.Errorf("artifact source not loaded: %s", scheme)
	}
	return p, nil
}

// ForURL loads, if needed, and returns the source serving u.
func (r *Registry) ForURL(u *url.URL) (source.Source, error) {
	if u.Scheme == "" {
		return nil, fmt.Errorf("artifact URL %q has no scheme", u.String())
	}
	if err := r.LoadProvider(u.Scheme); err != nil {
		return nil, err
	}
	return r.Get(u.Scheme)
}
