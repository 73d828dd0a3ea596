package aws

import (
	"context"
	"fmt"
	"os"
	"sync"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Options configures the S3 source. Empty fields fall back to the
// environment (AWS_REGION, MCMAN_S3_ENDPOINT, AWS_PROFILE).
type Options struct {
	Region   string
	Endpoint string // custom endpoint for MinIO-style mirrors
	Profile  string
}

// Provider serves s3://bucket/key URLs.
type Provider struct {
	mu       sync.Mutex
	s3Client *s3.Client
	opts     Options
}

func New(opts Options) *Provider {
	if opts.Region == "" {
		opts.Region = os.Getenv("AWS_REGION")
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	if opts.Endpoint == "" {
		opts.Endpoint = os.Getenv("MCMAN_S3_ENDPOINT")
	}
	return &Provider{opts: opts}
}

func (p *Provider) ensureClient(ctx context.Context) (*s3.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.s3Client != nil {
		return p.s3Client, nil
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(p.opts.Region)}
	if p.opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(p.opts.Profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	endpoint := p.opts.Endpoint
	p.s3Client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = awssdk.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return p.s3Client, nil
}
