package aws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/mcman-io/mcman/pkg/source"
)

func (p *Provider) Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	bucket, key, err := parseObjectURL(u)
	if err != nil {
		return nil, &source.Error{URL: u.String(), Err: err}
	}

	client, err := p.ensureClient(ctx)
	if err != nil {
		return nil, &source.Error{URL: u.String(), Err: err}
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: awssdk.String(bucket),
		Key:    awssdk.String(key),
	})
	if err != nil {
		return nil, classifyError(u, err)
	}
	return result.Body, nil
}

func parseObjectURL(u *url.URL) (bucket, key string, err error) {
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 URLs must have the form s3://bucket/key")
	}
	return bucket, key, nil
}

// classifyError marks missing objects and permission failures as permanent
// and throttling as transient. Anything else is returned unclassified.
func classifyError(u *url.URL, err error) error {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return &source.Error{URL: u.String(), Status: "NoSuchKey", Err: err}
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound", "AccessDenied", "Forbidden", "InvalidObjectState":
			return &source.Error{URL: u.String(), Status: ae.ErrorCode(), Err: err}
		case "SlowDown", "Throttling", "ThrottlingException", "RequestTimeout", "InternalError", "ServiceUnavailable":
			return &source.Error{URL: u.String(), Status: ae.ErrorCode(), Transient: true, Err: err}
		}
	}
	return fmt.Errorf("s3 get failed for %s: %w", u, err)
}
