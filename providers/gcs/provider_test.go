//go:build gcp

package gcs

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/mcman-io/mcman/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_RejectsIncompleteURL(t *testing.T) {
	for _, raw := range []string{"gs://bucket", "gs:///object.jar"} {
		t.Run(raw, func(t *testing.T) {
			u, err := url.Parse(raw)
			require.NoError(t, err)

			_, err = New().Fetch(context.Background(), u)
			var serr *source.Error
			require.True(t, errors.As(err, &serr))
			assert.False(t, serr.Transient)
		})
	}
}

func TestClose_WithoutClient(t *testing.T) {
	assert.NoError(t, New().Close())
}
