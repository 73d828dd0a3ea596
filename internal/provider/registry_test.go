package provider

import (
	"context"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct{}

func (stubSource) Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(u.Path)), nil
}

func TestRegistry_LoadProvider(t *testing.T) {
	reg := NewRegistry(Options{})

	for _, scheme := range []string{"http", "https", "HTTPS", "file", "s3"} {
		require.NoError(t, reg.LoadProvider(scheme), scheme)
	}

	httpSrc, err := reg.Get("http")
	require.NoError(t, err)
	httpsSrc, err := reg.Get("https")
	require.NoError(t, err)
	assert.Same(t, httpSrc, httpsSrc)

	err = reg.LoadProvider("ftp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown artifact source scheme")

	_, err = reg.Get("ftp")
	assert.Error(t, err)
}

func TestRegistry_ForURL(t *testing.T) {
	reg := NewRegistry(Options{})
	reg.Register("mirror", stubSource{})

	u, _ := url.Parse("mirror://host/server.jar")
	src, err := reg.ForURL(u)
	require.NoError(t, err)
	body, err := src.Fetch(context.Background(), u)
	require.NoError(t, err)
	data, _ := io.ReadAll(body)
	assert.Equal(t, "/server.jar", string(data))

	_, err = reg.ForURL(&url.URL{Path: "relative.jar"})
	assert.ErrorContains(t, err, "no scheme")
}
