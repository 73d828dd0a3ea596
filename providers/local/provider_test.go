package local

import (
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/mcman-io/mcman/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Fetch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mod.jar")
	require.NoError(t, os.WriteFile(path, []byte("mod"), 0644))

	body, err := New().Fetch(context.Background(), &url.URL{Scheme: "file", Path: path})
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "mod", string(data))
}

func TestProvider_FetchErrors(t *testing.T) {
	dir := t.TempDir()
	p := New()
	ctx := context.Background()

	_, err := p.Fetch(ctx, &url.URL{Scheme: "file", Path: filepath.Join(dir, "missing.jar")})
	var se *source.Error
	require.True(t, errors.As(err, &se))
	assert.False(t, se.Transient)

	_, err = p.Fetch(ctx, &url.URL{Scheme: "file", Path: dir})
	assert.ErrorContains(t, err, "directory")

	_, err = p.Fetch(ctx, &url.URL{Scheme: "file", Host: "mirror", Path: "/x"})
	assert.ErrorContains(t, err, "remote host")
}
