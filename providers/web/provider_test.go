package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/mcman-io/mcman/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mcman", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("jar bytes"))
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL + "/server.jar")
	require.NoError(t, err)

	body, err := New(Options{}).Fetch(context.Background(), u)
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "jar bytes", string(data))
}

func TestProvider_FetchStatus(t *testing.T) {
	tests := []struct {
		code      int
		transient bool
	}{
		{http.StatusNotFound, false},
		{http.StatusForbidden, false},
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusNotImplemented, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
			}))
			defer srv.Close()

			u, _ := url.Parse(srv.URL)
			_, err := New(Options{}).Fetch(context.Background(), u)
			require.Error(t, err)

			var se *source.Error
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.code, se.StatusCode)
			assert.Equal(t, tt.transient, se.Transient)
		})
	}
}

func TestProvider_InsecureSkipVerify(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()
	u, _ := url.Parse(srv.URL)

	// Self-signed test certificate is rejected by default.
	_, err := New(Options{}).Fetch(context.Background(), u)
	require.Error(t, err)

	body, err := New(Options{InsecureSkipVerify: true}).Fetch(context.Background(), u)
	require.NoError(t, err)
	body.Close()
}
