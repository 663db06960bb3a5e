package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddLatestIfTagNotPresent(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{
			uri:  "registry://ghcr.io/acme/policies/psp-capabilities",
			want: "registry://ghcr.io/acme/policies/psp-capabilities:latest",
		},
		{
			uri:  "registry://ghcr.io/acme/policies/psp-capabilities:v1",
			want: "registry://ghcr.io/acme/policies/psp-capabilities:v1",
		},
		{
			uri:  "https://example.com/releases/download/v0.1.9/policy.wasm",
			want: "https://example.com/releases/download/v0.1.9/policy.wasm",
		},
		{uri: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.want, addLatestIfTagNotPresent(tt.uri))
		})
	}
}

func TestNormalizeURI_MapsPathsToFileURIs(t *testing.T) {
	uri, err := NormalizeURI("some/policy.wasm")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "file:///"), "got %q", uri)
	assert.True(t, strings.HasSuffix(uri, "/some/policy.wasm"))
}

func TestFetch_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.wasm")
	require.NoError(t, os.WriteFile(path, []byte("wasm-bytes"), 0o644))

	data, err := New().Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, []byte("wasm-bytes"), data)
}

func TestFetch_HTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("remote-wasm"))
	}))
	defer server.Close()

	data, err := New().Fetch(context.Background(), server.URL+"/policy.wasm")
	require.NoError(t, err)
	assert.Equal(t, []byte("remote-wasm"), data)
}

func TestFetch_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := New().Fetch(context.Background(), server.URL+"/missing.wasm")
	assert.ErrorContains(t, err, "status 404")
}

func TestFetch_RegistryUnsupported(t *testing.T) {
	_, err := New().Fetch(context.Background(), "registry://ghcr.io/acme/policy:v1")
	assert.ErrorContains(t, err, "registry-capable fetcher")
}

func TestFetch_UnknownScheme(t *testing.T) {
	_, err := New().Fetch(context.Background(), "ftp://example.com/policy.wasm")
	assert.ErrorContains(t, err, "unsupported policy uri scheme")
}
