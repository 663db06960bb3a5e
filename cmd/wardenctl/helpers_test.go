package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPolicyBytes_DigestPrefix(t *testing.T) {
	t.Setenv("WARDENCTL_STORE_ROOT", t.TempDir())
	s, err := openDefaultStore()
	require.NoError(t, err)

	digest, err := s.Add("registry://ghcr.io/acme/policy:v1", []byte("wasm-a"))
	require.NoError(t, err)

	data, err := loadPolicyBytes(context.Background(), "sha256:"+digest[:12])
	require.NoError(t, err)
	assert.Equal(t, []byte("wasm-a"), data)

	data, err = loadPolicyBytes(context.Background(), digest)
	require.NoError(t, err)
	assert.Equal(t, []byte("wasm-a"), data)
}

func TestLoadPolicyBytes_StoredURI(t *testing.T) {
	t.Setenv("WARDENCTL_STORE_ROOT", t.TempDir())
	s, err := openDefaultStore()
	require.NoError(t, err)

	_, err = s.Add("registry://ghcr.io/acme/policy:v1", []byte("wasm-a"))
	require.NoError(t, err)

	data, err := loadPolicyBytes(context.Background(), "registry://ghcr.io/acme/policy:v1")
	require.NoError(t, err)
	assert.Equal(t, []byte("wasm-a"), data)
}

func TestLoadPolicyBytes_LocalFile(t *testing.T) {
	t.Setenv("WARDENCTL_STORE_ROOT", t.TempDir())

	path := filepath.Join(t.TempDir(), "policy.wasm")
	require.NoError(t, os.WriteFile(path, []byte("wasm-local"), 0o644))

	data, err := loadPolicyBytes(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []byte("wasm-local"), data)
}

func TestLoadPolicyBytes_MissingReference(t *testing.T) {
	t.Setenv("WARDENCTL_STORE_ROOT", t.TempDir())

	_, err := loadPolicyBytes(context.Background(), filepath.Join(t.TempDir(), "absent.wasm"))
	assert.ErrorContains(t, err, "cannot read policy file")
}
