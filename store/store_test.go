package store

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AddAndResolve(t *testing.T) {
	s := New(t.TempDir())

	digest, err := s.Add("registry://ghcr.io/acme/policy:v1", []byte("wasm-a"))
	require.NoError(t, err)
	assert.Len(t, digest, 64)

	entry, err := s.Resolve("registry://ghcr.io/acme/policy:v1")
	require.NoError(t, err)
	assert.Equal(t, digest, entry.Digest)

	byPrefix, err := s.Resolve(digest[:12])
	require.NoError(t, err)
	assert.Equal(t, entry, byPrefix)

	data, err := s.Read(entry)
	require.NoError(t, err)
	assert.Equal(t, []byte("wasm-a"), data)
}

func TestStore_ResolveMisses(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Add("registry://ghcr.io/acme/policy:v1", []byte("wasm-a"))
	require.NoError(t, err)

	_, err = s.Resolve("registry://ghcr.io/acme/other:v1")
	assert.Error(t, err)
}

func TestStore_ResolveAmbiguousPrefix(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Add("a", []byte("wasm-a"))
	require.NoError(t, err)
	_, err = s.Add("b", []byte("wasm-b"))
	require.NoError(t, err)

	_, err = s.Resolve("")
	assert.ErrorContains(t, err, "ambiguous")
}

func TestStore_ListIsSortedByURI(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Add("registry://z/policy:v1", []byte("z"))
	require.NoError(t, err)
	_, err = s.Add("registry://a/policy:v1", []byte("a"))
	require.NoError(t, err)

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "registry://a/policy:v1", entries[0].URI)
	assert.Equal(t, "registry://z/policy:v1", entries[1].URI)
}

func TestStore_RemoveKeepsSharedModules(t *testing.T) {
	s := New(t.TempDir())
	digest, err := s.Add("registry://a/policy:v1", []byte("shared"))
	require.NoError(t, err)
	_, err = s.Add("registry://b/policy:v1", []byte("shared"))
	require.NoError(t, err)

	require.NoError(t, s.Remove("registry://a/policy:v1"))

	// Still referenced by the second URI.
	_, err = os.Stat(s.modulePath(digest))
	require.NoError(t, err)

	require.NoError(t, s.Remove("registry://b/policy:v1"))
	_, err = os.Stat(s.modulePath(digest))
	assert.True(t, os.IsNotExist(err))
}

func TestStore_ReAddReplacesDigest(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Add("registry://a/policy:v1", []byte("old"))
	require.NoError(t, err)
	newDigest, err := s.Add("registry://a/policy:v1", []byte("new"))
	require.NoError(t, err)

	entry, err := s.Resolve("registry://a/policy:v1")
	require.NoError(t, err)
	assert.Equal(t, newDigest, entry.Digest)

	entries, err := s.List()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestArchive_RoundTrip(t *testing.T) {
	src := New(t.TempDir())
	_, err := src.Add("registry://a/policy:v1", []byte("wasm-a"))
	require.NoError(t, err)
	_, err = src.Add("registry://b/policy:v2", []byte("wasm-b"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, src.SaveArchive(&buf, nil))

	dst := New(t.TempDir())
	require.NoError(t, dst.LoadArchive(&buf))

	entries, err := dst.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	entry, err := dst.Resolve("registry://a/policy:v1")
	require.NoError(t, err)
	data, err := dst.Read(entry)
	require.NoError(t, err)
	assert.Equal(t, []byte("wasm-a"), data)
}

func TestArchive_SelectedURIs(t *testing.T) {
	src := New(t.TempDir())
	_, err := src.Add("registry://a/policy:v1", []byte("wasm-a"))
	require.NoError(t, err)
	_, err = src.Add("registry://b/policy:v2", []byte("wasm-b"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, src.SaveArchive(&buf, []string{"registry://a/policy:v1"}))

	dst := New(t.TempDir())
	require.NoError(t, dst.LoadArchive(&buf))

	entries, err := dst.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "registry://a/policy:v1", entries[0].URI)
}

func TestArchive_RejectsTamperedModule(t *testing.T) {
	src := New(t.TempDir())
	digest, err := src.Add("registry://a/policy:v1", []byte("wasm-a"))
	require.NoError(t, err)

	// Corrupt the stored module after indexing.
	require.NoError(t, os.WriteFile(src.modulePath(digest), []byte("tampered"), 0o644))

	var buf bytes.Buffer
	require.NoError(t, src.SaveArchive(&buf, nil))

	dst := New(t.TempDir())
	assert.ErrorContains(t, dst.LoadArchive(&buf), "does not match its digest")
}
