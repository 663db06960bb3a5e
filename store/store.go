// Package store keeps the local copy of pulled policy modules. Modules are
// content-addressed by sha256 digest; a YAML index maps source URIs to
// digests so listings and lookups stay human-readable.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	indexFile  = "index.yaml"
	modulesDir = "sha256"
)

// Entry is one stored policy.
type Entry struct {
	URI    string `yaml:"uri"`
	Digest string `yaml:"digest"`
}

// index is the on-disk listing, kept sorted by URI for stable output.
type index struct {
	Entries []Entry `yaml:"entries"`
}

// Store is a content-addressed policy module store rooted at a directory.
type Store struct {
	root string
}

// New returns a store rooted at root. The directory is created lazily on
// first write.
func New(root string) *Store {
	return &Store{root: root}
}

// DefaultRoot returns the per-user store location, honoring the
// WARDENCTL_STORE_ROOT override used by tests and CI.
func DefaultRoot() (string, error) {
	if root := os.Getenv("WARDENCTL_STORE_ROOT"); root != "" {
		return root, nil
	}
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user cache directory: %w", err)
	}
	return filepath.Join(cache, "wardenctl", "store"), nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Add stores a policy module under its sha256 digest and records the URI in
// the index. Re-adding the same URI replaces its digest mapping.
func (s *Store) Add(uri string, wasmBytes []byte) (string, error) {
	digest := Digest(wasmBytes)

	if err := os.MkdirAll(filepath.Join(s.root, modulesDir), 0o755); err != nil {
		return "", fmt.Errorf("cannot create store directory: %w", err)
	}
	if err := os.WriteFile(s.modulePath(digest), wasmBytes, 0o644); err != nil {
		return "", fmt.Errorf("cannot write policy module: %w", err)
	}

	idx, err := s.readIndex()
	if err != nil {
		return "", err
	}
	idx.set(uri, digest)
	if err := s.writeIndex(idx); err != nil {
		return "", err
	}
	return digest, nil
}

// List returns all stored policies sorted by URI.
func (s *Store) List() ([]Entry, error) {
	idx, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	return idx.Entries, nil
}

// Resolve finds a stored policy by exact URI or by unique digest prefix.
func (s *Store) Resolve(uriOrDigestPrefix string) (Entry, error) {
	idx, err := s.readIndex()
	if err != nil {
		return Entry{}, err
	}

	for _, e := range idx.Entries {
		if e.URI == uriOrDigestPrefix {
			return e, nil
		}
	}

	prefix := strings.TrimPrefix(uriOrDigestPrefix, "sha256:")
	var matches []Entry
	for _, e := range idx.Entries {
		if strings.HasPrefix(e.Digest, prefix) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return Entry{}, fmt.Errorf("no policy found for %q", uriOrDigestPrefix)
	default:
		return Entry{}, fmt.Errorf("digest prefix %q is ambiguous (%d matches)", uriOrDigestPrefix, len(matches))
	}
}

// Remove deletes a stored policy. The module file is kept while another URI
// still references the same digest.
func (s *Store) Remove(uriOrDigestPrefix string) error {
	entry, err := s.Resolve(uriOrDigestPrefix)
	if err != nil {
		return err
	}

	idx, err := s.readIndex()
	if err != nil {
		return err
	}
	idx.remove(entry.URI)
	if err := s.writeIndex(idx); err != nil {
		return err
	}

	for _, e := range idx.Entries {
		if e.Digest == entry.Digest {
			return nil
		}
	}
	if err := os.Remove(s.modulePath(entry.Digest)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot remove policy module: %w", err)
	}
	return nil
}

// ModulePath returns the filesystem path of a stored policy module.
func (s *Store) ModulePath(e Entry) string {
	return s.modulePath(e.Digest)
}

// Read returns the raw bytes of a stored policy module.
func (s *Store) Read(e Entry) ([]byte, error) {
	data, err := os.ReadFile(s.modulePath(e.Digest))
	if err != nil {
		return nil, fmt.Errorf("cannot read policy module: %w", err)
	}
	return data, nil
}

// Digest computes the hex-encoded sha256 digest of a policy module.
func Digest(wasmBytes []byte) string {
	sum := sha256.Sum256(wasmBytes)
	return hex.EncodeToString(sum[:])
}

func (s *Store) modulePath(digest string) string {
	return filepath.Join(s.root, modulesDir, digest+".wasm")
}

func (s *Store) readIndex() (*index, error) {
	data, err := os.ReadFile(filepath.Join(s.root, indexFile))
	if os.IsNotExist(err) {
		return &index{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read store index: %w", err)
	}

	var idx index
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("cannot parse store index: %w", err)
	}
	return &idx, nil
}

func (s *Store) writeIndex(idx *index) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("cannot create store directory: %w", err)
	}
	data, err := yaml.Marshal(idx)
	if err != nil {
		return fmt.Errorf("cannot encode store index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.root, indexFile), data, 0o644); err != nil {
		return fmt.Errorf("cannot write store index: %w", err)
	}
	return nil
}

func (i *index) set(uri, digest string) {
	for n := range i.Entries {
		if i.Entries[n].URI == uri {
			i.Entries[n].Digest = digest
			return
		}
	}
	i.Entries = append(i.Entries, Entry{URI: uri, Digest: digest})
	sort.Slice(i.Entries, func(a, b int) bool { return i.Entries[a].URI < i.Entries[b].URI })
}

func (i *index) remove(uri string) {
	kept := i.Entries[:0]
	for _, e := range i.Entries {
		if e.URI != uri {
			kept = append(kept, e)
		}
	}
	i.Entries = kept
}
