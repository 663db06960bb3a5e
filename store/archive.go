package store

import (
	"archive/tar"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// SaveArchive writes the selected policies (all when uris is empty) as a tar
// archive: each module file plus a manifest of URI/digest pairs.
func (s *Store) SaveArchive(w io.Writer, uris []string) error {
	entries, err := s.List()
	if err != nil {
		return err
	}
	if len(uris) > 0 {
		selected := make([]Entry, 0, len(uris))
		for _, uri := range uris {
			entry, err := s.Resolve(uri)
			if err != nil {
				return err
			}
			selected = append(selected, entry)
		}
		entries = selected
	}

	tw := tar.NewWriter(w)
	now := time.Now()

	var manifest strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&manifest, "%s %s\n", e.Digest, e.URI)
	}
	if err := writeTarFile(tw, "manifest.txt", []byte(manifest.String()), now); err != nil {
		return err
	}

	written := make(map[string]bool)
	for _, e := range entries {
		if written[e.Digest] {
			continue
		}
		written[e.Digest] = true

		data, err := s.Read(e)
		if err != nil {
			return err
		}
		if err := writeTarFile(tw, path.Join(modulesDir, e.Digest+".wasm"), data, now); err != nil {
			return err
		}
	}
	return tw.Close()
}

// LoadArchive imports policies from a tar archive produced by SaveArchive.
func (s *Store) LoadArchive(r io.Reader) error {
	tr := tar.NewReader(r)

	var manifest []byte
	modules := make(map[string][]byte)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("cannot read archive: %w", err)
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return fmt.Errorf("cannot read archive entry %s: %w", hdr.Name, err)
		}

		switch {
		case hdr.Name == "manifest.txt":
			manifest = data
		case strings.HasPrefix(hdr.Name, modulesDir+"/"):
			digest := strings.TrimSuffix(path.Base(hdr.Name), ".wasm")
			modules[digest] = data
		}
	}
	if manifest == nil {
		return fmt.Errorf("archive has no manifest")
	}

	for _, line := range strings.Split(strings.TrimSpace(string(manifest)), "\n") {
		if line == "" {
			continue
		}
		digest, uri, found := strings.Cut(line, " ")
		if !found {
			return fmt.Errorf("malformed manifest line %q", line)
		}
		data, ok := modules[digest]
		if !ok {
			return fmt.Errorf("archive manifest references missing module %s", digest)
		}
		if Digest(data) != digest {
			return fmt.Errorf("archive module %s does not match its digest", digest)
		}
		if _, err := s.Add(uri, data); err != nil {
			return err
		}
	}
	return nil
}

func writeTarFile(tw *tar.Writer, name string, data []byte, modTime time.Time) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: modTime,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}
