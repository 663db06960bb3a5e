package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/wardenlab/wardenctl/fetcher"
	"github.com/wardenlab/wardenctl/store"
)

// openDefaultStore opens the per-user policy store.
func openDefaultStore() (*store.Store, error) {
	root, err := store.DefaultRoot()
	if err != nil {
		return nil, err
	}
	return store.New(root), nil
}

// loadPolicyBytes resolves a policy reference (path, URI or digest prefix) to
// module bytes. The store is consulted first, so digest prefixes and already
// pulled URIs resolve without touching the filesystem or the network; local
// files are read directly and anything else is fetched into the store.
func loadPolicyBytes(ctx context.Context, ref string) ([]byte, error) {
	s, err := openDefaultStore()
	if err != nil {
		return nil, err
	}
	if entry, err := s.Resolve(ref); err == nil {
		return s.Read(entry)
	}

	uri, err := fetcher.NormalizeURI(ref)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(parsed.Path)
		if err != nil {
			return nil, fmt.Errorf("cannot read policy file: %w", err)
		}
		return data, nil
	}

	if entry, err := s.Resolve(uri); err == nil {
		return s.Read(entry)
	}

	data, err := fetcher.New().Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	if _, err := s.Add(uri, data); err != nil {
		return nil, err
	}
	return data, nil
}

// readInputFile reads a file, treating "-" as stdin.
func readInputFile(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// resolveSettings merges the mutually exclusive settings flags into one JSON
// payload.
func resolveSettings(settingsPath, settingsJSON string) (json.RawMessage, error) {
	if settingsPath != "" && settingsJSON != "" {
		return nil, fmt.Errorf("--settings-path and --settings-json are mutually exclusive")
	}

	var raw []byte
	switch {
	case settingsPath != "":
		data, err := readInputFile(settingsPath)
		if err != nil {
			return nil, fmt.Errorf("cannot read settings: %w", err)
		}
		raw = data
	case settingsJSON != "":
		raw = []byte(settingsJSON)
	default:
		return nil, nil
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("settings are not valid JSON")
	}
	return raw, nil
}

// printJSON pretty-prints a JSON document to stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
