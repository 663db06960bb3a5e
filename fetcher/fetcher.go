// Package fetcher retrieves policy modules from URIs. It natively supports
// file:// and http(s):// sources; registry:// transport is an external
// collaborator supplied through ports.PolicyFetcher by environments that
// carry a registry client.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Fetcher is the built-in ports.PolicyFetcher.
type Fetcher struct {
	client *http.Client
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client used for http(s) sources.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the policy module bytes for uri.
func (f *Fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid policy uri %q: %w", uri, err)
	}

	switch parsed.Scheme {
	case "file":
		data, err := os.ReadFile(parsed.Path)
		if err != nil {
			return nil, fmt.Errorf("cannot read policy file: %w", err)
		}
		return data, nil

	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
		if err != nil {
			return nil, err
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("cannot download policy: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("cannot download policy: server returned status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)

	case "registry":
		return nil, fmt.Errorf("registry:// sources require a registry-capable fetcher; none is configured")

	default:
		return nil, fmt.Errorf("unsupported policy uri scheme %q", parsed.Scheme)
	}
}

// NormalizeURI maps a bare filesystem path to a file:// URI and appends the
// :latest tag to registry URIs that carry none, so that store bookkeeping
// keys stay unambiguous.
func NormalizeURI(uriOrPath string) (string, error) {
	if strings.Contains(uriOrPath, "://") {
		return addLatestIfTagNotPresent(uriOrPath), nil
	}

	abs, err := filepath.Abs(uriOrPath)
	if err != nil {
		return "", fmt.Errorf("cannot resolve path %q: %w", uriOrPath, err)
	}
	return "file://" + abs, nil
}

// addLatestIfTagNotPresent appends ":latest" to registry URIs that name no
// tag. Other schemes pass through untouched.
func addLatestIfTagNotPresent(uri string) string {
	if !strings.HasPrefix(uri, "registry://") {
		return uri
	}
	if strings.Count(uri, ":") >= 2 {
		// Scheme separator plus an explicit tag.
		return uri
	}
	return uri + ":latest"
}
