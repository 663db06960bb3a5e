package ports

import "context"

// PolicyFetcher retrieves a policy module's raw bytes from a URI.
// Supported schemes depend on the implementation (file://, https://,
// registry://).
type PolicyFetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}
