package capabilities

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ManifestDigestArgs contains parameters for an oci/manifest_digest call.
type ManifestDigestArgs struct {
	// Image is the image reference (host/repository[:tag]).
	Image string `json:"image"`
}

// ManifestDigestResult is the payload returned for an oci/manifest_digest
// call.
type ManifestDigestResult struct {
	// Digest is the manifest digest (e.g., "sha256:...").
	Digest string `json:"digest"`
}

var manifestAcceptHeader = strings.Join([]string{
	"application/vnd.oci.image.manifest.v1+json",
	"application/vnd.oci.image.index.v1+json",
	"application/vnd.docker.distribution.manifest.v2+json",
	"application/vnd.docker.distribution.manifest.list.v2+json",
}, ", ")

func (g *Gateway) ociManifestDigest(ctx context.Context, args map[string]any) (json.RawMessage, error) {
	var req ManifestDigestArgs
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}

	host, repository, reference, err := splitImageReference(req.Image)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("https://%s/v2/%s/manifests/%s", host, repository, reference)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", manifestAcceptHeader)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned status %d for %s", resp.StatusCode, req.Image)
	}
	digest := resp.Header.Get("Docker-Content-Digest")
	if digest == "" {
		return nil, fmt.Errorf("registry did not return a manifest digest for %s", req.Image)
	}

	return json.Marshal(ManifestDigestResult{Digest: digest})
}

// splitImageReference splits "host/repository[:tag]" into its parts. A
// missing tag defaults to "latest", matching registry conventions.
func splitImageReference(image string) (host, repository, reference string, err error) {
	if image == "" {
		return "", "", "", fmt.Errorf("manifest_digest requires an 'image' argument")
	}

	host, rest, found := strings.Cut(image, "/")
	if !found || host == "" || rest == "" {
		return "", "", "", fmt.Errorf("invalid image reference %q", image)
	}

	repository = rest
	reference = "latest"
	if idx := strings.LastIndex(rest, ":"); idx != -1 {
		repository = rest[:idx]
		reference = rest[idx+1:]
	}
	if idx := strings.LastIndex(rest, "@"); idx != -1 {
		repository = rest[:idx]
		reference = rest[idx+1:]
	}
	if repository == "" || reference == "" {
		return "", "", "", fmt.Errorf("invalid image reference %q", image)
	}
	return host, repository, reference, nil
}
