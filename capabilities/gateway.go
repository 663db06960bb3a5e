// Package capabilities implements the live capability backend gateway: the
// component that answers a policy's host-capability calls by querying real
// external systems (DNS, OCI registries, the cluster API). Each capability
// family is a set of typed handlers dispatched by (capability, operation).
//
// The gateway folds its own failures into the returned outcome: a policy may
// legitimately be written to handle backend errors, so they are part of the
// capability's result space rather than host-level errors.
package capabilities

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/wardenlab/wardenctl/domain/entities"
	dErrors "github.com/wardenlab/wardenctl/domain/errors"
	"github.com/wardenlab/wardenctl/domain/ports"
)

// Handler resolves one capability operation. Arguments arrive as the
// guest-provided mapping; the returned payload is the raw response handed
// back to the guest.
type Handler func(ctx context.Context, args map[string]any) (json.RawMessage, error)

// Gateway is the live ports.CapabilityGateway. The handler table is built
// once at construction and immutable afterwards, so dispatch is lock-free.
type Gateway struct {
	handlers   map[string]Handler
	resolver   *net.Resolver
	httpClient *http.Client
	cluster    ports.ClusterClient
	logger     *slog.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithClusterClient wires cluster-state lookups for context-aware policies.
// Without it, kubernetes capability calls fail with a backend failure.
func WithClusterClient(client ports.ClusterClient) GatewayOption {
	return func(g *Gateway) {
		g.cluster = client
	}
}

// WithResolver sets the DNS resolver used by net.dns handlers.
func WithResolver(resolver *net.Resolver) GatewayOption {
	return func(g *Gateway) {
		g.resolver = resolver
	}
}

// WithHTTPClient sets the HTTP client used by registry-facing handlers.
func WithHTTPClient(client *http.Client) GatewayOption {
	return func(g *Gateway) {
		g.httpClient = client
	}
}

// WithGatewayLogger sets the logger used for backend diagnostics.
func WithGatewayLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// NewGateway creates a gateway with all built-in capability families
// registered.
func NewGateway(opts ...GatewayOption) *Gateway {
	g := &Gateway{
		handlers:   make(map[string]Handler),
		resolver:   net.DefaultResolver,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.register("net.dns", "lookup_host", g.dnsLookupHost)
	g.register("oci", "manifest_digest", g.ociManifestDigest)
	g.register("kubernetes", "list_resources", g.clusterList)
	g.register("kubernetes", "get_resource", g.clusterGet)

	return g
}

// Execute implements ports.CapabilityGateway.
func (g *Gateway) Execute(ctx context.Context, req entities.CapabilityRequest) entities.CapabilityOutcome {
	handler, ok := g.handlers[req.Capability+"/"+req.Operation]
	if !ok {
		return entities.FailureOutcome(entities.FailureKindBackend,
			fmt.Sprintf("unsupported capability call: %s/%s", req.Capability, req.Operation))
	}

	payload, err := handler(ctx, req.Arguments)
	if err != nil {
		backendErr := &dErrors.BackendError{Capability: req.Capability, Operation: req.Operation, Err: err}
		g.logger.Debug("capability backend call failed",
			"capability", req.Capability,
			"operation", req.Operation,
			"error", err,
		)
		return entities.FailureOutcome(entities.FailureKindBackend, backendErr.Error())
	}
	return entities.SuccessOutcome(payload)
}

func (g *Gateway) register(capability, operation string, handler Handler) {
	g.handlers[capability+"/"+operation] = handler
}

// decodeArgs converts the guest-provided argument mapping into a typed
// request struct.
func decodeArgs(args map[string]any, v any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("cannot encode capability arguments: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("malformed capability arguments: %w", err)
	}
	return nil
}
