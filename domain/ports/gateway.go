package ports

import (
	"context"

	"github.com/wardenlab/wardenctl/domain/entities"
)

// CapabilityGateway executes a capability call against the real external
// system (cluster API, network, registry). Implementations may perform
// network I/O; backend failures are folded into the returned outcome rather
// than reported as Go errors, since a policy may be designed to handle them.
type CapabilityGateway interface {
	Execute(ctx context.Context, req entities.CapabilityRequest) entities.CapabilityOutcome
}

// GatewayFunc adapts a plain function to the CapabilityGateway interface.
type GatewayFunc func(ctx context.Context, req entities.CapabilityRequest) entities.CapabilityOutcome

// Execute implements CapabilityGateway.
func (f GatewayFunc) Execute(ctx context.Context, req entities.CapabilityRequest) entities.CapabilityOutcome {
	return f(ctx, req)
}
