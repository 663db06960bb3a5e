package ports

import (
	"context"
	"encoding/json"

	"github.com/wardenlab/wardenctl/domain/entities"
)

// ClusterClient answers cluster-state queries on behalf of context-aware
// policies. The concrete client (and its authentication) is supplied by the
// embedding environment.
type ClusterClient interface {
	// List returns the serialized list of resources of the given kind.
	List(ctx context.Context, gvk entities.GroupVersionKind, namespace, labelSelector string) (json.RawMessage, error)

	// Get returns one serialized resource by namespace and name.
	Get(ctx context.Context, gvk entities.GroupVersionKind, namespace, name string) (json.RawMessage, error)
}
