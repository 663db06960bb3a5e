package capabilities

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wardenlab/wardenctl/domain/entities"
)

// ClusterListArgs contains parameters for a kubernetes/list_resources call.
type ClusterListArgs struct {
	APIVersion    string `json:"api_version"`
	Kind          string `json:"kind"`
	Namespace     string `json:"namespace,omitempty"`
	LabelSelector string `json:"label_selector,omitempty"`
}

// ClusterGetArgs contains parameters for a kubernetes/get_resource call.
type ClusterGetArgs struct {
	APIVersion string `json:"api_version"`
	Kind       string `json:"kind"`
	Namespace  string `json:"namespace,omitempty"`
	Name       string `json:"name"`
}

func (g *Gateway) clusterList(ctx context.Context, args map[string]any) (json.RawMessage, error) {
	if g.cluster == nil {
		return nil, fmt.Errorf("cluster access is not configured; run with --allow-context-aware")
	}

	var req ClusterListArgs
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	if req.Kind == "" {
		return nil, fmt.Errorf("list_resources requires a 'kind' argument")
	}

	return g.cluster.List(ctx, groupVersionKind(req.APIVersion, req.Kind), req.Namespace, req.LabelSelector)
}

func (g *Gateway) clusterGet(ctx context.Context, args map[string]any) (json.RawMessage, error) {
	if g.cluster == nil {
		return nil, fmt.Errorf("cluster access is not configured; run with --allow-context-aware")
	}

	var req ClusterGetArgs
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	if req.Kind == "" || req.Name == "" {
		return nil, fmt.Errorf("get_resource requires 'kind' and 'name' arguments")
	}

	return g.cluster.Get(ctx, groupVersionKind(req.APIVersion, req.Kind), req.Namespace, req.Name)
}

// groupVersionKind parses "group/version" (or bare "version" for the core
// group) into a GroupVersionKind.
func groupVersionKind(apiVersion, kind string) entities.GroupVersionKind {
	gvk := entities.GroupVersionKind{Version: apiVersion, Kind: kind}
	for i := range apiVersion {
		if apiVersion[i] == '/' {
			gvk.Group = apiVersion[:i]
			gvk.Version = apiVersion[i+1:]
			break
		}
	}
	return gvk
}
