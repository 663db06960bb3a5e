package callback

import (
	"encoding/json"
	"fmt"

	"github.com/wardenlab/wardenctl/domain/entities"
)

// Canonicalize derives the deterministic key for a capability request.
// The same logical request always yields the same key, independent of the
// in-memory construction order of its arguments.
func Canonicalize(req entities.CapabilityRequest) (string, error) {
	envelope := struct {
		Capability string         `json:"capability"`
		Operation  string         `json:"operation"`
		Arguments  map[string]any `json:"arguments,omitempty"`
	}{
		Capability: req.Capability,
		Operation:  req.Operation,
		Arguments:  req.Arguments,
	}

	key, err := canonicalJSON(envelope)
	if err != nil {
		return "", fmt.Errorf("cannot canonicalize capability request %s/%s: %w", req.Capability, req.Operation, err)
	}
	return string(key), nil
}

// canonicalJSON encodes v with object keys sorted at every nesting level.
// The value is round-tripped through generic JSON types so that embedded
// raw payloads are normalized too.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}

	return json.Marshal(generic)
}
