package callback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenlab/wardenctl/domain/entities"
)

func TestCanonicalize_StableUnderConstructionOrder(t *testing.T) {
	first := entities.CapabilityRequest{
		Capability: "kubernetes",
		Operation:  "list",
		Arguments: map[string]any{
			"namespace":      "default",
			"kind":           "Pod",
			"label_selector": "app=web",
		},
	}

	second := entities.CapabilityRequest{
		Capability: "kubernetes",
		Operation:  "list",
		Arguments:  map[string]any{},
	}
	// Populate in a different order than first.
	second.Arguments["label_selector"] = "app=web"
	second.Arguments["kind"] = "Pod"
	second.Arguments["namespace"] = "default"

	keyFirst, err := Canonicalize(first)
	require.NoError(t, err)
	keySecond, err := Canonicalize(second)
	require.NoError(t, err)

	assert.Equal(t, keyFirst, keySecond)
}

func TestCanonicalize_SortsNestedObjects(t *testing.T) {
	req := entities.CapabilityRequest{
		Capability: "kubernetes",
		Operation:  "get",
		Arguments: map[string]any{
			"selector": map[string]any{
				"zone": "us-east-1",
				"app":  "web",
			},
		},
	}

	key, err := Canonicalize(req)
	require.NoError(t, err)
	assert.Equal(t,
		`{"arguments":{"selector":{"app":"web","zone":"us-east-1"}},"capability":"kubernetes","operation":"get"}`,
		key)
}

func TestCanonicalize_DistinguishesRequests(t *testing.T) {
	tests := []struct {
		name string
		a    entities.CapabilityRequest
		b    entities.CapabilityRequest
	}{
		{
			name: "different operation",
			a:    entities.CapabilityRequest{Capability: "kubernetes", Operation: "list"},
			b:    entities.CapabilityRequest{Capability: "kubernetes", Operation: "get"},
		},
		{
			name: "different capability",
			a:    entities.CapabilityRequest{Capability: "net.dns", Operation: "lookup_host"},
			b:    entities.CapabilityRequest{Capability: "oci", Operation: "lookup_host"},
		},
		{
			name: "different arguments",
			a: entities.CapabilityRequest{
				Capability: "kubernetes", Operation: "list",
				Arguments: map[string]any{"namespace": "default"},
			},
			b: entities.CapabilityRequest{
				Capability: "kubernetes", Operation: "list",
				Arguments: map[string]any{"namespace": "kube-system"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keyA, err := Canonicalize(tt.a)
			require.NoError(t, err)
			keyB, err := Canonicalize(tt.b)
			require.NoError(t, err)
			assert.NotEqual(t, keyA, keyB)
		})
	}
}

func TestCanonicalize_NoArguments(t *testing.T) {
	key, err := Canonicalize(entities.CapabilityRequest{
		Capability: "oci",
		Operation:  "manifest_digest",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"capability":"oci","operation":"manifest_digest"}`, key)
}

func TestCanonicalize_RejectsUnserializableArguments(t *testing.T) {
	_, err := Canonicalize(entities.CapabilityRequest{
		Capability: "kubernetes",
		Operation:  "list",
		Arguments:  map[string]any{"bad": make(chan int)},
	})
	assert.Error(t, err)
}
