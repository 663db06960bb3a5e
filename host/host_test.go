package host

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenlab/wardenctl/callback"
	"github.com/wardenlab/wardenctl/domain/entities"
	"github.com/wardenlab/wardenctl/domain/ports"
)

func directProxy(t *testing.T) *callback.Proxy {
	t.Helper()

	gateway := ports.GatewayFunc(func(_ context.Context, _ entities.CapabilityRequest) entities.CapabilityOutcome {
		return entities.SuccessOutcome(json.RawMessage(`{}`))
	})
	proxy, err := callback.NewProxy(callback.Direct(), gateway)
	require.NoError(t, err)
	return proxy
}

func TestNewExecutor(t *testing.T) {
	ctx := context.Background()

	executor, err := NewExecutor(ctx, directProxy(t))
	require.NoError(t, err)
	require.NoError(t, executor.Close(ctx))
}

func TestNewExecutor_RequiresProxy(t *testing.T) {
	_, err := NewExecutor(context.Background(), nil)
	assert.Error(t, err)
}

func TestLoadPolicy_RejectsInvalidModule(t *testing.T) {
	ctx := context.Background()

	executor, err := NewExecutor(ctx, directProxy(t))
	require.NoError(t, err)
	defer executor.Close(ctx)

	_, err = executor.LoadPolicy(ctx, []byte("not a wasm module"))
	assert.Error(t, err)
}

func TestCallScope_ContextRoundTrip(t *testing.T) {
	scope := &callScope{}
	ctx := withCallScope(context.Background(), scope)

	got, ok := callScopeFrom(ctx)
	require.True(t, ok)
	assert.Same(t, scope, got)

	_, ok = callScopeFrom(context.Background())
	assert.False(t, ok)
}
