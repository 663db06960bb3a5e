package host

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/wardenlab/wardenctl/callback"
)

// hostModuleName is the wasm import namespace policies use to reach the
// capability callback.
const hostModuleName = "warden_host"

// Executor manages the wazero runtime and the host module that exposes the
// capability callback to policies. One executor may load and evaluate many
// policies; the callback proxy is shared across all of them.
type Executor struct {
	runtime wazero.Runtime
	proxy   *callback.Proxy
	logger  *slog.Logger
}

// Option configures the Executor.
type Option func(*Executor)

// WithExecutorLogger sets the logger used for guest log messages and
// diagnostics.
func WithExecutorLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates an executor wired to the given callback proxy.
func NewExecutor(ctx context.Context, proxy *callback.Proxy, opts ...Option) (*Executor, error) {
	if proxy == nil {
		return nil, fmt.Errorf("executor requires a callback proxy")
	}

	e := &Executor{
		proxy:  proxy,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	rt := wazero.NewRuntime(ctx)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)
	e.runtime = rt

	if err := e.registerHostModule(ctx); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host module: %w", err)
	}

	return e, nil
}

// Close releases the wazero runtime and finalizes the proxy's session file.
func (e *Executor) Close(ctx context.Context) error {
	runtimeErr := e.runtime.Close(ctx)
	if err := e.proxy.Close(); err != nil {
		return err
	}
	return runtimeErr
}

// LoadPolicy instantiates a policy module. Each instance gets its own
// evaluation scope on the shared proxy, so concurrent instances keep
// independent sequence counters.
func (e *Executor) LoadPolicy(ctx context.Context, wasmBytes []byte) (*PolicyInstance, error) {
	mod, err := e.runtime.Instantiate(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate policy module: %w", err)
	}

	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			mod.Close(ctx)
			return nil, fmt.Errorf("failed to call _initialize: %w", err)
		}
	}

	return &PolicyInstance{module: mod, proxy: e.proxy}, nil
}
