package host

import (
	"context"
	"encoding/json"

	"github.com/tetratelabs/wazero/api"

	"github.com/wardenlab/wardenctl/domain/entities"
	"github.com/wardenlab/wardenctl/guestlog"
)

// callScope carries the per-evaluation callback state through the context
// handed to guest calls. The fatal field records a determinism-compromising
// store failure raised inside the host function, where the guest ABI has no
// error channel; the caller inspects it after the guest call returns.
type callScope struct {
	eval  capabilityCaller
	fatal error
}

// capabilityCaller is the slice of callback.Evaluation the adapter needs.
type capabilityCaller interface {
	Call(ctx context.Context, req entities.CapabilityRequest) (entities.CapabilityOutcome, error)
}

type callScopeKey struct{}

func withCallScope(ctx context.Context, scope *callScope) context.Context {
	return context.WithValue(ctx, callScopeKey{}, scope)
}

func callScopeFrom(ctx context.Context) (*callScope, bool) {
	scope, ok := ctx.Value(callScopeKey{}).(*callScope)
	return scope, ok
}

// registerHostModule instantiates the warden_host module. Policies import
// two functions:
//
//	host_callback(packed) -> packed  capability call, JSON request in, JSON outcome out
//	log_message(packed)              structured guest logging
//
// Pointers and lengths travel packed into one uint64 (ptr in the high 32
// bits), matching the guest-side allocate convention.
func (e *Executor) registerHostModule(ctx context.Context) error {
	builder := e.runtime.NewHostModuleBuilder(hostModuleName)

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, packed uint64) uint64 {
			payload, ok := readPacked(m, packed)
			if !ok {
				return 0
			}

			scope, ok := callScopeFrom(ctx)
			if !ok {
				e.logger.Error("host_callback invoked outside an evaluation scope")
				return 0
			}
			if scope.fatal != nil {
				// A previous call already poisoned this evaluation.
				return 0
			}

			var req entities.CapabilityRequest
			var outcome entities.CapabilityOutcome
			if err := json.Unmarshal(payload, &req); err != nil {
				outcome = entities.FailureOutcome(entities.FailureKindBackend,
					"malformed capability request: "+err.Error())
			} else {
				var err error
				outcome, err = scope.eval.Call(ctx, req)
				if err != nil {
					scope.fatal = err
					return 0
				}
			}

			resp, err := json.Marshal(outcome)
			if err != nil {
				return 0
			}
			return writePacked(ctx, m, resp)
		}).
		Export("host_callback")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, packed uint64) {
			payload, ok := readPacked(m, packed)
			if !ok {
				return
			}
			guestlog.Emit(ctx, e.logger, payload)
		}).
		Export("log_message")

	_, err := builder.Instantiate(ctx)
	return err
}

// readPacked reads a guest buffer addressed by a packed ptr/len pair.
func readPacked(m api.Module, packed uint64) ([]byte, bool) {
	ptr := uint32(packed >> 32)
	length := uint32(packed)
	return m.Memory().Read(ptr, length)
}

// writePacked allocates in the guest, copies data, and returns the packed
// ptr/len pair. Returns 0 when the guest allocator is unavailable.
func writePacked(ctx context.Context, m api.Module, data []byte) uint64 {
	allocate := m.ExportedFunction("allocate")
	if allocate == nil {
		return 0
	}
	results, err := allocate.Call(ctx, uint64(len(data)))
	if err != nil || len(results) == 0 {
		return 0
	}
	ptr := uint32(results[0])
	if !m.Memory().Write(ptr, data) {
		return 0
	}
	return (uint64(ptr) << 32) | uint64(len(data))
}
