package host

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/wardenlab/wardenctl/callback"
	"github.com/wardenlab/wardenctl/domain/entities"
)

// PolicyInstance is an instantiated policy module. A guest call blocks its
// evaluation until an outcome is produced; distinct instances may evaluate
// concurrently against the shared proxy.
type PolicyInstance struct {
	module api.Module
	proxy  *callback.Proxy
}

// Close releases the guest module.
func (p *PolicyInstance) Close(ctx context.Context) error {
	return p.module.Close(ctx)
}

// validationPayload is the document handed to the guest's validate export:
// the admission request plus the policy settings chosen at run time.
type validationPayload struct {
	Request  entities.AdmissionRequest `json:"request"`
	Settings json.RawMessage           `json:"settings,omitempty"`
}

// Validate evaluates the policy against an admission request.
func (p *PolicyInstance) Validate(ctx context.Context, req entities.AdmissionRequest, settings json.RawMessage) (entities.AdmissionResponse, error) {
	var resp entities.AdmissionResponse
	err := p.callJSON(ctx, "validate", validationPayload{Request: req, Settings: settings}, &resp)
	return resp, err
}

// ValidateRaw passes the payload to the guest's validate export untouched and
// returns the raw response. Used for policies that speak a custom contract
// instead of the admission one.
func (p *PolicyInstance) ValidateRaw(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var resp json.RawMessage
	err := p.callJSON(ctx, "validate", payload, &resp)
	return resp, err
}

// ValidateSettings asks the policy to validate its own settings payload.
func (p *PolicyInstance) ValidateSettings(ctx context.Context, settings json.RawMessage) (entities.SettingsValidationResponse, error) {
	if len(settings) == 0 {
		settings = json.RawMessage(`{}`)
	}
	var resp entities.SettingsValidationResponse
	err := p.callJSON(ctx, "validate_settings", settings, &resp)
	return resp, err
}

// callJSON invokes a guest export with a JSON input and decodes its JSON
// result. Every call runs inside a fresh evaluation scope so capability
// calls are serialized and numbered per evaluation.
func (p *PolicyInstance) callJSON(ctx context.Context, export string, input any, output any) error {
	payload, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("cannot encode %s input: %w", export, err)
	}

	scope := &callScope{eval: p.proxy.NewEvaluation()}
	ctx = withCallScope(ctx, scope)

	packed, err := p.callRaw(ctx, export, payload)
	if scope.fatal != nil {
		// The store failure is the root cause; the guest trap it provoked
		// is just noise.
		return scope.fatal
	}
	if err != nil {
		return err
	}
	return p.unmarshalPacked(packed, output)
}

func (p *PolicyInstance) callRaw(ctx context.Context, name string, input []byte) (uint64, error) {
	f := p.module.ExportedFunction(name)
	if f == nil {
		return 0, fmt.Errorf("policy does not export %q", name)
	}

	allocate := p.module.ExportedFunction("allocate")
	if allocate == nil {
		return 0, fmt.Errorf("policy does not export 'allocate'")
	}
	results, err := allocate.Call(ctx, uint64(len(input)))
	if err != nil {
		return 0, fmt.Errorf("failed to allocate in guest: %w", err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("allocate returned no results")
	}
	ptr := uint32(results[0])
	if !p.module.Memory().Write(ptr, input) {
		return 0, fmt.Errorf("failed to write input to guest memory")
	}

	results, err = f.Call(ctx, uint64(ptr), uint64(len(input)))
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0], nil
}

func (p *PolicyInstance) unmarshalPacked(packed uint64, v any) error {
	ptr := uint32(packed >> 32)
	length := uint32(packed)
	if ptr == 0 || length == 0 {
		return fmt.Errorf("null response from policy")
	}
	data, ok := p.module.Memory().Read(ptr, length)
	if !ok {
		return fmt.Errorf("failed to read response from guest memory")
	}
	return json.Unmarshal(data, v)
}
