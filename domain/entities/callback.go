package entities

import "encoding/json"

// Failure kinds folded into a CapabilityOutcome. These are part of the
// capability's result space: a policy may legitimately branch on them.
const (
	// FailureKindBackend indicates the live backend call failed.
	FailureKindBackend = "backend_failure"

	// FailureKindNotRecorded indicates a replay session has no remaining
	// outcome for the requested capability call.
	FailureKindNotRecorded = "capability_not_recorded"
)

// CapabilityRequest describes one host-capability invocation made by a
// sandboxed policy. It is immutable once created: the proxy and the codec
// never mutate it.
type CapabilityRequest struct {
	// Capability identifies the capability family (e.g., "kubernetes",
	// "net.dns", "oci").
	Capability string `json:"capability"`

	// Operation is the operation within the family (e.g., "list", "get",
	// "lookup_host").
	Operation string `json:"operation"`

	// Arguments is a mapping of argument name to a structured,
	// JSON-serializable value. The proxy treats values as opaque.
	Arguments map[string]any `json:"arguments,omitempty"`
}

// CapabilityFailure describes a failed capability call in terms the guest
// can act on.
type CapabilityFailure struct {
	// Kind is a machine-readable failure classifier (FailureKind* constants).
	Kind string `json:"kind"`

	// Message is a human-readable description.
	Message string `json:"message"`
}

// CapabilityOutcome is the single result produced for a CapabilityRequest:
// either a successful structured response or a failure descriptor, never both.
type CapabilityOutcome struct {
	// Response holds the raw successful response payload.
	Response json.RawMessage `json:"response,omitempty"`

	// Failure holds the failure descriptor when the call did not succeed.
	Failure *CapabilityFailure `json:"failure,omitempty"`
}

// SuccessOutcome creates an outcome carrying a successful response payload.
func SuccessOutcome(response json.RawMessage) CapabilityOutcome {
	return CapabilityOutcome{Response: response}
}

// FailureOutcome creates an outcome carrying a failure descriptor.
func FailureOutcome(kind, message string) CapabilityOutcome {
	return CapabilityOutcome{Failure: &CapabilityFailure{Kind: kind, Message: message}}
}

// Failed reports whether the outcome carries a failure descriptor.
func (o CapabilityOutcome) Failed() bool {
	return o.Failure != nil
}

// SessionEntry is one persisted (key, outcome) pair. Sequence records the
// relative order of occurrence within a single evaluation run; identical keys
// may legitimately recur with different outcomes.
type SessionEntry struct {
	// Key is the canonical key of the CapabilityRequest that produced
	// this entry.
	Key string `json:"key"`

	// Sequence is the per-run occurrence counter.
	Sequence uint64 `json:"sequence"`

	// Outcome is the response or failure returned to the guest.
	Outcome CapabilityOutcome `json:"outcome"`
}
