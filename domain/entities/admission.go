package entities

import "encoding/json"

// AdmissionRequest is the evaluation input handed to a policy: a Kubernetes
// admission-style request. The policy interprets the object payloads; the
// host passes them through untouched.
type AdmissionRequest struct {
	UID       string          `json:"uid,omitempty"`
	Kind      GroupVersionKind `json:"kind"`
	Name      string          `json:"name,omitempty"`
	Namespace string          `json:"namespace,omitempty"`
	Operation string          `json:"operation"`
	Object    json.RawMessage `json:"object,omitempty"`
	OldObject json.RawMessage `json:"oldObject,omitempty"`
}

// GroupVersionKind identifies the resource kind under evaluation.
type GroupVersionKind struct {
	Group   string `json:"group"`
	Version string `json:"version"`
	Kind    string `json:"kind"`
}

// AdmissionResponse is the policy's verdict.
type AdmissionResponse struct {
	UID           string          `json:"uid,omitempty"`
	Allowed       bool            `json:"allowed"`
	Message       string          `json:"message,omitempty"`
	Code          int             `json:"code,omitempty"`
	MutatedObject json.RawMessage `json:"mutated_object,omitempty"`
}

// SettingsValidationResponse is the policy's verdict on its own settings.
type SettingsValidationResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}
