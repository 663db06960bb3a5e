package entities

// Rule describes the resource kinds and operations a policy reacts to.
type Rule struct {
	APIGroups   []string `json:"apiGroups" yaml:"apiGroups" validate:"required"`
	APIVersions []string `json:"apiVersions" yaml:"apiVersions" validate:"required"`
	Resources   []string `json:"resources" yaml:"resources" validate:"required,min=1"`
	Operations  []string `json:"operations" yaml:"operations" validate:"required,min=1,dive,oneof=CREATE UPDATE DELETE CONNECT *"`
}

// Metadata is the descriptive payload embedded into an annotated policy
// module. It travels inside a custom section of the wasm binary so a policy
// file stays self-describing.
type Metadata struct {
	// Annotations carries free-form descriptive pairs
	// (io.wardenlab.policy.title, io.wardenlab.policy.author, ...).
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`

	// Rules declares the resources the policy wants to evaluate.
	Rules []Rule `json:"rules" yaml:"rules" validate:"required,min=1,dive"`

	// Mutating marks policies that may rewrite the object under evaluation.
	Mutating bool `json:"mutating" yaml:"mutating"`

	// ContextAwareResources lists the cluster resource kinds the policy is
	// allowed to query through the host capability surface.
	ContextAwareResources []string `json:"contextAwareResources,omitempty" yaml:"contextAwareResources,omitempty"`

	// ExecutionMode selects the guest ABI (currently only "wasi").
	ExecutionMode string `json:"executionMode,omitempty" yaml:"executionMode,omitempty" validate:"omitempty,oneof=wasi"`
}

// AnnotationTitle is the conventional annotation key for a policy title.
const AnnotationTitle = "io.wardenlab.policy.title"
