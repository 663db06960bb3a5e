// Package scaffold generates starting-point documents from an annotated
// policy module: deployment manifests, admission request fixtures,
// verification configuration and JSON schemas.
package scaffold

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/wardenlab/wardenctl/domain/entities"
)

// manifest is the ClusterAdmissionPolicy document emitted by Manifest.
type manifest struct {
	APIVersion string           `yaml:"apiVersion"`
	Kind       string           `yaml:"kind"`
	Metadata   manifestMetadata `yaml:"metadata"`
	Spec       manifestSpec     `yaml:"spec"`
}

type manifestMetadata struct {
	Name string `yaml:"name"`
}

type manifestSpec struct {
	Module                string          `yaml:"module"`
	Rules                 []entities.Rule `yaml:"rules"`
	Mutating              bool            `yaml:"mutating"`
	ContextAwareResources []string        `yaml:"contextAwareResources,omitempty"`
	Settings              map[string]any  `yaml:"settings,omitempty"`
}

// Manifest renders a ClusterAdmissionPolicy manifest for an annotated policy.
// The resource name is derived from the title annotation when present.
func Manifest(uri string, meta *entities.Metadata, settings map[string]any) ([]byte, error) {
	if meta == nil {
		return nil, fmt.Errorf("policy carries no metadata; annotate it first")
	}

	name := "generated-policy"
	if title, ok := meta.Annotations[entities.AnnotationTitle]; ok && title != "" {
		name = sanitizeName(title)
	}

	doc := manifest{
		APIVersion: "policies.wardenlab.io/v1",
		Kind:       "ClusterAdmissionPolicy",
		Metadata:   manifestMetadata{Name: name},
		Spec: manifestSpec{
			Module:                uri,
			Rules:                 meta.Rules,
			Mutating:              meta.Mutating,
			ContextAwareResources: meta.ContextAwareResources,
			Settings:              settings,
		},
	}
	return yaml.Marshal(doc)
}

// AdmissionRequestFixture builds a sample evaluation input for the first rule
// the policy declares, ready to be edited and fed to the run command.
func AdmissionRequestFixture(meta *entities.Metadata) ([]byte, error) {
	if meta == nil || len(meta.Rules) == 0 {
		return nil, fmt.Errorf("policy declares no rules to derive a request from")
	}

	rule := meta.Rules[0]
	gvk := entities.GroupVersionKind{Kind: "Pod", Version: "v1"}
	if len(rule.Resources) > 0 && rule.Resources[0] != "*" {
		gvk.Kind = kindFromResource(rule.Resources[0])
	}
	if len(rule.APIGroups) > 0 && rule.APIGroups[0] != "*" {
		gvk.Group = rule.APIGroups[0]
	}
	if len(rule.APIVersions) > 0 && rule.APIVersions[0] != "*" {
		gvk.Version = rule.APIVersions[0]
	}

	operation := "CREATE"
	if len(rule.Operations) > 0 && rule.Operations[0] != "*" {
		operation = rule.Operations[0]
	}

	request := entities.AdmissionRequest{
		UID:       "1299d386-525b-4032-98ae-1949f69f9cfc",
		Kind:      gvk,
		Name:      "example",
		Namespace: "default",
		Operation: operation,
		Object: json.RawMessage(fmt.Sprintf(
			`{"apiVersion":%q,"kind":%q,"metadata":{"name":"example","namespace":"default"}}`,
			gvk.Version, gvk.Kind)),
	}
	return json.MarshalIndent(request, "", "  ")
}

// verificationConfig is the signature verification skeleton emitted by
// VerificationConfig.
type verificationConfig struct {
	APIVersion string           `yaml:"apiVersion"`
	AllOf      []signatureEntry `yaml:"allOf,omitempty"`
	AnyOf      *anyOfBlock      `yaml:"anyOf,omitempty"`
}

type signatureEntry struct {
	Kind        string            `yaml:"kind"`
	Owner       string            `yaml:"owner,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty"`
}

type anyOfBlock struct {
	MinimumMatches int              `yaml:"minimumMatches"`
	Signatures     []signatureEntry `yaml:"signatures"`
}

// VerificationConfig renders a signature verification settings skeleton for
// the user to fill in.
func VerificationConfig() ([]byte, error) {
	doc := verificationConfig{
		APIVersion: "v1",
		AllOf: []signatureEntry{
			{Kind: "githubAction", Owner: "wardenlab"},
		},
		AnyOf: &anyOfBlock{
			MinimumMatches: 2,
			Signatures: []signatureEntry{
				{Kind: "githubAction", Owner: "alice"},
				{Kind: "githubAction", Owner: "bob"},
				{Kind: "githubAction", Owner: "charlie"},
			},
		},
	}
	return yaml.Marshal(doc)
}

// MetadataSchema returns the JSON schema of the metadata document accepted by
// the annotate command.
func MetadataSchema() ([]byte, error) {
	return reflectSchema(&entities.Metadata{})
}

// RequestSchema returns the JSON schema of the evaluation input accepted by
// the run command.
func RequestSchema() ([]byte, error) {
	return reflectSchema(&entities.AdmissionRequest{})
}

// ResponseSchema returns the JSON schema of the verdict a policy produces.
func ResponseSchema() ([]byte, error) {
	return reflectSchema(&entities.AdmissionResponse{})
}

func reflectSchema(v any) ([]byte, error) {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(v)
	return json.MarshalIndent(schema, "", "  ")
}

// sanitizeName turns a free-form title into a DNS-1123 friendly resource
// name.
func sanitizeName(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '_', r == '-', r == '.':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// kindFromResource guesses the resource Kind from its plural name
// ("deployments" to "Deployment"). Good enough for a fixture the user edits.
func kindFromResource(resource string) string {
	singular := strings.TrimSuffix(resource, "s")
	if singular == "" {
		return "Pod"
	}
	return strings.ToUpper(singular[:1]) + singular[1:]
}
