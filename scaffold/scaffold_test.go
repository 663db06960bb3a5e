package scaffold

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/wardenlab/wardenctl/domain/entities"
)

func sampleMetadata() *entities.Metadata {
	return &entities.Metadata{
		Annotations: map[string]string{
			entities.AnnotationTitle: "PSP Capabilities",
		},
		Rules: []entities.Rule{
			{
				APIGroups:   []string{"apps"},
				APIVersions: []string{"v1"},
				Resources:   []string{"deployments"},
				Operations:  []string{"CREATE", "UPDATE"},
			},
		},
		Mutating: true,
	}
}

func TestManifest(t *testing.T) {
	data, err := Manifest("registry://ghcr.io/acme/psp-capabilities:v1", sampleMetadata(),
		map[string]any{"allowed_capabilities": []string{"NET_BIND_SERVICE"}})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))

	assert.Equal(t, "ClusterAdmissionPolicy", doc["kind"])
	metadata := doc["metadata"].(map[string]any)
	assert.Equal(t, "psp-capabilities", metadata["name"])

	spec := doc["spec"].(map[string]any)
	assert.Equal(t, "registry://ghcr.io/acme/psp-capabilities:v1", spec["module"])
	assert.Equal(t, true, spec["mutating"])
	assert.Len(t, spec["rules"], 1)
	assert.Contains(t, spec, "settings")
}

func TestManifest_RequiresMetadata(t *testing.T) {
	_, err := Manifest("registry://ghcr.io/acme/policy:v1", nil, nil)
	assert.ErrorContains(t, err, "annotate")
}

func TestAdmissionRequestFixture(t *testing.T) {
	data, err := AdmissionRequestFixture(sampleMetadata())
	require.NoError(t, err)

	var request entities.AdmissionRequest
	require.NoError(t, json.Unmarshal(data, &request))

	assert.Equal(t, "CREATE", request.Operation)
	assert.Equal(t, "Deployment", request.Kind.Kind)
	assert.Equal(t, "apps", request.Kind.Group)
	assert.Equal(t, "v1", request.Kind.Version)
	assert.NotEmpty(t, request.Object)
}

func TestAdmissionRequestFixture_NoRules(t *testing.T) {
	_, err := AdmissionRequestFixture(&entities.Metadata{})
	assert.ErrorContains(t, err, "no rules")
}

func TestVerificationConfig(t *testing.T) {
	data, err := VerificationConfig()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Contains(t, doc, "allOf")
	assert.Contains(t, doc, "anyOf")
}

func TestSchemas(t *testing.T) {
	for name, fn := range map[string]func() ([]byte, error){
		"metadata": MetadataSchema,
		"response": ResponseSchema,
	} {
		t.Run(name, func(t *testing.T) {
			data, err := fn()
			require.NoError(t, err)

			var schema map[string]any
			require.NoError(t, json.Unmarshal(data, &schema))
			assert.Equal(t, "object", schema["type"])
		})
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{title: "PSP Capabilities", want: "psp-capabilities"},
		{title: "  trim.me  ", want: "trim-me"},
		{title: "safe_name-v1.2", want: "safe-name-v1-2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeName(tt.title))
	}
}

func TestKindFromResource(t *testing.T) {
	assert.Equal(t, "Deployment", kindFromResource("deployments"))
	assert.Equal(t, "Pod", kindFromResource("pods"))
	assert.Equal(t, "Pod", kindFromResource("s"))
}
