package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenlab/wardenctl/domain/entities"
	dErrors "github.com/wardenlab/wardenctl/domain/errors"
)

// emptyModule is a structurally valid wasm module with no sections.
func emptyModule() []byte {
	return append([]byte{}, wasmMagic...)
}

func sampleMetadata() *entities.Metadata {
	return &entities.Metadata{
		Annotations: map[string]string{
			entities.AnnotationTitle: "disallow-privileged",
		},
		Rules: []entities.Rule{{
			APIGroups:   []string{""},
			APIVersions: []string{"v1"},
			Resources:   []string{"pods"},
			Operations:  []string{"CREATE", "UPDATE"},
		}},
		Mutating: false,
	}
}

func TestAnnotateAndReadRoundTrip(t *testing.T) {
	annotated, err := Annotate(emptyModule(), sampleMetadata())
	require.NoError(t, err)

	meta, err := ReadMetadata(annotated)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, sampleMetadata(), meta)
}

func TestReadMetadata_AbsentSection(t *testing.T) {
	meta, err := ReadMetadata(emptyModule())
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestReadMetadata_RejectsNonWasm(t *testing.T) {
	_, err := ReadMetadata([]byte("definitely not wasm"))
	assert.Error(t, err)
}

func TestAnnotate_ReplacesExistingSection(t *testing.T) {
	first, err := Annotate(emptyModule(), sampleMetadata())
	require.NoError(t, err)

	updated := sampleMetadata()
	updated.Annotations[entities.AnnotationTitle] = "renamed"
	second, err := Annotate(first, updated)
	require.NoError(t, err)

	meta, err := ReadMetadata(second)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "renamed", meta.Annotations[entities.AnnotationTitle])

	// Annotating twice must not accumulate sections.
	sections, err := scanSections(second)
	require.NoError(t, err)
	assert.Len(t, sections, 1)
}

func TestAnnotate_PreservesOtherSections(t *testing.T) {
	module := append(emptyModule(), encodeCustomSection("producers", []byte("tooling"))...)

	annotated, err := Annotate(module, sampleMetadata())
	require.NoError(t, err)

	other, err := findCustomSection(annotated, "producers")
	require.NoError(t, err)
	assert.Equal(t, []byte("tooling"), other)
}

func TestValidateMetadata(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*entities.Metadata)
		wantErr bool
	}{
		{name: "valid", mutate: func(*entities.Metadata) {}},
		{name: "no rules", mutate: func(m *entities.Metadata) { m.Rules = nil }, wantErr: true},
		{
			name:    "unknown operation",
			mutate:  func(m *entities.Metadata) { m.Rules[0].Operations = []string{"PATCH"} },
			wantErr: true,
		},
		{
			name:    "unknown execution mode",
			mutate:  func(m *entities.Metadata) { m.ExecutionMode = "jvm" },
			wantErr: true,
		},
		{
			name:   "wasi execution mode",
			mutate: func(m *entities.Metadata) { m.ExecutionMode = "wasi" },
		},
		{
			name:   "wildcard operation",
			mutate: func(m *entities.Metadata) { m.Rules[0].Operations = []string{"*"} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := sampleMetadata()
			tt.mutate(meta)

			err := ValidateMetadata(meta)
			if tt.wantErr {
				var metaErr *dErrors.MetadataError
				assert.ErrorAs(t, err, &metaErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestULEB128RoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 300, 1 << 20, 1<<32 - 1} {
		encoded := appendULEB128(nil, v)
		decoded, n, err := readULEB128(encoded)
		require.NoError(t, err)
		assert.Equal(t, v, decoded)
		assert.Equal(t, len(encoded), n)
	}
}

func TestScanSections_TruncatedSection(t *testing.T) {
	module := append(emptyModule(), 0x00, 0x7f) // claims 127 bytes, has none
	_, err := scanSections(module)
	assert.Error(t, err)
}
