package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreUnavailableError(t *testing.T) {
	cause := fs.ErrPermission
	err := &StoreUnavailableError{Err: cause, Path: "/tmp/session.jsonl", Op: "append"}

	assert.Contains(t, err.Error(), "append")
	assert.Contains(t, err.Error(), "/tmp/session.jsonl")
	assert.True(t, stderrors.Is(err, fs.ErrPermission))

	var target *StoreUnavailableError
	assert.True(t, stderrors.As(fmt.Errorf("wrapped: %w", err), &target))
	assert.Equal(t, "append", target.Op)
}

func TestCorruptSessionError(t *testing.T) {
	cause := stderrors.New("unexpected end of JSON input")
	err := &CorruptSessionError{Err: cause, Path: "session.jsonl", Line: 3}

	assert.Contains(t, err.Error(), "session.jsonl:3")
	assert.True(t, stderrors.Is(err, cause))
}

func TestNotRecordedError(t *testing.T) {
	err := &NotRecordedError{Key: `{"capability":"net.dns"}`}
	assert.Contains(t, err.Error(), "not present in replay session")
	assert.Contains(t, err.Error(), "net.dns")
}

func TestBackendError(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := &BackendError{Err: cause, Capability: "kubernetes", Operation: "list_resources"}

	assert.Contains(t, err.Error(), "kubernetes/list_resources")
	assert.True(t, stderrors.Is(err, cause))
}

func TestMetadataError(t *testing.T) {
	cause := stderrors.New("missing rules")
	assert.Contains(t, (&MetadataError{Err: cause, Path: "policy.wasm"}).Error(), "policy.wasm")
	assert.Contains(t, (&MetadataError{Err: cause}).Error(), "invalid policy metadata")
}
