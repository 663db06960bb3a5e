// Package errors provides domain-specific error types for wardenctl.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import "fmt"

// StoreUnavailableError indicates the session file could not be opened,
// written, or read. It is fatal to the run: a partially recorded session is
// unsafe to trust for later replay.
type StoreUnavailableError struct {
	Err  error
	Path string
	Op   string // "open", "append", "read"
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("session store unavailable (%s %s): %v", e.Op, e.Path, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// CorruptSessionError indicates a persisted session record could not be
// parsed. Loading aborts on the first corrupt record: silently skipping it
// would produce undetected nondeterminism during replay.
type CorruptSessionError struct {
	Err  error
	Path string
	Line int
}

func (e *CorruptSessionError) Error() string {
	return fmt.Sprintf("corrupt session record at %s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *CorruptSessionError) Unwrap() error {
	return e.Err
}

// NotRecordedError indicates a replay session has no remaining outcome for
// a capability key. It is surfaced to the guest as a capability failure, not
// as a crash, so the policy's own error handling governs the verdict.
type NotRecordedError struct {
	Key string
}

func (e *NotRecordedError) Error() string {
	return fmt.Sprintf("capability call not present in replay session: %s", e.Key)
}

// BackendError indicates the live capability backend failed. It is part of
// the capability's result space and is folded into the outcome returned to
// the guest.
type BackendError struct {
	Err        error
	Capability string
	Operation  string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("capability backend %s/%s failed: %v", e.Capability, e.Operation, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// MetadataError indicates the policy metadata section is missing or invalid.
type MetadataError struct {
	Err  error
	Path string
}

func (e *MetadataError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("invalid policy metadata in %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("invalid policy metadata: %v", e.Err)
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}
