package callback

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wardenlab/wardenctl/domain/entities"
	dErrors "github.com/wardenlab/wardenctl/domain/errors"
)

// FormatVersion is the session file format version written and accepted by
// this package.
const FormatVersion = 1

// sessionHeader is the first record of every session file.
type sessionHeader struct {
	Version   int       `json:"version"`
	SessionID uuid.UUID `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Recorder appends session entries to a file. Appends are serialized and
// individually synced: a crash mid-run yields a valid truncated session,
// never a corrupt one.
type Recorder struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	closed bool
}

// OpenRecorder creates or truncates the session file at path and writes the
// session header. An existing file is overwritten with a warning.
func OpenRecorder(path string) (*Recorder, error) {
	if _, err := os.Stat(path); err == nil {
		slog.Warn("session file already exists and will be overwritten", "path", path)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &dErrors.StoreUnavailableError{Op: "open", Path: path, Err: err}
	}

	r := &Recorder{file: file, path: path}
	header := sessionHeader{
		Version:   FormatVersion,
		SessionID: uuid.New(),
		CreatedAt: time.Now().UTC(),
	}
	if err := r.writeRecord(header); err != nil {
		file.Close()
		return nil, err
	}
	return r, nil
}

// Append durably writes one session entry. Entries for identical keys are
// recorded as independent repetitions, never deduplicated.
func (r *Recorder) Append(key string, outcome entities.CapabilityOutcome, sequence uint64) error {
	entry := entities.SessionEntry{Key: key, Sequence: sequence, Outcome: outcome}
	return r.writeRecord(entry)
}

// Close flushes and closes the session file. It is safe to call more than
// once.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.file.Sync(); err != nil {
		r.file.Close()
		return &dErrors.StoreUnavailableError{Op: "append", Path: r.path, Err: err}
	}
	if err := r.file.Close(); err != nil {
		return &dErrors.StoreUnavailableError{Op: "append", Path: r.path, Err: err}
	}
	return nil
}

// Path returns the session file destination.
func (r *Recorder) Path() string {
	return r.path
}

// writeRecord marshals v and appends it as one line. The line is written
// with a single Write call and synced before returning, so an in-progress
// append either completes or leaves no partial flush behind.
func (r *Recorder) writeRecord(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &dErrors.StoreUnavailableError{Op: "append", Path: r.path, Err: err}
	}
	line := append(data, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return &dErrors.StoreUnavailableError{Op: "append", Path: r.path, Err: fmt.Errorf("session recorder already closed")}
	}
	if _, err := r.file.Write(line); err != nil {
		return &dErrors.StoreUnavailableError{Op: "append", Path: r.path, Err: err}
	}
	if err := r.file.Sync(); err != nil {
		return &dErrors.StoreUnavailableError{Op: "append", Path: r.path, Err: err}
	}
	return nil
}

// Index holds a fully loaded session: a per-key FIFO queue of outcomes in
// recorded order. Per-key queues (rather than one global cursor) keep replay
// correct when unrelated capability calls interleave differently between the
// recorded and the replayed run, while still reproducing per-key repetition
// faithfully.
type Index struct {
	mu     sync.Mutex
	queues map[string][]entities.CapabilityOutcome
	total  int
}

// OpenIndex reads the whole session file at path and builds the replay
// index. It fails with StoreUnavailableError when the file cannot be read,
// is empty, or never got a complete header, and with CorruptSessionError on
// the first unparsable record. A torn trailing line without a final newline
// is ignored.
func OpenIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &dErrors.StoreUnavailableError{Op: "read", Path: path, Err: err}
	}
	if len(data) == 0 {
		return nil, &dErrors.StoreUnavailableError{Op: "read", Path: path, Err: fmt.Errorf("session file is empty")}
	}

	complete := bytes.HasSuffix(data, []byte{'\n'})
	lines := bytes.Split(data, []byte{'\n'})
	if complete {
		lines = lines[:len(lines)-1]
	}

	idx := &Index{queues: make(map[string][]entities.CapabilityOutcome)}
	headerLoaded := false
	for i, line := range lines {
		torn := !complete && i == len(lines)-1

		if i == 0 {
			var header sessionHeader
			if err := strictUnmarshal(line, &header); err != nil {
				if torn {
					break
				}
				return nil, &dErrors.CorruptSessionError{Path: path, Line: i + 1, Err: err}
			}
			if header.Version != FormatVersion {
				return nil, &dErrors.CorruptSessionError{
					Path: path,
					Line: i + 1,
					Err:  fmt.Errorf("unsupported session format version %d (want %d)", header.Version, FormatVersion),
				}
			}
			headerLoaded = true
			continue
		}

		var entry entities.SessionEntry
		if err := strictUnmarshal(line, &entry); err != nil {
			if torn {
				slog.Warn("ignoring torn trailing session record", "path", path, "line", i+1)
				break
			}
			return nil, &dErrors.CorruptSessionError{Path: path, Line: i + 1, Err: err}
		}
		idx.queues[entry.Key] = append(idx.queues[entry.Key], entry.Outcome)
		idx.total++
	}

	// A file whose only content is a torn first line never held a usable
	// session; treat it like an empty file rather than an empty session.
	if !headerLoaded {
		return nil, &dErrors.StoreUnavailableError{Op: "read", Path: path, Err: fmt.Errorf("session file has no complete header")}
	}

	return idx, nil
}

// Take pops the next recorded outcome for key in FIFO order. ok is false
// when the key was never recorded or its queue is exhausted.
func (i *Index) Take(key string) (outcome entities.CapabilityOutcome, ok bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	queue := i.queues[key]
	if len(queue) == 0 {
		return entities.CapabilityOutcome{}, false
	}
	outcome = queue[0]
	i.queues[key] = queue[1:]
	return outcome, true
}

// Len returns the number of entries loaded from the session file.
func (i *Index) Len() int {
	return i.total
}

// strictUnmarshal decodes one record, rejecting fields the format does not
// define and trailing bytes after the value, so that garbage lines cannot
// masquerade as valid records.
func strictUnmarshal(line []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after record")
	}
	return nil
}
