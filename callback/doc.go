// Package callback intermediates every host-capability call a sandboxed
// policy makes during evaluation. The proxy runs in one of three modes:
// direct pass-through, record (execute live and persist each exchange), or
// replay (serve persisted exchanges without contacting any live backend),
// which makes policy evaluations byte-for-byte reproducible for benchmarking
// and offline testing.
//
// # Session file format
//
// A session is a JSON Lines file. The first line is a header:
//
//	{"version":1,"session_id":"<uuid>","created_at":"<rfc3339>"}
//
// Every following line is one entry:
//
//	{"key":"<canonical key>","sequence":N,"outcome":{...}}
//
// Records are appended in occurrence order and are never rewritten. Each
// append is a single write followed by a sync, so a crash mid-run leaves a
// truncated-but-parseable file: a torn trailing line (no final newline) is
// ignored at load time, while any other unparsable record aborts loading.
//
// # Canonical keys
//
// The canonical key of a capability request is the canonical JSON encoding
// of the (capability, operation, arguments) envelope: object keys sorted at
// every nesting level, no insignificant whitespace. Two requests are
// equivalent iff their canonical keys are byte-equal. Recorded sessions are
// only compatible across versions that share this encoding.
package callback
