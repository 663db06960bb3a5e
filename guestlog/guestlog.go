// Package guestlog bridges structured log records emitted by sandboxed
// policies to the host logger. Policies ship records as JSON over the
// log_message host function; unparsable payloads are logged verbatim rather
// than dropped.
package guestlog

import (
	"context"
	"log/slog"
)

// Record is the JSON wire format of one guest log message.
type Record struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Attrs   []Attr `json:"attrs,omitempty"`
}

// Attr is a single key/value pair attached to a guest log record. Values are
// carried as strings; the guest flattens structured values before shipping.
type Attr struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ParseLevel maps a guest level string to a slog level. Unknown levels fall
// back to Info so a misbehaving guest cannot silence its own records.
func ParseLevel(level string) slog.Level {
	switch level {
	case "trace", "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Emit decodes a guest log payload and forwards it through logger. The guest
// is untrusted input: a payload that is not a Record is logged raw.
func Emit(ctx context.Context, logger *slog.Logger, payload []byte) {
	record, err := decode(payload)
	if err != nil {
		logger.Log(ctx, slog.LevelInfo, "policy log (raw)", "payload", string(payload))
		return
	}

	args := make([]any, 0, len(record.Attrs)*2)
	for _, attr := range record.Attrs {
		args = append(args, attr.Key, attr.Value)
	}
	logger.Log(ctx, ParseLevel(record.Level), record.Message, args...)
}
