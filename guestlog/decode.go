package guestlog

import (
	"encoding/json"
	"fmt"
)

// decode parses a guest log payload. A record must at least carry a message;
// anything else is treated as a raw payload by the caller.
func decode(payload []byte) (Record, error) {
	var record Record
	if err := json.Unmarshal(payload, &record); err != nil {
		return Record{}, fmt.Errorf("malformed guest log record: %w", err)
	}
	if record.Message == "" {
		return Record{}, fmt.Errorf("guest log record has no message")
	}
	return record, nil
}
