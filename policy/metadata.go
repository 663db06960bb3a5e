// Package policy reads and writes the metadata embedded in annotated policy
// modules. Metadata lives in a wasm custom section so a policy file remains
// self-describing wherever it travels.
package policy

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/wardenlab/wardenctl/domain/entities"
	dErrors "github.com/wardenlab/wardenctl/domain/errors"
)

// MetadataSectionName is the wasm custom section carrying policy metadata.
const MetadataSectionName = "wardenctl_metadata"

var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

var validate = validator.New()

// ValidateMetadata checks a metadata payload against the structural rules
// policies must satisfy (at least one rule, known operations, known
// execution modes).
func ValidateMetadata(meta *entities.Metadata) error {
	if err := validate.Struct(meta); err != nil {
		return &dErrors.MetadataError{Err: err}
	}
	return nil
}

// ReadMetadata extracts the metadata section from a policy module. It
// returns (nil, nil) when the module carries no metadata section.
func ReadMetadata(wasmBytes []byte) (*entities.Metadata, error) {
	payload, err := findCustomSection(wasmBytes, MetadataSectionName)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}

	var meta entities.Metadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, &dErrors.MetadataError{Err: fmt.Errorf("cannot decode metadata section: %w", err)}
	}
	return &meta, nil
}

// Annotate validates meta and returns a copy of the module with the metadata
// section replaced (or appended when absent).
func Annotate(wasmBytes []byte, meta *entities.Metadata) ([]byte, error) {
	if err := ValidateMetadata(meta); err != nil {
		return nil, err
	}

	stripped, err := removeCustomSection(wasmBytes, MetadataSectionName)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(meta)
	if err != nil {
		return nil, &dErrors.MetadataError{Err: err}
	}

	section := encodeCustomSection(MetadataSectionName, payload)
	annotated := make([]byte, 0, len(stripped)+len(section))
	annotated = append(annotated, stripped...)
	annotated = append(annotated, section...)
	return annotated, nil
}

// findCustomSection returns the payload of the named custom section, or nil
// when the section is absent.
func findCustomSection(wasmBytes []byte, name string) ([]byte, error) {
	sections, err := scanSections(wasmBytes)
	if err != nil {
		return nil, err
	}
	for _, s := range sections {
		if s.id == 0 && s.customName == name {
			return s.customPayload, nil
		}
	}
	return nil, nil
}

// removeCustomSection returns the module without the named custom section.
func removeCustomSection(wasmBytes []byte, name string) ([]byte, error) {
	sections, err := scanSections(wasmBytes)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(wasmBytes))
	out = append(out, wasmBytes[:len(wasmMagic)]...)
	for _, s := range sections {
		if s.id == 0 && s.customName == name {
			continue
		}
		out = append(out, s.raw...)
	}
	return out, nil
}

type section struct {
	customName    string
	customPayload []byte
	raw           []byte
	id            byte
}

// scanSections walks the module's section framing. It validates only the
// framing, not the section contents; wazero does full validation at load
// time.
func scanSections(wasmBytes []byte) ([]section, error) {
	if len(wasmBytes) < len(wasmMagic) || !bytes.Equal(wasmBytes[:len(wasmMagic)], wasmMagic) {
		return nil, fmt.Errorf("not a wasm module: bad magic header")
	}

	var sections []section
	offset := len(wasmMagic)
	for offset < len(wasmBytes) {
		start := offset
		id := wasmBytes[offset]
		offset++

		size, n, err := readULEB128(wasmBytes[offset:])
		if err != nil {
			return nil, fmt.Errorf("malformed section size at offset %d: %w", offset, err)
		}
		offset += n

		if uint64(len(wasmBytes)-offset) < size {
			return nil, fmt.Errorf("section at offset %d exceeds module length", start)
		}
		contents := wasmBytes[offset : offset+int(size)]
		offset += int(size)

		s := section{id: id, raw: wasmBytes[start:offset]}
		if id == 0 {
			nameLen, n, err := readULEB128(contents)
			if err != nil || uint64(len(contents)-n) < nameLen {
				return nil, fmt.Errorf("malformed custom section name at offset %d", start)
			}
			s.customName = string(contents[n : n+int(nameLen)])
			s.customPayload = contents[n+int(nameLen):]
		}
		sections = append(sections, s)
	}
	return sections, nil
}

// encodeCustomSection frames a custom section: id 0, uleb128 size, then
// uleb128-prefixed name and the payload.
func encodeCustomSection(name string, payload []byte) []byte {
	var body []byte
	body = appendULEB128(body, uint64(len(name)))
	body = append(body, name...)
	body = append(body, payload...)

	out := []byte{0x00}
	out = appendULEB128(out, uint64(len(body)))
	return append(out, body...)
}

func readULEB128(data []byte) (value uint64, n int, err error) {
	var shift uint
	for i, b := range data {
		if i >= 10 {
			break
		}
		value |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, fmt.Errorf("unterminated uleb128")
}

func appendULEB128(out []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}
