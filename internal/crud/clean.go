package crud

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Clean serializes record for a write request and drops every
// relationship placeholder: an object-valued field whose "id" is missing,
// null, "" or -1 is omitted entirely. Scalars, arrays and references that
// carry an identity pass through unchanged.
func Clean(record any) ([]byte, error) {
	fields, err := cleanFields(record)
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// cleanDraft is Clean plus removal of the top-level id, used for creates.
func cleanDraft(record any) ([]byte, error) {
	fields, err := cleanFields(record)
	if err != nil {
		return nil, err
	}
	delete(fields, "id")
	return json.Marshal(fields)
}

func cleanFields(record any) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("record is not a JSON object: %w", err)
	}
	for name, value := range fields {
		if isPlaceholder(value) {
			delete(fields, name)
		}
	}
	return fields, nil
}

func isPlaceholder(value json.RawMessage) bool {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &nested); err != nil {
		return false
	}
	id, ok := nested["id"]
	if !ok {
		return true
	}
	switch string(bytes.TrimSpace(id)) {
	case "null", `""`, "-1":
		return true
	}
	return false
}
