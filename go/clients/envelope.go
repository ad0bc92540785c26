package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// The GD backend wraps list responses in three different envelopes depending
// on the endpoint: a bare array, {"data": [...]}, or {"success": bool,
// "data": [...]}. NormalizeList accepts any of them and returns the raw
// array members, so call sites never re-implement the unwrapping.
func NormalizeList(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to parse list response: %w", err)
		}
		return items, nil
	}

	var envelope struct {
		Success *bool           `json:"success"`
		Error   string          `json:"error"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse response envelope: %w", err)
	}
	if envelope.Success != nil && !*envelope.Success {
		if envelope.Error != "" {
			return nil, fmt.Errorf("server reported failure: %s", envelope.Error)
		}
		return nil, fmt.Errorf("server reported failure")
	}

	if len(envelope.Data) > 0 && !bytes.Equal(envelope.Data, []byte("null")) {
		var items []json.RawMessage
		if err := json.Unmarshal(envelope.Data, &items); err != nil {
			return nil, fmt.Errorf("failed to parse data array: %w", err)
		}
		return items, nil
	}

	// Some endpoints key the array under an arbitrary field; take the first
	// array-valued member.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse response object: %w", err)
	}
	for _, raw := range fields {
		value := bytes.TrimSpace(raw)
		if len(value) > 0 && value[0] == '[' {
			var items []json.RawMessage
			if err := json.Unmarshal(value, &items); err != nil {
				continue
			}
			return items, nil
		}
	}
	return nil, nil
}

// DecodeList normalizes the envelope and unmarshals every member into T.
func DecodeList[T any](body []byte) ([]T, error) {
	raw, err := NormalizeList(body)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, len(raw))
	for _, member := range raw {
		var item T
		if err := json.Unmarshal(member, &item); err != nil {
			return nil, fmt.Errorf("failed to parse list member: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// NormalizeObject unwraps a single-object response from the same envelope
// variants and returns the raw object payload.
func NormalizeObject(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var envelope struct {
		Success *bool           `json:"success"`
		Error   string          `json:"error"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse response envelope: %w", err)
	}
	if envelope.Success != nil && !*envelope.Success {
		if envelope.Error != "" {
			return nil, fmt.Errorf("server reported failure: %s", envelope.Error)
		}
		return nil, fmt.Errorf("server reported failure")
	}
	if len(envelope.Data) > 0 && !bytes.Equal(envelope.Data, []byte("null")) {
		return envelope.Data, nil
	}
	return json.RawMessage(trimmed), nil
}
