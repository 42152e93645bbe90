package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/petrijr/expressflow/pkg/api"
)

// EncodePayload serializes a payload as JSON. A nil payload encodes to "".
func EncodePayload(p api.Payload) (string, error) {
	if p == nil {
		return "", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return string(b), nil
}

// DecodePayload is the inverse of EncodePayload.
func DecodePayload(s string) (api.Payload, error) {
	if s == "" {
		return nil, nil
	}
	var p api.Payload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return p, nil
}
