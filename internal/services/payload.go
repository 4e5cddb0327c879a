package services

import (
	"encoding/json"
	"fmt"
)

// MarshalPayload serializes a success payload to the JSON text a tool returns
func MarshalPayload(payload map[string]any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(data), nil
}

// MarshalFailure serializes an explicit failure payload with an error marker
func MarshalFailure(kind, message string, details map[string]any) (string, error) {
	failure := map[string]any{
		"error_kind": kind,
		"message":    message,
	}
	if len(details) > 0 {
		failure["details"] = details
	}
	return MarshalPayload(failure)
}
