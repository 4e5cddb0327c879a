// Package envelope unwraps capability responses into typed payloads.
//
// A response arrives as text holding a JSON object. The object is either the
// payload itself, an explicit failure payload carrying an error_kind marker,
// or a text-content envelope whose inner text is another serialized payload.
// Capabilities nest at most two levels deep; the decoder walks inward until
// it finds a failure marker or a payload that validates.
package envelope

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"souschef/internal/errors"
)

// MaxUnwrapDepth bounds the inward walk: a flat payload plus two nested
// serialization levels.
const MaxUnwrapDepth = 3

// Payload is a capability success payload that can vouch for its own shape
type Payload interface {
	Validate() error
}

// ContentBlock is one entry of a text-content envelope
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Decode unwraps raw into the expected payload. It returns nil and fills
// `into` on success, a *errors.ServiceError when any level carries a failure
// marker, and a *errors.DecodeError when the text cannot be unwrapped or the
// innermost object does not validate. Already-flat payloads decode on the
// first pass without touching the nesting machinery.
func Decode(raw string, into Payload) error {
	text := strings.TrimSpace(raw)
	if text == "" {
		return errors.NewDecodeError(fmt.Errorf("empty response"), raw, "capability returned an empty response")
	}

	for depth := 0; depth < MaxUnwrapDepth; depth++ {
		obj, normalized, err := parseObject(text)
		if err != nil {
			return errors.NewDecodeError(err, raw,
				fmt.Sprintf("response is not a structured payload: %s", truncate(text, 120)))
		}
		text = normalized

		// Failure markers win over everything, including nested payloads
		// that would otherwise validate.
		if kind, ok := errorMarker(obj); ok {
			message, _ := obj["message"].(string)
			if message == "" {
				message = "capability reported an unspecified failure"
			}
			details, _ := obj["details"].(map[string]any)
			serviceErr := errors.NewServiceError(message, details)
			if kind == errors.KindValidation {
				return errors.NewValidationError("", message)
			}
			return serviceErr
		}

		if inner, ok := innerText(obj); ok {
			text = inner
			continue
		}

		if err := json.Unmarshal([]byte(text), into); err != nil {
			return errors.NewDecodeError(err, raw,
				fmt.Sprintf("payload does not match expected shape: %v", err))
		}
		if err := into.Validate(); err != nil {
			return errors.NewDecodeError(err, raw,
				fmt.Sprintf("payload failed validation: %v", err))
		}
		return nil
	}

	return errors.NewDecodeError(fmt.Errorf("nesting exceeds %d levels", MaxUnwrapDepth), raw,
		"response nesting exhausted without a decodable payload")
}

// parseObject parses text as a JSON object, repairing almost-JSON before
// giving up. It returns the parsed map and the text that actually parsed, so
// later payload unmarshaling sees the repaired form.
func parseObject(text string) (map[string]any, string, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		return obj, text, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(text)
	if repairErr != nil {
		return nil, text, fmt.Errorf("parse failed and repair failed: %w", repairErr)
	}
	if err := json.Unmarshal([]byte(repaired), &obj); err != nil {
		return nil, text, fmt.Errorf("parse failed even after repair: %w", err)
	}
	return obj, repaired, nil
}

// errorMarker reports whether the object is an explicit failure payload
func errorMarker(obj map[string]any) (errors.Kind, bool) {
	for _, key := range []string{"error_kind", "error_type"} {
		if v, ok := obj[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return errors.ParseKind(s), true
			}
		}
	}
	return "", false
}

// innerText extracts the embedded serialized payload of a text-content
// envelope: {"content":[{"type":"text","text":...}]}.
func innerText(obj map[string]any) (string, bool) {
	rawBlocks, ok := obj["content"].([]any)
	if !ok {
		return "", false
	}
	for _, rawBlock := range rawBlocks {
		block, ok := rawBlock.(map[string]any)
		if !ok {
			continue
		}
		if blockType, _ := block["type"].(string); blockType != "text" {
			continue
		}
		if text, ok := block["text"].(string); ok && strings.TrimSpace(text) != "" {
			return text, true
		}
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
