package ports

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Capability executes a single named remote call
type Capability interface {
	// Invoke runs the capability with given arguments
	Invoke(ctx context.Context, call CapabilityCall) (*CapabilityResult, error)

	// Definition returns the capability's request schema
	Definition() CapabilityDefinition
}

// CapabilityRegistry manages available capabilities
type CapabilityRegistry interface {
	// Register adds a capability to the registry
	Register(capability Capability) error

	// Get retrieves a capability by name
	Get(name string) (Capability, error)

	// List returns all available capability definitions
	List() []CapabilityDefinition

	// Unregister removes a capability
	Unregister(name string) error
}

// CapabilityCall represents a request to invoke a capability
type CapabilityCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	TaskID    string         `json:"task_id,omitempty"`
}

// CapabilityResult is the raw invocation result. Content is the undecoded
// response text; the envelope decoder owns unwrapping it.
type CapabilityResult struct {
	CallID   string         `json:"call_id"`
	Content  string         `json:"content"`
	Error    error          `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	TaskID   string         `json:"task_id,omitempty"`
}

// MarshalJSON customizes CapabilityResult encoding to support the error interface.
func (r CapabilityResult) MarshalJSON() ([]byte, error) {
	type Alias struct {
		CallID   string         `json:"call_id"`
		Content  string         `json:"content"`
		Error    any            `json:"error,omitempty"`
		Metadata map[string]any `json:"metadata,omitempty"`
		TaskID   string         `json:"task_id,omitempty"`
	}

	alias := Alias{
		CallID:   r.CallID,
		Content:  r.Content,
		Metadata: r.Metadata,
		TaskID:   r.TaskID,
	}

	if r.Error != nil {
		alias.Error = r.Error.Error()
	}

	return json.Marshal(alias)
}

// UnmarshalJSON customizes decoding to accept both string and object error representations.
func (r *CapabilityResult) UnmarshalJSON(data []byte) error {
	type Alias struct {
		CallID   string          `json:"call_id"`
		Content  string          `json:"content"`
		Error    json.RawMessage `json:"error"`
		Metadata map[string]any  `json:"metadata,omitempty"`
		TaskID   string          `json:"task_id,omitempty"`
	}

	var aux Alias
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.CallID = aux.CallID
	r.Content = aux.Content
	r.Metadata = aux.Metadata
	r.TaskID = aux.TaskID
	r.Error = nil

	raw := strings.TrimSpace(string(aux.Error))
	if raw == "" || raw == "null" {
		return nil
	}

	var errStr string
	if err := json.Unmarshal(aux.Error, &errStr); err == nil {
		if errStr != "" {
			r.Error = errors.New(errStr)
		}
		return nil
	}

	var errObj map[string]any
	if err := json.Unmarshal(aux.Error, &errObj); err == nil {
		if msg, ok := errObj["message"].(string); ok && msg != "" {
			r.Error = errors.New(msg)
			return nil
		}
		if msg, ok := errObj["error"].(string); ok && msg != "" {
			r.Error = errors.New(msg)
			return nil
		}
	}

	// Fallback: use the raw JSON string as the error message
	if raw != "" {
		r.Error = errors.New(raw)
	}

	return nil
}

// CapabilityDefinition describes a capability's request contract
type CapabilityDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}

// ParameterSchema defines capability parameters (JSON Schema format)
type ParameterSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property defines a single parameter
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Items       string `json:"items,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
}

// Logger is the printf-style logging contract the domain depends on
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Clock abstracts time for deterministic tests
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
