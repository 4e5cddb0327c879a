package capability

import (
	"context"
	"encoding/json"
	"fmt"

	"souschef/internal/agent/ports"
	apperrors "souschef/internal/errors"
	"souschef/internal/logging"
	"souschef/internal/rpc"
)

// ToolClient is the slice of rpc.Client the adapter needs
type ToolClient interface {
	CallTool(ctx context.Context, name string, arguments map[string]any) (*rpc.CallResult, error)
	ServerName() string
}

// Adapter exposes one rpc tool as a ports.Capability. The call result is
// passed on serialized; unwrapping it is the envelope decoder's job.
type Adapter struct {
	client ToolClient
	schema rpc.ToolSchema
	logger logging.Logger
}

// NewAdapter wraps a tool behind the Capability interface
func NewAdapter(client ToolClient, schema rpc.ToolSchema) *Adapter {
	return &Adapter{
		client: client,
		schema: schema,
		logger: logging.NewComponentLogger(fmt.Sprintf("Capability[%s/%s]", client.ServerName(), schema.Name)),
	}
}

// Invoke implements ports.Capability
func (a *Adapter) Invoke(ctx context.Context, call ports.CapabilityCall) (*ports.CapabilityResult, error) {
	if err := a.validateArguments(call.Arguments); err != nil {
		return &ports.CapabilityResult{
			CallID: call.ID,
			Error:  err,
			TaskID: call.TaskID,
		}, nil
	}

	a.logger.Debug("invoking %s with args: %v", a.schema.Name, call.Arguments)

	result, err := a.client.CallTool(ctx, a.schema.Name, call.Arguments)
	if err != nil {
		a.logger.Error("call failed: %v", err)
		return &ports.CapabilityResult{
			CallID: call.ID,
			Error:  fmt.Errorf("capability call failed: %w", err),
			TaskID: call.TaskID,
		}, nil
	}

	content, err := json.Marshal(result)
	if err != nil {
		return &ports.CapabilityResult{
			CallID: call.ID,
			Error:  fmt.Errorf("serialize call result: %w", err),
			TaskID: call.TaskID,
		}, nil
	}

	a.logger.Debug("call succeeded: content_length=%d is_error=%v", len(content), result.IsError)

	return &ports.CapabilityResult{
		CallID:  call.ID,
		Content: string(content),
		TaskID:  call.TaskID,
		Metadata: map[string]any{
			"server":    a.client.ServerName(),
			"tool_name": a.schema.Name,
		},
	}, nil
}

// Definition implements ports.Capability
func (a *Adapter) Definition() ports.CapabilityDefinition {
	return ports.CapabilityDefinition{
		Name:        a.schema.Name,
		Description: a.schema.Description,
		Parameters:  a.convertInputSchema(),
	}
}

// convertInputSchema converts the tool's JSON schema to a parameter schema
func (a *Adapter) convertInputSchema() ports.ParameterSchema {
	schema := ports.ParameterSchema{
		Type:       "object",
		Properties: make(map[string]ports.Property),
		Required:   []string{},
	}

	if properties, ok := a.schema.InputSchema["properties"].(map[string]any); ok {
		for propName, propValue := range properties {
			propMap, ok := propValue.(map[string]any)
			if !ok {
				continue
			}
			prop := ports.Property{}
			if typeVal, ok := propMap["type"].(string); ok {
				prop.Type = typeVal
			}
			if descVal, ok := propMap["description"].(string); ok {
				prop.Description = descVal
			}
			schema.Properties[propName] = prop
		}
	}

	if required, ok := a.schema.InputSchema["required"].([]any); ok {
		for _, req := range required {
			if reqStr, ok := req.(string); ok {
				schema.Required = append(schema.Required, reqStr)
			}
		}
	}

	return schema
}

// validateArguments checks required fields against the tool schema
func (a *Adapter) validateArguments(args map[string]any) error {
	required, ok := a.schema.InputSchema["required"].([]any)
	if !ok {
		return nil
	}
	for _, req := range required {
		field, ok := req.(string)
		if !ok {
			continue
		}
		if _, exists := args[field]; !exists {
			return apperrors.NewValidationError(field, fmt.Sprintf("missing required argument: %s", field))
		}
	}
	return nil
}

// Schema builds an InputSchema map from properties and required names, kept
// here so service packages declare their tools without hand-writing maps.
func Schema(properties map[string]map[string]any, required ...string) map[string]any {
	props := make(map[string]any, len(properties))
	for name, def := range properties {
		props[name] = def
	}
	reqList := make([]any, 0, len(required))
	for _, name := range required {
		reqList = append(reqList, name)
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   reqList,
	}
}
