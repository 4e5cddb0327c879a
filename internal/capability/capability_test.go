package capability

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"souschef/internal/agent/ports"
	"souschef/internal/rpc"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()

	server := rpc.NewServer("recipe", nil)
	schema := rpc.ToolSchema{
		Name:        "fetch_details",
		Description: "Look up a recipe",
		InputSchema: Schema(map[string]map[string]any{
			"subject": {"type": "string", "description": "dish name"},
		}, "subject"),
	}
	server.RegisterTool(schema, func(ctx context.Context, args map[string]any) (string, error) {
		return `{"required_items":["eggs"],"result_steps":["mix"]}`, nil
	})

	return NewAdapter(rpc.NewClient("recipe", server, nil), schema)
}

func TestAdapterInvokeReturnsSerializedEnvelope(t *testing.T) {
	adapter := newTestAdapter(t)

	result, err := adapter.Invoke(context.Background(), ports.CapabilityCall{
		ID:        "call-1",
		Name:      "fetch_details",
		Arguments: map[string]any{"subject": "pasta carbonara"},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NoError(t, result.Error)
	assert.Equal(t, "call-1", result.CallID)

	var envelope rpc.CallResult
	require.NoError(t, json.Unmarshal([]byte(result.Content), &envelope))
	require.Len(t, envelope.Content, 1)
	assert.Contains(t, envelope.Content[0].Text, "required_items")
}

func TestAdapterRejectsMissingRequiredArgument(t *testing.T) {
	adapter := newTestAdapter(t)

	result, err := adapter.Invoke(context.Background(), ports.CapabilityCall{
		ID:        "call-2",
		Name:      "fetch_details",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "subject")
}

func TestAdapterDefinition(t *testing.T) {
	adapter := newTestAdapter(t)

	def := adapter.Definition()
	assert.Equal(t, "fetch_details", def.Name)
	assert.Equal(t, []string{"subject"}, def.Parameters.Required)
	assert.Equal(t, "string", def.Parameters.Properties["subject"].Type)
}

func TestRegistryLifecycle(t *testing.T) {
	registry := NewRegistry()
	adapter := newTestAdapter(t)

	require.NoError(t, registry.Register(adapter))
	assert.Error(t, registry.Register(adapter), "duplicate registration must fail")

	got, err := registry.Get("fetch_details")
	require.NoError(t, err)
	assert.Equal(t, adapter, got)

	defs := registry.List()
	require.Len(t, defs, 1)
	assert.Equal(t, "fetch_details", defs[0].Name)

	require.NoError(t, registry.Unregister("fetch_details"))
	_, err = registry.Get("fetch_details")
	assert.Error(t, err)
}
