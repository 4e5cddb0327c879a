package recipe

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"souschef/internal/rpc"
)

func callTool(t *testing.T, server *rpc.Server, name string, args map[string]any) map[string]any {
	t.Helper()

	client := rpc.NewClient(ServerName, server, nil)
	result, err := client.CallTool(context.Background(), name, args)
	require.NoError(t, err)
	require.Len(t, result.Content, 1)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &payload))
	return payload
}

func TestFetchDetailsKnownDish(t *testing.T) {
	server, err := NewServer(nil)
	require.NoError(t, err)

	payload := callTool(t, server, "fetch_details", map[string]any{"subject": "Pasta Carbonara"})
	require.NotContains(t, payload, "error_kind")

	items, ok := payload["required_items"].([]any)
	require.True(t, ok)
	assert.Contains(t, items, "guanciale")

	steps, ok := payload["result_steps"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, steps)
}

func TestFetchDetailsUnknownDish(t *testing.T) {
	server, err := NewServer(nil)
	require.NoError(t, err)

	payload := callTool(t, server, "fetch_details", map[string]any{"subject": "beef wellington"})
	assert.Equal(t, "service_error", payload["error_kind"])
	assert.Contains(t, payload["message"], "beef wellington")

	details, ok := payload["details"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "known_dishes")
}

func TestFetchDetailsMissingSubject(t *testing.T) {
	server, err := NewServer(nil)
	require.NoError(t, err)

	payload := callTool(t, server, "fetch_details", map[string]any{"subject": ""})
	assert.Equal(t, "validation_error", payload["error_kind"])
}

func TestReconcileItems(t *testing.T) {
	server, err := NewServer(nil)
	require.NoError(t, err)

	payload := callTool(t, server, "reconcile_items", map[string]any{
		"required_items":  []any{"Eggs", "guanciale", "salt"},
		"available_items": []any{"SALT", "eggs"},
	})
	require.NotContains(t, payload, "error_kind")
	assert.Equal(t, []any{"guanciale"}, payload["missing_items"])
}

func TestReconcileItemsNothingMissing(t *testing.T) {
	server, err := NewServer(nil)
	require.NoError(t, err)

	payload := callTool(t, server, "reconcile_items", map[string]any{
		"required_items":  []any{"eggs"},
		"available_items": []any{"eggs"},
	})
	assert.Equal(t, []any{}, payload["missing_items"])
}

func TestMissingDeduplicatesAndSorts(t *testing.T) {
	got := Missing([]string{"Salt", "eggs", "EGGS", "guanciale"}, []string{"salt"})
	assert.Equal(t, []string{"eggs", "guanciale"}, got)
}

func TestCatalogLookupIsCaseInsensitive(t *testing.T) {
	catalog, err := LoadCatalog()
	require.NoError(t, err)

	_, ok := catalog.Lookup("  CHICKEN curry ")
	assert.True(t, ok)

	names := catalog.Names()
	assert.Contains(t, names, "pasta carbonara")
	assert.Contains(t, names, "chicken curry")
}
