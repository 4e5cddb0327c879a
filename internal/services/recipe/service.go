// Package recipe simulates the recipe lookup service. It answers
// fetch_details with the catalog entry for a dish and reconcile_items with
// the case-normalized set difference between required and available items.
package recipe

import (
	"context"
	"fmt"
	"sort"

	"souschef/internal/capability"
	"souschef/internal/logging"
	"souschef/internal/rpc"
	"souschef/internal/services"
)

// ServerName identifies this service in logs and adapters
const ServerName = "recipe"

// NewServer builds the recipe capability server
func NewServer(logger logging.Logger) (*rpc.Server, error) {
	catalog, err := LoadCatalog()
	if err != nil {
		return nil, err
	}

	server := rpc.NewServer(ServerName, logger)

	server.RegisterTool(rpc.ToolSchema{
		Name:        "fetch_details",
		Description: "Look up the ingredient list and preparation steps for a dish",
		InputSchema: capability.Schema(map[string]map[string]any{
			"subject": {"type": "string", "description": "Name of the dish"},
		}, "subject"),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		return fetchDetails(catalog, args)
	})

	server.RegisterTool(rpc.ToolSchema{
		Name:        "reconcile_items",
		Description: "Compute which required items are not in the available list",
		InputSchema: capability.Schema(map[string]map[string]any{
			"required_items":  {"type": "array", "description": "Items the recipe needs"},
			"available_items": {"type": "array", "description": "Items already in the pantry"},
		}, "required_items"),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		return reconcileItems(args)
	})

	return server, nil
}

func fetchDetails(catalog *Catalog, args map[string]any) (string, error) {
	subject := services.StringArg(args, "subject")
	if subject == "" {
		return services.MarshalFailure("validation_error", "subject is required", nil)
	}

	found, ok := catalog.Lookup(subject)
	if !ok {
		return services.MarshalFailure("service_error",
			fmt.Sprintf("recipe not found: %s", subject),
			map[string]any{"known_dishes": catalog.Names()})
	}

	return services.MarshalPayload(map[string]any{
		"required_items": found.Ingredients,
		"result_steps":   found.Steps,
	})
}

func reconcileItems(args map[string]any) (string, error) {
	required := services.StringSliceArg(args, "required_items")
	available := services.StringSliceArg(args, "available_items")

	if len(required) == 0 {
		return services.MarshalFailure("validation_error", "required_items is required", nil)
	}

	missing := Missing(required, available)
	return services.MarshalPayload(map[string]any{"missing_items": missing})
}

// Missing returns the normalized items of required not present in available,
// sorted for stable output.
func Missing(required, available []string) []string {
	have := make(map[string]struct{}, len(available))
	for _, item := range available {
		have[normalize(item)] = struct{}{}
	}

	seen := make(map[string]struct{}, len(required))
	missing := make([]string, 0, len(required))
	for _, item := range required {
		normalized := normalize(item)
		if normalized == "" {
			continue
		}
		if _, ok := have[normalized]; ok {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		missing = append(missing, normalized)
	}
	sort.Strings(missing)
	return missing
}
