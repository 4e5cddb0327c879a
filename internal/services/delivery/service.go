// Package delivery simulates the grocery ordering service. Orders live in a
// bounded in-memory cache and their status advances with wall-clock time, so
// repeated check_order_status calls show a delivery progressing.
package delivery

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"souschef/internal/agent/ports"
	"souschef/internal/capability"
	"souschef/internal/logging"
	"souschef/internal/rpc"
	"souschef/internal/services"
)

// ServerName identifies this service in logs and adapters
const ServerName = "delivery"

// Order status progression thresholds
const (
	processingWindow = 60 * time.Second
	deliveryWindow   = 120 * time.Second
)

// Keeps memory bounded when the server runs for long stretches
const maxTrackedOrders = 256

// Order is one placed order
type Order struct {
	ID       string
	Items    []string
	Total    float64
	PlacedAt time.Time
}

// Service holds the simulated order book
type Service struct {
	mu     sync.Mutex
	orders *lru.Cache[string, Order]
	clock  ports.Clock
	logger logging.Logger
}

// NewService creates the delivery service. A nil clock means wall time.
func NewService(clock ports.Clock, logger logging.Logger) (*Service, error) {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	orders, err := lru.New[string, Order](maxTrackedOrders)
	if err != nil {
		return nil, fmt.Errorf("create order cache: %w", err)
	}
	return &Service{
		orders: orders,
		clock:  clock,
		logger: logging.OrNop(logger),
	}, nil
}

// NewServer builds the delivery capability server
func NewServer(clock ports.Clock, logger logging.Logger) (*rpc.Server, error) {
	svc, err := NewService(clock, logger)
	if err != nil {
		return nil, err
	}
	return svc.Server(logger), nil
}

// Server exposes the service's tools behind the JSON-RPC framing
func (s *Service) Server(logger logging.Logger) *rpc.Server {
	server := rpc.NewServer(ServerName, logger)

	server.RegisterTool(rpc.ToolSchema{
		Name:        "place_order",
		Description: "Place a grocery order for the given items",
		InputSchema: capability.Schema(map[string]map[string]any{
			"items": {"type": "array", "description": "Items to order"},
		}, "items"),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		return s.placeOrder(args)
	})

	server.RegisterTool(rpc.ToolSchema{
		Name:        "check_order_status",
		Description: "Check the delivery status of an order",
		InputSchema: capability.Schema(map[string]map[string]any{
			"order_id": {"type": "string", "description": "Order identifier"},
		}, "order_id"),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		return s.checkOrderStatus(args)
	})

	return server
}

func (s *Service) placeOrder(args map[string]any) (string, error) {
	items := services.StringSliceArg(args, "items")
	if len(items) == 0 {
		return services.MarshalFailure("validation_error", "items is required", nil)
	}

	var total float64
	var unknown []string
	normalized := make([]string, 0, len(items))
	for _, item := range items {
		name := normalize(item)
		price, ok := Price(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		normalized = append(normalized, name)
		total += price
	}

	if len(unknown) > 0 {
		return services.MarshalFailure("service_error",
			fmt.Sprintf("items not available: %s", strings.Join(unknown, ", ")),
			map[string]any{"unavailable_items": unknown})
	}

	total = math.Round(total*100) / 100
	order := Order{
		ID:       uuid.NewString(),
		Items:    normalized,
		Total:    total,
		PlacedAt: s.clock.Now(),
	}

	s.mu.Lock()
	s.orders.Add(order.ID, order)
	s.mu.Unlock()

	s.logger.Info("order %s placed: %d items, total %.2f", order.ID, len(order.Items), order.Total)

	return services.MarshalPayload(map[string]any{
		"order_id": order.ID,
		"total":    order.Total,
		"placed":   true,
	})
}

func (s *Service) checkOrderStatus(args map[string]any) (string, error) {
	orderID := services.StringArg(args, "order_id")
	if orderID == "" {
		return services.MarshalFailure("validation_error", "order_id is required", nil)
	}

	s.mu.Lock()
	order, ok := s.orders.Get(orderID)
	s.mu.Unlock()
	if !ok {
		return services.MarshalFailure("service_error",
			fmt.Sprintf("order not found: %s", orderID), nil)
	}

	age := s.clock.Now().Sub(order.PlacedAt)
	status := "delivered"
	switch {
	case age < processingWindow:
		status = "processing"
	case age < deliveryWindow:
		status = "out_for_delivery"
	}

	return services.MarshalPayload(map[string]any{
		"status": status,
		"items":  order.Items,
		"total":  order.Total,
	})
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
