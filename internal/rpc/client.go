package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"souschef/internal/logging"
)

// Handler answers JSON-RPC requests. Servers satisfy it directly; a remote
// transport would satisfy it with wire framing.
type Handler interface {
	Handle(ctx context.Context, req *Request) *Response
}

// Client frames tool calls for one capability server
type Client struct {
	serverName string
	handler    Handler
	idGen      *RequestIDGenerator
	logger     logging.Logger
}

// NewClient creates a client bound to a handler
func NewClient(serverName string, handler Handler, logger logging.Logger) *Client {
	return &Client{
		serverName: serverName,
		handler:    handler,
		idGen:      NewRequestIDGenerator(),
		logger:     logging.OrNop(logger),
	}
}

// ServerName returns the name of the server this client talks to
func (c *Client) ServerName() string {
	return c.serverName
}

// CallTool invokes a named tool and returns its result envelope
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (*CallResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := NewRequest(c.idGen.Next(), MethodToolsCall, map[string]any{
		"name":      name,
		"arguments": arguments,
	})

	resp := c.handler.Handle(ctx, req)
	if resp == nil {
		return nil, fmt.Errorf("no response from %s", c.serverName)
	}
	if resp.IsError() {
		return nil, resp.Error
	}

	return decodeCallResult(resp.Result)
}

// ListTools returns the schemas the server exposes
func (c *Client) ListTools(ctx context.Context) ([]ToolSchema, error) {
	req := NewRequest(c.idGen.Next(), MethodToolsList, nil)

	resp := c.handler.Handle(ctx, req)
	if resp == nil {
		return nil, fmt.Errorf("no response from %s", c.serverName)
	}
	if resp.IsError() {
		return nil, resp.Error
	}

	data, err := json.Marshal(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("marshal tools/list result: %w", err)
	}
	var listing struct {
		Tools []ToolSchema `json:"tools"`
	}
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("unmarshal tools/list result: %w", err)
	}
	return listing.Tools, nil
}

// decodeCallResult normalizes a response result into a CallResult. The result
// arrives as `any` because in-process handlers return live values while wire
// transports return parsed JSON.
func decodeCallResult(result any) (*CallResult, error) {
	if cr, ok := result.(*CallResult); ok {
		return cr, nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal tools/call result: %w", err)
	}
	var cr CallResult
	if err := json.Unmarshal(data, &cr); err != nil {
		return nil, fmt.Errorf("unmarshal tools/call result: %w", err)
	}
	return &cr, nil
}
