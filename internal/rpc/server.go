package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"souschef/internal/logging"
)

// Methods a capability server answers
const (
	MethodToolsList = "tools/list"
	MethodToolsCall = "tools/call"
)

// ToolFunc handles one tool call and returns the payload as JSON text.
// Failure payloads (objects carrying error_kind) are returned as text too;
// a Go error is reserved for faults the tool could not express as a payload.
type ToolFunc func(ctx context.Context, args map[string]any) (string, error)

// ToolSchema describes a tool a server exposes
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ContentBlock is one piece of a tool call result
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// CallResult is the result envelope of a tools/call invocation. The payload
// travels as serialized text inside a content block, which is where the
// response nesting the decoder unwraps comes from.
type CallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// TextResult wraps payload text in a single-block call result
func TextResult(text string, isError bool) *CallResult {
	return &CallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
		IsError: isError,
	}
}

type toolEntry struct {
	schema ToolSchema
	fn     ToolFunc
}

// Server hosts named tools behind the JSON-RPC framing. Safe for concurrent
// use once registration is done.
type Server struct {
	name   string
	mu     sync.RWMutex
	tools  map[string]toolEntry
	logger logging.Logger
}

// NewServer creates a capability server
func NewServer(name string, logger logging.Logger) *Server {
	return &Server{
		name:   name,
		tools:  make(map[string]toolEntry),
		logger: logging.OrNop(logger),
	}
}

// Name returns the server's name
func (s *Server) Name() string {
	return s.name
}

// RegisterTool adds a tool handler. Re-registering a name replaces it.
func (s *Server) RegisterTool(schema ToolSchema, fn ToolFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools[schema.Name] = toolEntry{schema: schema, fn: fn}
}

// Handle dispatches one JSON-RPC request
func (s *Server) Handle(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case MethodToolsList:
		return s.handleList(req)
	case MethodToolsCall:
		return s.handleCall(ctx, req)
	default:
		return NewErrorResponse(req.ID, MethodNotFound,
			fmt.Sprintf("method not supported: %s", req.Method), nil)
	}
}

func (s *Server) handleList(req *Request) *Response {
	s.mu.RLock()
	schemas := make([]ToolSchema, 0, len(s.tools))
	for _, entry := range s.tools {
		schemas = append(schemas, entry.schema)
	}
	s.mu.RUnlock()

	sort.Slice(schemas, func(i, j int) bool { return schemas[i].Name < schemas[j].Name })
	return NewResponse(req.ID, map[string]any{"tools": schemas})
}

func (s *Server) handleCall(ctx context.Context, req *Request) *Response {
	name, _ := req.Params["name"].(string)
	if name == "" {
		return NewErrorResponse(req.ID, InvalidParams, "tool name is required", nil)
	}

	args, _ := req.Params["arguments"].(map[string]any)
	if args == nil {
		args = map[string]any{}
	}

	s.mu.RLock()
	entry, ok := s.tools[name]
	s.mu.RUnlock()
	if !ok {
		return NewErrorResponse(req.ID, MethodNotFound,
			fmt.Sprintf("tool not found: %s", name), nil)
	}

	s.logger.Debug("[%s] calling tool %s", s.name, name)

	payload, err := entry.fn(ctx, args)
	if err != nil {
		s.logger.Warn("[%s] tool %s failed: %v", s.name, name, err)
		failure, marshalErr := json.Marshal(map[string]any{
			"error_kind": "service_error",
			"message":    err.Error(),
		})
		if marshalErr != nil {
			return NewErrorResponse(req.ID, InternalError, marshalErr.Error(), nil)
		}
		return NewResponse(req.ID, TextResult(string(failure), true))
	}

	return NewResponse(req.ID, TextResult(payload, false))
}
