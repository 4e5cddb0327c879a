// Package notify simulates the notification service. Messages are recorded
// in memory and acknowledged with a generated message id.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"souschef/internal/capability"
	"souschef/internal/logging"
	"souschef/internal/rpc"
	"souschef/internal/services"
)

// ServerName identifies this service in logs and adapters
const ServerName = "notify"

// Message is one recorded notification
type Message struct {
	ID          string
	Recipient   string
	SubjectLine string
	Body        string
}

// Service records sent notifications
type Service struct {
	mu     sync.Mutex
	sent   []Message
	logger logging.Logger
}

// NewService creates the notification service
func NewService(logger logging.Logger) *Service {
	return &Service{logger: logging.OrNop(logger)}
}

// NewServer builds the notify capability server
func NewServer(logger logging.Logger) *rpc.Server {
	return NewService(logger).Server(logger)
}

// Server exposes the service's tools behind the JSON-RPC framing
func (s *Service) Server(logger logging.Logger) *rpc.Server {
	server := rpc.NewServer(ServerName, logger)
	server.RegisterTool(rpc.ToolSchema{
		Name:        "notify",
		Description: "Send a notification message to the user",
		InputSchema: capability.Schema(map[string]map[string]any{
			"recipient":    {"type": "string", "description": "Destination address"},
			"subject_line": {"type": "string", "description": "Message subject"},
			"body":         {"type": "string", "description": "Message body"},
		}, "recipient", "subject_line", "body"),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		return s.send(args)
	})

	return server
}

// Sent returns a copy of all recorded messages
func (s *Service) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}

func (s *Service) send(args map[string]any) (string, error) {
	recipient := strings.TrimSpace(services.StringArg(args, "recipient"))
	subjectLine := services.StringArg(args, "subject_line")
	body := services.StringArg(args, "body")

	if recipient == "" {
		return services.MarshalFailure("validation_error", "recipient is required", nil)
	}
	if !strings.Contains(recipient, "@") {
		return services.MarshalFailure("validation_error",
			fmt.Sprintf("recipient is not a valid address: %s", recipient),
			map[string]any{"recipient": recipient})
	}
	if subjectLine == "" || body == "" {
		return services.MarshalFailure("validation_error", "subject_line and body are required", nil)
	}

	msg := Message{
		ID:          "msg-" + uuid.NewString(),
		Recipient:   recipient,
		SubjectLine: subjectLine,
		Body:        body,
	}

	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()

	s.logger.Info("notification %s sent to %s", msg.ID, msg.Recipient)

	return services.MarshalPayload(map[string]any{"message_id": msg.ID})
}
