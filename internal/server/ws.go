package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"souschef/internal/agent/domain"
	"souschef/internal/agent/ports"
)

// StreamFrame is one websocket message. Progress frames carry an event;
// the closing frame carries the task result.
type StreamFrame struct {
	Type   string             `json:"type"`
	Event  *ports.Event       `json:"event,omitempty"`
	Result *domain.TaskResult `json:"result,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// handleTaskStream runs one task per connection. The client sends a task
// request as its first message and receives step events as they happen,
// then a final result frame.
func (s *Server) handleTaskStream(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed: %v", err)
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: "websocket upgrade failed"})
		return
	}
	defer conn.Close()

	var req TaskRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteJSON(StreamFrame{Type: "error", Error: "invalid task request"})
		return
	}

	recipient := strings.TrimSpace(req.Recipient)
	if recipient == "" {
		recipient = s.deps.Recipient
	}

	// The listener runs inline in this goroutine, so writes never interleave
	listener := ports.EventListenerFunc(func(event ports.Event) {
		frame := StreamFrame{Type: "event", Event: &event}
		if err := conn.WriteJSON(frame); err != nil {
			s.logger.Warn("websocket write failed: %v", err)
		}
	})

	result := s.newEngine(listener).Run(c.Request.Context(), domain.TaskInput{
		Subject:        req.Subject,
		AvailableItems: req.AvailableItems,
		Recipient:      recipient,
	})

	if err := conn.WriteJSON(StreamFrame{Type: "result", Result: result}); err != nil {
		s.logger.Warn("websocket result write failed: %v", err)
	}

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "task finished"))
}
