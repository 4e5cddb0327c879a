package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"souschef/internal/agent/domain"
	"souschef/internal/agent/envelope"
	apperrors "souschef/internal/errors"
	"souschef/internal/rpc"
)

// APIResponse is the uniform JSON wrapper for every API endpoint
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TaskRequest is the body of POST /api/tasks
type TaskRequest struct {
	Subject        string   `json:"subject"`
	AvailableItems []string `json:"available_items"`
	Recipient      string   `json:"recipient"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: gin.H{
			"status": "ok",
			"uptime": time.Since(s.startTime).String(),
		},
	})
}

func (s *Server) handleRunTask(c *gin.Context) {
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: "invalid request body"})
		return
	}

	recipient := strings.TrimSpace(req.Recipient)
	if recipient == "" {
		recipient = s.deps.Recipient
	}

	result := s.newEngine(nil).Run(c.Request.Context(), domain.TaskInput{
		Subject:        req.Subject,
		AvailableItems: req.AvailableItems,
		Recipient:      recipient,
	})

	status := http.StatusOK
	if result.StopReason != domain.StopCompleted {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, APIResponse{Success: result.StopReason == domain.StopCompleted, Data: result})
}

func (s *Server) handleOrderStatus(c *gin.Context) {
	orderID := c.Param("id")
	if s.deps.DeliveryClient == nil {
		c.JSON(http.StatusServiceUnavailable, APIResponse{Success: false, Error: "order lookups are not available"})
		return
	}

	result, err := s.deps.DeliveryClient.CallTool(c.Request.Context(), "check_order_status",
		map[string]any{"order_id": orderID})
	if err != nil {
		s.logger.Error("order status call failed: %v", err)
		c.JSON(http.StatusBadGateway, APIResponse{Success: false, Error: "order status lookup failed"})
		return
	}

	var payload domain.OrderStatusPayload
	if decodeErr := decodeFirstText(result.Content, &payload); decodeErr != nil {
		if apperrors.IsService(decodeErr) || apperrors.IsValidation(decodeErr) {
			c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: apperrors.UserMessage(decodeErr, "order not found")})
			return
		}
		s.logger.Error("order status decode failed: %v", decodeErr)
		c.JSON(http.StatusBadGateway, APIResponse{Success: false, Error: "order status lookup failed"})
		return
	}

	c.JSON(http.StatusOK, APIResponse{Success: true, Data: payload})
}

func (s *Server) handleCapabilities(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: s.deps.Registry.List()})
}

// decodeFirstText unwraps a call result's first text block into payload
func decodeFirstText(content []rpc.ContentBlock, payload envelope.Payload) error {
	for _, block := range content {
		if block.Type == "text" && block.Text != "" {
			return envelope.Decode(block.Text, payload)
		}
	}
	return apperrors.NewDecodeError(nil, "", "empty call result")
}
