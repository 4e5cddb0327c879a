package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"souschef/internal/agent/domain"
	"souschef/internal/app"
	"souschef/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	container, err := app.Build(context.Background(), app.Options{
		Config: config.Config{MaxIterations: 20},
	})
	require.NoError(t, err)

	return New(Deps{
		Dispatcher:     container.Dispatcher,
		Registry:       container.Registry,
		DeliveryClient: container.DeliveryClient,
		MaxIterations:  20,
		Recipient:      "fallback@example.com",
	}, DefaultConfig())
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestRunTaskEndToEnd(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/tasks", TaskRequest{
		Subject:        "pasta carbonara",
		AvailableItems: []string{"spaghetti", "salt", "black pepper", "pecorino cheese"},
		Recipient:      "cook@example.com",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success bool              `json:"success"`
		Data    domain.TaskResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, domain.StopCompleted, resp.Data.StopReason)
	assert.Contains(t, resp.Data.Answer, "Here is how to make pasta carbonara")
	assert.True(t, resp.Data.FinalState.OrderPlaced)
	assert.NotEmpty(t, resp.Data.FinalState.OrderID)
}

func TestRunTaskUsesDefaultRecipient(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/tasks", TaskRequest{
		Subject:        "pasta carbonara",
		AvailableItems: []string{"spaghetti", "salt", "black pepper", "pecorino cheese"},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Data domain.TaskResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "fallback@example.com", resp.Data.FinalState.Recipient)
	assert.True(t, resp.Data.FinalState.NotificationSent)
}

func TestRunTaskBadBody(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunTaskEmptySubject(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/tasks", TaskRequest{Subject: "  "})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
}

func TestOrderStatusLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/tasks", TaskRequest{
		Subject:        "pasta carbonara",
		AvailableItems: []string{"spaghetti", "salt", "black pepper", "pecorino cheese"},
		Recipient:      "cook@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var taskResp struct {
		Data domain.TaskResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &taskResp))
	orderID := taskResp.Data.FinalState.OrderID
	require.NotEmpty(t, orderID)

	statusRec := doJSON(t, s.Handler(), http.MethodGet, "/api/orders/"+orderID, nil)
	require.Equal(t, http.StatusOK, statusRec.Code, statusRec.Body.String())

	var statusResp struct {
		Success bool                      `json:"success"`
		Data    domain.OrderStatusPayload `json:"data"`
	}
	require.NoError(t, json.Unmarshal(statusRec.Body.Bytes(), &statusResp))
	assert.True(t, statusResp.Success)
	assert.Equal(t, "processing", statusResp.Data.Status)
	assert.NotEmpty(t, statusResp.Data.Items)
}

func TestOrderStatusUnknownOrder(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/orders/no-such-order", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "no-such-order")
}

func TestCapabilitiesListing(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/capabilities", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	names := make([]string, 0, len(resp.Data))
	for _, def := range resp.Data {
		names = append(names, def.Name)
	}
	assert.Equal(t, []string{
		"check_order_status", "fetch_details", "notify", "place_order", "reconcile_items",
	}, names)
}

func TestTaskStreamWebSocket(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/tasks"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(TaskRequest{
		Subject:        "chicken curry",
		AvailableItems: []string{"rice", "onion", "garlic", "ginger"},
		Recipient:      "cook@example.com",
	}))

	var events int
	var result *domain.TaskResult
	for {
		var frame StreamFrame
		if err := conn.ReadJSON(&frame); err != nil {
			break
		}
		switch frame.Type {
		case "event":
			events++
		case "result":
			result = frame.Result
		}
		if frame.Type == "result" {
			break
		}
	}

	require.NotNil(t, result, "stream must end with a result frame")
	assert.Equal(t, domain.StopCompleted, result.StopReason)
	assert.Greater(t, events, 0, "expected progress events before the result")
}
