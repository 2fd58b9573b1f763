package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	ChatID          string `json:"chat_id"`
	Text            string `json:"text"`
	MessageThreadID string `json:"message_thread_id"`
	ParseMode       string `json:"parse_mode"`
}

func TestSendFirstAttemptSucceeds(t *testing.T) {
	var mu sync.Mutex
	var requests []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req capturedRequest
		_ = json.Unmarshal(body, &req)
		mu.Lock()
		requests = append(requests, req)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := &TelegramSender{
		Token:      "test-token",
		ChatID:     "-100123",
		TopicID:    "42",
		APIBaseURL: srv.URL,
		HTTPClient: srv.Client(),
	}

	err := sender.Send(context.Background(), "Đơn SH2025ABC đã được gia hạn.")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, requests, 1)
	assert.Equal(t, "-100123", requests[0].ChatID)
	assert.Equal(t, "42", requests[0].MessageThreadID)
	assert.Equal(t, "HTML", requests[0].ParseMode)
}

func TestSendDegradesToPlainText(t *testing.T) {
	var mu sync.Mutex
	var requests []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req capturedRequest
		_ = json.Unmarshal(body, &req)
		mu.Lock()
		requests = append(requests, req)
		mu.Unlock()
		// reject everything except a plain-text message
		if req.MessageThreadID != "" || req.ParseMode != "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"description":"message thread not found"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := &TelegramSender{
		Token:      "test-token",
		ChatID:     "-100123",
		TopicID:    "42",
		APIBaseURL: srv.URL,
		HTTPClient: srv.Client(),
	}

	err := sender.Send(context.Background(), "hello")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, requests, 3)
	assert.NotEmpty(t, requests[0].MessageThreadID)
	assert.Empty(t, requests[1].MessageThreadID)
	assert.Empty(t, requests[2].ParseMode)
}

func TestSendExhaustsAttempts(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	sender := &TelegramSender{
		Token:      "test-token",
		ChatID:     "-100123",
		APIBaseURL: srv.URL,
		HTTPClient: srv.Client(),
	}

	err := sender.Send(context.Background(), "hello")
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, calls)
}

func TestSendRequiresConfiguration(t *testing.T) {
	sender := &TelegramSender{}
	err := sender.Send(context.Background(), "hello")
	require.Error(t, err)
}
