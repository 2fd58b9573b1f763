package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/hoangtran-dev/subkeeper/internal/pkg/env"
)

// Sender delivers a human-readable message to the operations channel.
// Contract is send -> ok|fail; callers decide what a failure means.
type Sender interface {
	Send(ctx context.Context, message string) error
}

const (
	defaultTelegramAPIBaseURL = "https://api.telegram.org"
	sendTimeout               = 10 * time.Second
	maxSendAttempts           = 3
)

// TelegramSender posts messages to a Telegram chat via the Bot API. Retries
// narrow the request on each attempt: first the forum topic parameter is
// dropped, then the parse mode and reply markup, so a restrictive chat
// configuration degrades to plain text instead of losing the message.
type TelegramSender struct {
	Token      string
	ChatID     string
	TopicID    string
	APIBaseURL string
	HTTPClient *http.Client
}

// NewTelegramSenderFromEnv builds a sender from TELEGRAM_BOT_TOKEN,
// TELEGRAM_CHAT_ID and optional TELEGRAM_TOPIC_ID.
func NewTelegramSenderFromEnv() *TelegramSender {
	return &TelegramSender{
		Token:      strings.TrimSpace(env.GetEnv("TELEGRAM_BOT_TOKEN", "")),
		ChatID:     strings.TrimSpace(env.GetEnv("TELEGRAM_CHAT_ID", "")),
		TopicID:    strings.TrimSpace(env.GetEnv("TELEGRAM_TOPIC_ID", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("TELEGRAM_API_BASE_URL", defaultTelegramAPIBaseURL)),
		HTTPClient: &http.Client{Timeout: sendTimeout},
	}
}

type sendMessageRequest struct {
	ChatID          string       `json:"chat_id"`
	Text            string       `json:"text"`
	MessageThreadID string       `json:"message_thread_id,omitempty"`
	ParseMode       string       `json:"parse_mode,omitempty"`
	DisablePreview  bool         `json:"disable_web_page_preview,omitempty"`
	ReplyMarkup     *replyMarkup `json:"reply_markup,omitempty"`
}

type replyMarkup struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type inlineButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

func (t *TelegramSender) dashboardMarkup() *replyMarkup {
	url := strings.TrimSpace(env.GetEnv("TELEGRAM_DASHBOARD_URL", ""))
	if url == "" {
		return nil
	}
	return &replyMarkup{InlineKeyboard: [][]inlineButton{{{Text: "Mở dashboard", URL: url}}}}
}

// Send delivers message with a fixed retry budget. Returns the last error
// when every attempt failed.
func (t *TelegramSender) Send(ctx context.Context, message string) error {
	if t.Token == "" || t.ChatID == "" {
		return fmt.Errorf("telegram sender is not configured")
	}

	var lastErr error
	for attempt := 1; attempt <= maxSendAttempts; attempt++ {
		req := sendMessageRequest{
			ChatID: t.ChatID,
			Text:   message,
		}
		switch attempt {
		case 1:
			req.MessageThreadID = t.TopicID
			req.ParseMode = "HTML"
			req.DisablePreview = true
			req.ReplyMarkup = t.dashboardMarkup()
		case 2:
			// Topic may not exist on this chat; retry without routing.
			req.ParseMode = "HTML"
			req.DisablePreview = true
			req.ReplyMarkup = t.dashboardMarkup()
		default:
			// Plain text only as the final fallback.
		}

		lastErr = t.post(ctx, req)
		if lastErr == nil {
			return nil
		}
		log.Warnf("[Notify] telegram send attempt %d/%d failed: %v", attempt, maxSendAttempts, lastErr)
	}
	return fmt.Errorf("telegram send failed after %d attempts: %w", maxSendAttempts, lastErr)
}

func (t *TelegramSender) post(ctx context.Context, payload sendMessageRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(t.APIBaseURL, "/"), t.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := t.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: sendTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram api status %d: %s", resp.StatusCode, string(snippet))
	}
	return nil
}
