// Package telegram implements the chat Messenger against the Telegram
// Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	defaultTimeout = 15 * time.Second
)

// Client sends messages to a single configured chat.
type Client struct {
	httpClient *http.Client
	baseURL    string
	botToken   string
	chatID     string
}

// NewClient creates a Telegram client. baseURL may be empty to use the
// production endpoint.
func NewClient(baseURL, botToken, chatID string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		botToken:   botToken,
		chatID:     chatID,
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts one Markdown message to the configured chat.
func (c *Client) Send(ctx context.Context, text string) error {
	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    c.chatID,
		Text:      text,
		ParseMode: "Markdown",
	})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var decoded sendMessageResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("unexpected status %d: failed to decode response: %w", resp.StatusCode, err)
	}
	if !decoded.OK {
		return fmt.Errorf("telegram rejected message (status %d): %s", resp.StatusCode, decoded.Description)
	}
	return nil
}
