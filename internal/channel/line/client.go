package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIError is a non-2xx response from the Messaging API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("LINE API error (%d): %s", e.Status, e.Message)
}

// Client calls the Messaging API endpoints the channel needs.
type Client struct {
	base   string
	token  string
	client *http.Client
}

// NewClient creates a Messaging API client rooted at base.
func NewClient(base, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		token:  token,
		client: &http.Client{Timeout: timeout},
	}
}

type replyRequest struct {
	ReplyToken string    `json:"replyToken"`
	Messages   []message `json:"messages"`
}

type pushRequest struct {
	To       string    `json:"to"`
	Messages []message `json:"messages"`
}

// Reply answers a webhook event using its reply token.
func (c *Client) Reply(ctx context.Context, token string, msgs []message) error {
	return c.post(ctx, "/v2/bot/message/reply", replyRequest{ReplyToken: token, Messages: msgs})
}

// Push sends messages to a user outside of a reply window.
func (c *Client) Push(ctx context.Context, userID string, msgs []message) error {
	return c.post(ctx, "/v2/bot/message/push", pushRequest{To: userID, Messages: msgs})
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var apiErr struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(respBody))
	if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
		msg = apiErr.Message
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
