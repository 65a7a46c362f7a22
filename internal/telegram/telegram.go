package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultBaseURL is the Bot API endpoint.
	DefaultBaseURL = "https://api.telegram.org"
	// MaxMessageLength is the longest text the API accepts in one message.
	MaxMessageLength = 4096

	timeout = 10 * time.Second
)

// ErrMissingCredentials is returned by NewClient without a token or chat.
var ErrMissingCredentials = errors.New("telegram bot token and chat ID are required")

// Client represents a Telegram Bot API client
type Client struct {
	botToken      string
	chatID        string
	baseURL       string
	httpClient    *http.Client
	retries       uint64
	retryInterval time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimSuffix(u, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithRetries sets how many times a rate-limited or failed send is retried.
func WithRetries(n int, interval time.Duration) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = uint64(n)
		}
		if interval > 0 {
			c.retryInterval = interval
		}
	}
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, opts ...Option) (*Client, error) {
	if botToken == "" || chatID == "" {
		return nil, ErrMissingCredentials
	}

	c := &Client{
		botToken:      botToken,
		chatID:        chatID,
		baseURL:       DefaultBaseURL,
		httpClient:    &http.Client{Timeout: timeout},
		retries:       2,
		retryInterval: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// apiResponse is the envelope of every Bot API reply.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage sends an HTML message to the configured chat. Rate limiting
// and server errors are retried; other API errors are returned at once.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	if text == "" {
		return fmt.Errorf("message text is required")
	}

	payload := map[string]interface{}{
		"chat_id":                  c.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	var b backoff.BackOff = backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(c.retryInterval),
		backoff.WithMaxElapsedTime(0),
	)
	b = backoff.WithContext(backoff.WithMaxRetries(b, c.retries), ctx)

	return backoff.Retry(func() error {
		return c.send(ctx, body)
	}, b)
}

func (c *Client) send(ctx context.Context, body []byte) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.botToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var result apiResponse
	decodeErr := json.Unmarshal(data, &result)

	if resp.StatusCode != http.StatusOK {
		reason := strings.TrimSpace(string(data))
		if decodeErr == nil && result.Description != "" {
			reason = result.Description
		}
		apiErr := fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, reason)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return apiErr
		}
		return backoff.Permanent(apiErr)
	}

	if decodeErr != nil {
		return backoff.Permanent(fmt.Errorf("parsing response: %w", decodeErr))
	}
	if !result.OK {
		return backoff.Permanent(fmt.Errorf("telegram API error: %s", result.Description))
	}
	return nil
}
