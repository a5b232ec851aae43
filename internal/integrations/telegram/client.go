package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.telegram.org"
	ActionTyping   = "typing"

	defaultTimeout = 60 * time.Second
)

// APIError is returned when the Bot API answers with a non-2xx status or
// ok=false. It never contains the bot token.
type APIError struct {
	Method      string
	StatusCode  int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %s failed with status %d: %s", e.Method, e.StatusCode, e.Description)
}

func (e *APIError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client talks to the Telegram Bot API over plain HTTPS.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(token string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("telegram: bot token must not be empty")
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		token:      token,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return c, nil
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type sendChatActionRequest struct {
	ChatID int64  `json:"chat_id"`
	Action string `json:"action"`
}

// GetMe returns the bot's own account.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.call(ctx, "getMe", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// GetUpdates long-polls for updates newer than offset. It returns the updates
// and the offset to use for the next call.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, int64, error) {
	secs := int(timeout.Seconds())
	if secs < 1 {
		secs = 1
	}
	q := "?timeout=" + strconv.Itoa(secs)
	if offset > 0 {
		q += "&offset=" + strconv.FormatInt(offset, 10)
	}

	// The server holds the request for up to timeout; leave room for the reply.
	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(secs)*time.Second+10*time.Second)
	defer cancel()

	var updates []Update
	if err := c.call(reqCtx, "getUpdates"+q, nil, &updates); err != nil {
		return nil, offset, err
	}
	next := offset
	for _, u := range updates {
		if u.UpdateID >= next {
			next = u.UpdateID + 1
		}
	}
	return updates, next, nil
}

// SendMessage delivers text to chatID as a plain-text message.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.call(ctx, "sendMessage", sendMessageRequest{ChatID: chatID, Text: text}, nil)
}

// SendChatAction shows a status such as "typing" in chatID.
func (c *Client) SendChatAction(ctx context.Context, chatID int64, action string) error {
	action = strings.TrimSpace(action)
	if action == "" {
		action = ActionTyping
	}
	return c.call(ctx, "sendChatAction", sendChatActionRequest{ChatID: chatID, Action: action}, nil)
}

func (c *Client) call(ctx context.Context, method string, body any, out any) error {
	name, _, _ := strings.Cut(method, "?")
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	httpMethod := http.MethodGet
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("telegram: marshal %s request: %w", name, err)
		}
		httpMethod = http.MethodPost
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, httpMethod, url, reader)
	if err != nil {
		// The URL carries the token; report the method only.
		return fmt.Errorf("telegram: create %s request", name)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: %s request failed: %w", name, redact(err, c.token))
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("telegram: read %s response: %w", name, err)
	}

	var payload apiResponse
	decErr := json.Unmarshal(raw, &payload)
	if res.StatusCode < 200 || res.StatusCode >= 300 || decErr != nil || !payload.OK {
		desc := strings.TrimSpace(payload.Description)
		if desc == "" {
			desc = strings.TrimSpace(string(raw))
		}
		return &APIError{Method: name, StatusCode: res.StatusCode, Description: desc}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload.Result, out); err != nil {
		return fmt.Errorf("telegram: decode %s result: %w", name, err)
	}
	return nil
}

// redact strips the bot token from transport errors, which embed the URL.
func redact(err error, token string) error {
	msg := err.Error()
	if !strings.Contains(msg, token) {
		return err
	}
	return errors.New(strings.ReplaceAll(msg, token, "<token>"))
}
