package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chatterm/internal/config"

	"github.com/google/uuid"
)

const (
	FallbackInternalThought = "Internal thought unavailable"
	FallbackAnswer          = "Response unavailable"
)

type Client struct {
	endpoint   string
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		endpoint: strings.TrimSpace(cfg.Endpoint),
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

func NewClientWithEndpoint(endpoint string) *Client {
	return &Client{
		endpoint: strings.TrimSpace(endpoint),
		httpClient: &http.Client{
			Timeout: config.DefaultTimeoutSeconds * time.Second,
		},
	}
}

// Endpoint returns the URL chat requests are posted to.
func (c *Client) Endpoint() string { return c.endpoint }

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
}

// --- Chat ---

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatBody struct {
	InternalThought []string `json:"internal_thought"`
	Output          []string `json:"Output"`
}

type ChatResponse struct {
	Response *ChatBody `json:"response"`
}

// InternalThought returns the first internal thought, trimmed, or the
// fallback text when the server sent none.
func (r *ChatResponse) InternalThought() string {
	if r == nil || r.Response == nil {
		return FallbackInternalThought
	}
	return firstOr(r.Response.InternalThought, FallbackInternalThought)
}

// Answer returns the first output entry, trimmed, or the fallback text.
func (r *ChatResponse) Answer() string {
	if r == nil || r.Response == nil {
		return FallbackAnswer
	}
	return firstOr(r.Response.Output, FallbackAnswer)
}

func firstOr(parts []string, fallback string) string {
	if len(parts) == 0 {
		return fallback
	}
	if s := strings.TrimSpace(parts[0]); s != "" {
		return s
	}
	return fallback
}

// Chat posts one message to the chat endpoint and decodes the reply.
func (c *Client) Chat(ctx context.Context, message string) (*ChatResponse, error) {
	var resp ChatResponse
	if err := c.doJSON(ctx, http.MethodPost, ChatRequest{Message: message}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Errors ---

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, body)
}

// --- Generic JSON helper ---

func (c *Client) doJSON(ctx context.Context, method string, reqBody interface{}, result interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var bodyReader io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}
