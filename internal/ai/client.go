// Package ai is a small client for OpenAI-compatible chat-completion
// gateways. It sends a single request per call, maps HTTP-level failures onto
// a fixed set of sentinel errors, and returns the first choice's text. It
// never retries; retry policy belongs to callers.
package ai

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-insight-backend/internal/config"
)

// Sentinel errors returned (wrapped) by Complete.
var (
	// ErrRateLimited means the gateway answered 429.
	ErrRateLimited = errors.New("ai: rate limited")
	// ErrQuotaExhausted means the gateway answered 402.
	ErrQuotaExhausted = errors.New("ai: quota exhausted")
	// ErrUpstreamUnavailable covers transport failures and any other non-2xx answer.
	ErrUpstreamUnavailable = errors.New("ai: upstream unavailable")
	// ErrEmptyResponse means a 2xx answer carried no usable text.
	ErrEmptyResponse = errors.New("ai: empty response")
)

// maxErrorBody caps how much of an error body is kept for diagnostics.
const maxErrorBody = 512

// StatusError describes a non-2xx gateway answer. It matches one of the
// sentinels above via errors.Is.
type StatusError struct {
	StatusCode int
	Body       string
	// RetryAfter is the gateway's Retry-After hint, zero when absent.
	RetryAfter time.Duration
	kind       error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: status %d: %s", e.kind, e.StatusCode, e.Body)
}

// Unwrap exposes the sentinel for errors.Is.
func (e *StatusError) Unwrap() error { return e.kind }

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Common roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client talks to a chat-completion endpoint at BaseURL + "/chat/completions".
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
}

// NewClient builds a Client with an OpenTelemetry-instrumented transport.
// A zero cfg.Timeout leaves the request bounded only by ctx and the transport.
func NewClient(cfg config.AIConfig) *Client {
	return &Client{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		HTTP: &http.Client{
			Timeout: cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
			),
		},
	}
}

// Complete sends messages and returns the text of the first choice.
//
// Error mapping:
//   - 429 → ErrRateLimited
//   - 402 → ErrQuotaExhausted
//   - other non-2xx, or transport failure → ErrUpstreamUnavailable
//   - 2xx with an undecodable body or missing/blank content → ErrEmptyResponse
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatRequest{Model: c.Model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("ai: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		se := &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(excerpt)), kind: ErrUpstreamUnavailable}
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			se.kind = ErrRateLimited
			if secs, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After"))); err == nil && secs > 0 {
				se.RetryAfter = time.Duration(secs) * time.Second
			}
		case http.StatusPaymentRequired:
			se.kind = ErrQuotaExhausted
		}
		return "", se
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode body: %v", ErrEmptyResponse, err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == nil {
		return "", ErrEmptyResponse
	}
	text := *out.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// DefaultRetryAfter is suggested to clients when a rate-limited gateway gave no hint.
const DefaultRetryAfter = 30 * time.Second

// RetryAfter returns how long a caller should wait after err. It is zero for
// anything but ErrRateLimited.
func RetryAfter(err error) time.Duration {
	if !errors.Is(err, ErrRateLimited) {
		return 0
	}
	var se *StatusError
	if errors.As(err, &se) && se.RetryAfter > 0 {
		return se.RetryAfter
	}
	return DefaultRetryAfter
}
