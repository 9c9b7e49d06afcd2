package llm

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

	"contentengine/internal/services/httpretry"
)

const (
	defaultBaseURL     = "https://openrouter.ai/api/v1/chat/completions"
	defaultHTTPTimeout = 60 * time.Second
	// Posting copy benefits from some variety between runs.
	strategyTemperature = 0.7
)

// Config holds the OpenRouter settings. Referer and Title are sent as the
// attribution headers OpenRouter shows on its dashboard.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	cfg   Config
	http  *http.Client
	retry httpretry.Policy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRetryMaxAttempts caps the attempts per completion.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) { c.retry.MaxAttempts = attempts }
}

// WithRetryBackoff sets the backoff bounds.
func WithRetryBackoff(base, max time.Duration) Option {
	return func(c *Client) {
		c.retry.BaseDelay = base
		c.retry.MaxDelay = max
	}
}

// WithSleeper replaces time.Sleep between retries.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Client) { c.retry.Sleeper = sleep }
}

// NewClient builds a client; an empty BaseURL targets OpenRouter.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Referer = strings.TrimSpace(cfg.Referer)
	cfg.Title = strings.TrimSpace(cfg.Title)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{cfg: cfg, http: &http.Client{Timeout: timeout}, retry: httpretry.DefaultPolicy()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model reports the configured model identifier.
func (c *Client) Model() string { return c.cfg.Model }

// CompleteJSON sends the two prompts with a json_object response format and
// returns the reply text.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	switch {
	case systemPrompt == "":
		return "", errors.New("llm complete: system prompt required")
	case userPrompt == "":
		return "", errors.New("llm complete: user prompt required")
	case c.cfg.APIKey == "":
		return "", errors.New("llm complete: api key required")
	}
	return c.complete(ctx, "llm complete", c.request(systemPrompt, userPrompt, strategyTemperature))
}

// HealthCheck asks the model for a fixed JSON reply, proving the key and the
// model identifier are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("llm health: api key required")
	}
	reply, err := c.complete(ctx, "llm health", c.request("You must respond with JSON only.", `Respond with {"ok":true}`, 0))
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeJSON(reply, &parsed); err != nil {
		return fmt.Errorf("llm health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("llm health: unexpected response")
	}
	return nil
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *Client) request(system, user string, temperature float64) chatRequest {
	return chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    temperature,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
}

// chatResponse accepts the shapes OpenRouter providers actually return:
// regular messages, streaming deltas on non-streamed calls, tool-call
// arguments, and legacy text completions.
type chatResponse struct {
	Choices []choice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type choice struct {
	Message      replyMessage `json:"message"`
	Delta        replyMessage `json:"delta"`
	Text         string       `json:"text"`
	FinishReason string       `json:"finish_reason"`
}

type replyMessage struct {
	Content   string `json:"content"`
	Refusal   string `json:"refusal"`
	ToolCalls []struct {
		Function struct {
			Arguments string `json:"arguments"`
		} `json:"function"`
	} `json:"tool_calls"`
}

func (m replyMessage) text() string {
	if s := strings.TrimSpace(m.Content); s != "" {
		return s
	}
	for _, call := range m.ToolCalls {
		if s := strings.TrimSpace(call.Function.Arguments); s != "" {
			return s
		}
	}
	return ""
}

func (ch choice) text() string {
	if s := ch.Message.text(); s != "" {
		return s
	}
	if s := ch.Delta.text(); s != "" {
		return s
	}
	return strings.TrimSpace(ch.Text)
}

func (r chatResponse) reply() (text, finishReason, refusal string) {
	for _, ch := range r.Choices {
		if finishReason == "" {
			finishReason = strings.TrimSpace(ch.FinishReason)
		}
		if refusal == "" {
			refusal = strings.TrimSpace(ch.Message.Refusal + ch.Delta.Refusal)
		}
		if s := ch.text(); s != "" {
			return s, finishReason, refusal
		}
	}
	return "", finishReason, refusal
}

// complete posts the request under the retry policy. Empty replies are
// retried like transient HTTP failures.
func (c *Client) complete(ctx context.Context, op string, req chatRequest) (string, error) {
	var reply string
	err := c.retry.Do(ctx, op, func(ctx context.Context) error {
		resp, body, err := c.post(ctx, req)
		if err != nil {
			return err
		}
		text, finish, refusal := resp.reply()
		if text != "" {
			reply = text
			return nil
		}
		if len(resp.Choices) == 0 {
			return httpretry.Retryable(fmt.Errorf("%s: empty choices", op))
		}
		return httpretry.Retryable(fmt.Errorf("%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
			op, finish, refusal, snippet(string(body))))
	})
	return reply, err
}

func (c *Client) post(ctx context.Context, payload chatRequest) (chatResponse, []byte, error) {
	var out chatResponse
	encoded, err := json.Marshal(payload)
	if err != nil {
		return out, nil, fmt.Errorf("llm request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return out, nil, fmt.Errorf("llm request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return out, nil, fmt.Errorf("llm request: http error (timeout=%s): %w", c.http.Timeout, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, nil, fmt.Errorf("llm request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return out, body, httpretry.NewStatusError("llm request", resp, body)
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, body, fmt.Errorf("llm request: decode response: %w", err)
	}
	if out.Error != nil {
		return out, body, fmt.Errorf("llm request: api error: %s", strings.TrimSpace(out.Error.Message))
	}
	return out, body, nil
}
