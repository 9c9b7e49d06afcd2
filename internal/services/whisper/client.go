// Package whisper uploads extracted audio to an OpenAI-compatible
// transcription endpoint and decodes the verbose_json reply into a
// transcript.Transcript with word-level timings.
package whisper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"contentengine/internal/services/httpretry"
	"contentengine/internal/transcript"
)

const (
	defaultEndpoint    = "https://api.openai.com/v1/audio/transcriptions"
	defaultModel       = "whisper-1"
	defaultHTTPTimeout = 5 * time.Minute

	// MaxUploadBytes is the largest audio payload the hosted endpoint accepts.
	MaxUploadBytes = 25 << 20
)

// Config captures the endpoint settings.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Language       string
	TimeoutSeconds int
}

// Client transcribes audio files.
type Client struct {
	cfg        Config
	httpClient *http.Client
	retry      httpretry.Policy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(policy httpretry.Policy) Option {
	return func(c *Client) {
		c.retry = policy
	}
}

// NewClient constructs a transcription client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		cfg: Config{
			APIKey:   strings.TrimSpace(cfg.APIKey),
			BaseURL:  strings.TrimSpace(cfg.BaseURL),
			Model:    strings.TrimSpace(cfg.Model),
			Language: strings.TrimSpace(cfg.Language),
		},
		httpClient: &http.Client{Timeout: timeout},
		retry:      httpretry.DefaultPolicy(),
	}
	if c.cfg.BaseURL == "" {
		c.cfg.BaseURL = defaultEndpoint
	}
	if c.cfg.Model == "" {
		c.cfg.Model = defaultModel
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe uploads the audio file and returns the decoded transcript. A
// reply without usable timings is not an error; the caller decides whether
// an empty transcript is acceptable.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (transcript.Transcript, error) {
	if c.cfg.APIKey == "" {
		return transcript.Transcript{}, errors.New("whisper: api key required")
	}
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return transcript.Transcript{}, fmt.Errorf("whisper: read audio: %w", err)
	}
	if len(audio) > MaxUploadBytes {
		return transcript.Transcript{}, fmt.Errorf("whisper: audio is %d bytes, limit is %d", len(audio), MaxUploadBytes)
	}
	body, contentType, err := c.buildForm(filepath.Base(audioPath), audio)
	if err != nil {
		return transcript.Transcript{}, err
	}

	var raw []byte
	err = c.retry.Do(ctx, "whisper transcribe", func(ctx context.Context) error {
		payload, sendErr := c.send(ctx, body, contentType)
		if sendErr != nil {
			return sendErr
		}
		raw = payload
		return nil
	})
	if err != nil {
		return transcript.Transcript{}, err
	}
	parsed, err := transcript.Parse(raw)
	if err != nil {
		return transcript.Transcript{}, fmt.Errorf("whisper: decode response: %w", err)
	}
	return parsed, nil
}

func (c *Client) buildForm(filename string, audio []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("whisper: write form file: %w", err)
	}
	fields := [][2]string{
		{"model", c.cfg.Model},
		{"response_format", "verbose_json"},
		{"timestamp_granularities[]", "word"},
		{"timestamp_granularities[]", "segment"},
	}
	if c.cfg.Language != "" {
		fields = append(fields, [2]string{"language", c.cfg.Language})
	}
	for _, field := range fields {
		if err := form.WriteField(field[0], field[1]); err != nil {
			return nil, "", fmt.Errorf("whisper: write field %s: %w", field[0], err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, "", fmt.Errorf("whisper: close form: %w", err)
	}
	return buf.Bytes(), form.FormDataContentType(), nil
}

func (c *Client) send(ctx context.Context, body []byte, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("whisper request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", contentType)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper request: http error (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whisper request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, httpretry.NewStatusError("whisper request", resp, payload)
	}
	return payload, nil
}
