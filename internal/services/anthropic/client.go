package anthropic

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zsafwan/ocr-rename/internal/logging"
	"github.com/zsafwan/ocr-rename/internal/services"
	"github.com/zsafwan/ocr-rename/internal/services/vision"
)

const (
	// DefaultBaseURL is the public API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"
	// APIVersion is sent as the anthropic-version header.
	APIVersion = "2023-06-01"

	defaultHTTPTimeout = 120 * time.Second
	defaultMaxTokens   = 1024
	statusOverloaded   = 529
	errorBodyLimit     = 4096
)

// Config captures the runtime settings required to talk to the API.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	TimeoutSeconds int
}

// Client implements vision.Analyzer and vision.BatchClient against the
// Messages and Message Batches APIs.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
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

// WithLogger sets the logger used for per-result warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "anthropic")
		}
	}
}

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:          strings.TrimSpace(cfg.Model),
			MaxTokens:      cfg.MaxTokens,
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = DefaultBaseURL
	}
	if client.cfg.MaxTokens <= 0 {
		client.cfg.MaxTokens = defaultMaxTokens
	}
	return client
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// StatusError is a non-2xx API reply.
type StatusError struct {
	StatusCode int
	Type       string
	Message    string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	detail := strings.TrimSpace(e.Message)
	if e.Type != "" {
		detail = e.Type + ": " + detail
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, detail)
}

// Retryable reports whether the status code indicates a transient condition.
func (e *StatusError) Retryable() bool {
	switch {
	case e.StatusCode == http.StatusRequestTimeout,
		e.StatusCode == http.StatusTooManyRequests,
		e.StatusCode == statusOverloaded,
		e.StatusCode >= http.StatusInternalServerError:
		return true
	default:
		return false
	}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string          `json:"type"`
	Text   string          `json:"text,omitempty"`
	Source *documentSource `json:"source,omitempty"`
}

type documentSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messageResponse struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
}

type errorEnvelope struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Analyze sends doc as a base64 document block with the identification prompt.
func (c *Client) Analyze(ctx context.Context, doc vision.Document) (vision.Response, error) {
	if c.cfg.APIKey == "" {
		return vision.Response{}, services.Wrap(services.ErrConfiguration, "anthropic", "messages", "api key required", nil)
	}
	var reply messageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/messages", c.messageParams(doc), &reply); err != nil {
		return vision.Response{}, services.Wrap(markerFor(err), "anthropic", "messages", doc.Name, err)
	}
	return toResponse(reply, "messages", doc.Name)
}

type modelInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// HealthCheck confirms that the key is accepted and the configured model
// exists, without spending tokens.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, "anthropic", "health", "api key required", nil)
	}
	var info modelInfo
	if err := c.doJSON(ctx, http.MethodGet, "/v1/models/"+url.PathEscape(c.cfg.Model), nil, &info); err != nil {
		return services.Wrap(markerFor(err), "anthropic", "health", c.cfg.Model, err)
	}
	if info.ID == "" {
		return services.Wrap(services.ErrService, "anthropic", "health", c.cfg.Model, errors.New("empty model description"))
	}
	return nil
}

func (c *Client) messageParams(doc vision.Document) messageRequest {
	mediaType := doc.MediaType
	if mediaType == "" {
		mediaType = vision.MediaTypePDF
	}
	return messageRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		System:    vision.SystemPrompt,
		Messages: []message{{
			Role: "user",
			Content: []contentBlock{
				{
					Type: "document",
					Source: &documentSource{
						Type:      "base64",
						MediaType: mediaType,
						Data:      base64.StdEncoding.EncodeToString(doc.Data),
					},
				},
				{Type: "text", Text: vision.UserPrompt},
			},
		}},
	}
}

func toResponse(reply messageResponse, op, name string) (vision.Response, error) {
	var text strings.Builder
	for _, block := range reply.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return vision.Response{}, services.Wrap(services.ErrService, "anthropic", op, name,
			fmt.Errorf("empty content (stop_reason=%q)", reply.StopReason))
	}
	return vision.Response{
		Text: text.String(),
		Usage: vision.Usage{
			InputTokens:  reply.Usage.InputTokens,
			OutputTokens: reply.Usage.OutputTokens,
		},
	}, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, target any) error {
	endpoint, err := c.endpoint(path)
	if err != nil {
		return err
	}
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	resp, err := c.send(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// send issues the request and returns the response only for 2xx statuses.
func (c *Client) send(ctx context.Context, method, endpoint string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", APIVersion)
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http error (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		return nil, readStatusError(resp)
	}
	return resp, nil
}

func (c *Client) endpoint(path string) (string, error) {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, path)
	if err != nil {
		return "", fmt.Errorf("build url: %w", err)
	}
	return endpoint, nil
}

func readStatusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	statusErr := &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	var envelope errorEnvelope
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Message != "" {
		statusErr.Type = envelope.Error.Type
		statusErr.Message = envelope.Error.Message
	}
	if seconds, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("retry-after"))); err == nil && seconds > 0 {
		statusErr.RetryAfter = time.Duration(seconds) * time.Second
	}
	return statusErr
}

func markerFor(err error) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Retryable() {
		return services.ErrTransient
	}
	return services.ErrService
}
