package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/zsafwan/ocr-rename/internal/services"
	"github.com/zsafwan/ocr-rename/internal/services/vision"
)

const defaultMaxTokens = 1024

// Config captures the Gemini API settings.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// Client implements vision.Analyzer with inline PDF blobs.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// New opens a Gemini client. Close releases its connections.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "gemini", "new client", "api key required", nil)
	}
	name := strings.TrimSpace(cfg.Model)
	if name == "" {
		return nil, services.Wrap(services.ErrConfiguration, "gemini", "new client", "model required", nil)
	}
	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, services.Wrap(services.ErrService, "gemini", "new client", "", err)
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	model := client.GenerativeModel(name)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(vision.SystemPrompt)}}
	model.SetTemperature(0)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.ResponseMIMEType = "application/json"

	return &Client{client: client, model: model, name: name}, nil
}

// Close releases the underlying client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Analyze sends doc inline with the identification prompt.
func (c *Client) Analyze(ctx context.Context, doc vision.Document) (vision.Response, error) {
	mediaType := doc.MediaType
	if mediaType == "" {
		mediaType = vision.MediaTypePDF
	}
	resp, err := c.model.GenerateContent(ctx,
		genai.Blob{MIMEType: mediaType, Data: doc.Data},
		genai.Text(vision.UserPrompt),
	)
	if err != nil {
		return vision.Response{}, services.Wrap(classify(err), "gemini", "generate content", doc.Name, err)
	}

	text, err := responseText(resp)
	if err != nil {
		return vision.Response{}, services.Wrap(services.ErrService, "gemini", "generate content", doc.Name, err)
	}
	out := vision.Response{Text: text}
	if resp.UsageMetadata != nil {
		out.Usage = vision.Usage{
			InputTokens:  int64(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out, nil
}

// HealthCheck fetches the model description, which validates the key.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.model.Info(ctx); err != nil {
		return services.Wrap(classify(err), "gemini", "health", c.name, err)
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates returned")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content (finish_reason=%s)", candidate.FinishReason)
	}
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", errors.New("unexpected response format")
	}
	return b.String(), nil
}

func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests,
			apiErr.Code == http.StatusRequestTimeout,
			apiErr.Code >= http.StatusInternalServerError:
			return services.ErrTransient
		}
	}
	return services.ErrService
}

var _ vision.Analyzer = (*Client)(nil)
