package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GoogleProvider implements Provider for Google Gemini. It is the only
// provider that understands file attachments.
type GoogleProvider struct {
	client *genai.Client
	model  string
}

type googleConfig struct {
	baseURL    string
	httpClient *http.Client
	model      string
}

// GoogleOption configures a GoogleProvider.
type GoogleOption func(*googleConfig)

// WithGoogleBaseURL sets the base URL (for testing).
func WithGoogleBaseURL(url string) GoogleOption {
	return func(c *googleConfig) {
		c.baseURL = url
	}
}

// WithGoogleHTTPClient sets a custom HTTP client.
func WithGoogleHTTPClient(client *http.Client) GoogleOption {
	return func(c *googleConfig) {
		c.httpClient = client
	}
}

// WithGoogleModel sets the model used when a request does not name one.
func WithGoogleModel(model string) GoogleOption {
	return func(c *googleConfig) {
		if model != "" {
			c.model = model
		}
	}
}

// NewGoogleProvider creates a new Google Gemini provider.
func NewGoogleProvider(ctx context.Context, apiKey string, opts ...GoogleOption) (*GoogleProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is required")
	}
	cfg := googleConfig{model: defaultGeminiModel}
	for _, opt := range opts {
		opt(&cfg)
	}

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.httpClient,
	}
	if cfg.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GoogleProvider{client: client, model: cfg.model}, nil
}

func (p *GoogleProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	config := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		config.Temperature = &temp
	}

	for _, m := range req.Messages {
		if m.Role == "system" {
			config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: m.Content}}}
		}
	}
	contents := toGeminiContents(req.Messages)
	attachFiles(contents, req.Attachments)

	result, err := p.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return CompletionResponse{}, mapGoogleError(err)
	}
	if len(result.Candidates) == 0 {
		return CompletionResponse{}, fmt.Errorf("gemini: no candidates in response")
	}

	resp := CompletionResponse{Content: result.Text(), Model: model}
	if result.UsageMetadata != nil {
		resp.InputTokens = int(result.UsageMetadata.PromptTokenCount)
		resp.OutputTokens = int(result.UsageMetadata.CandidatesTokenCount)
	}
	return resp, nil
}

func (p *GoogleProvider) HealthCheck(ctx context.Context) error {
	if _, err := p.client.Models.Get(ctx, p.model, nil); err != nil {
		return fmt.Errorf("health check failed: %w", mapGoogleError(err))
	}
	return nil
}

// Files returns a FileStore backed by the same Gemini client.
func (p *GoogleProvider) Files() *GoogleFileStore {
	return &GoogleFileStore{client: p.client}
}

// toGeminiContents maps chat messages to Gemini contents. System messages
// travel as the system instruction instead.
func toGeminiContents(msgs []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.RoleUser
		switch m.Role {
		case "system":
			continue
		case "assistant":
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: m.Content}}})
	}
	return contents
}

// attachFiles prepends file parts to the last user content so the prompt
// follows the documents it refers to.
func attachFiles(contents []*genai.Content, files []FileHandle) {
	if len(files) == 0 {
		return
	}
	for i := len(contents) - 1; i >= 0; i-- {
		if contents[i].Role != genai.RoleUser {
			continue
		}
		parts := make([]*genai.Part, 0, len(files)+len(contents[i].Parts))
		for _, f := range files {
			parts = append(parts, genai.NewPartFromURI(f.URI, f.MIMEType))
		}
		contents[i].Parts = append(parts, contents[i].Parts...)
		return
	}
}

func mapGoogleError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("gemini: %w", err)
	}
	wrapped := &APIError{Provider: "google", StatusCode: apiErr.Code, Body: apiErr.Message}
	if apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED" {
		return &RateLimitError{Provider: "google", Err: wrapped}
	}
	return wrapped
}

// GoogleFileStore uploads documents to the Gemini Files API.
type GoogleFileStore struct {
	client *genai.Client
}

func (s *GoogleFileStore) Upload(ctx context.Context, doc Document) (FileHandle, error) {
	f, err := s.client.Files.Upload(ctx, bytes.NewReader(doc.Data), &genai.UploadFileConfig{
		MIMEType:    doc.MIMEType,
		DisplayName: doc.Name,
	})
	if err != nil {
		return FileHandle{}, fmt.Errorf("upload %s: %w", doc.Name, mapGoogleError(err))
	}
	return FileHandle{Name: f.Name, URI: f.URI, MIMEType: f.MIMEType}, nil
}

func (s *GoogleFileStore) State(ctx context.Context, name string) (FileState, error) {
	f, err := s.client.Files.Get(ctx, name, nil)
	if err != nil {
		return "", fmt.Errorf("get file %s: %w", name, mapGoogleError(err))
	}
	switch f.State {
	case genai.FileStateActive:
		return FileStateActive, nil
	case genai.FileStateFailed:
		return FileStateFailed, nil
	default:
		return FileStateProcessing, nil
	}
}
