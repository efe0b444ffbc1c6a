package gemini

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/garyjia/quote-validator/internal/application/port"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gemini-2.0-flash"

// Reviewer implements port.AIReviewer using the Gemini API
type Reviewer struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewReviewer creates a Gemini reviewer. An empty apiKey yields a reviewer
// that reports itself unavailable.
func NewReviewer(ctx context.Context, apiKey, model string, logger *zap.Logger) (*Reviewer, error) {
	if model == "" {
		model = DefaultModel
	}
	r := &Reviewer{model: model, logger: logger}
	if apiKey == "" {
		return r, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	r.client = client
	return r, nil
}

func (r *Reviewer) Name() string { return "gemini" }

// Available returns true when an API key was configured
func (r *Reviewer) Available() bool {
	return r.client != nil
}

// Generate runs one GenerateContent call and returns the response text
func (r *Reviewer) Generate(ctx context.Context, req port.GenerateRequest) (string, error) {
	if r.client == nil {
		return "", port.ErrAIUnavailable
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	r.logger.Debug("Requesting Gemini review",
		zap.String("model", r.model),
		zap.Int("prompt_len", len(req.Prompt)))

	resp, err := r.client.Models.GenerateContent(ctx, r.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		r.logger.Error("Gemini API call failed", zap.Error(err))
		return "", fmt.Errorf("Gemini API call failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return text, nil
}

var _ port.AIReviewer = (*Reviewer)(nil)
