package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/garyjia/quote-validator/internal/application/port"
)

// DefaultModel is used when no model is configured
const DefaultModel = openai.GPT4oMini

// Reviewer implements port.AIReviewer using the OpenAI chat completion API
type Reviewer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewReviewer creates an OpenAI reviewer. An empty apiKey yields a reviewer
// that reports itself unavailable.
func NewReviewer(apiKey, model string, logger *zap.Logger) *Reviewer {
	if model == "" {
		model = DefaultModel
	}
	r := &Reviewer{model: model, logger: logger}
	if apiKey != "" {
		r.client = openai.NewClient(apiKey)
	}
	return r
}

func (r *Reviewer) Name() string { return "openai" }

// Available returns true when an API key was configured
func (r *Reviewer) Available() bool {
	return r.client != nil
}

// Generate sends the system and user prompts as one chat completion
func (r *Reviewer) Generate(ctx context.Context, req port.GenerateRequest) (string, error) {
	if r.client == nil {
		return "", port.ErrAIUnavailable
	}

	r.logger.Debug("Requesting OpenAI review",
		zap.String("model", r.model),
		zap.Int("prompt_len", len(req.Prompt)))

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages:    messages,
	})
	if err != nil {
		r.logger.Error("OpenAI API call failed", zap.Error(err))
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	r.logger.Debug("OpenAI review received",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return resp.Choices[0].Message.Content, nil
}

var _ port.AIReviewer = (*Reviewer)(nil)
