// Package review runs the best-effort AI review pass over a quote.
package review

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/quote-validator/internal/application/port"
	"github.com/garyjia/quote-validator/internal/domain/entity"
)

// DefaultTimeout bounds one AI review call
const DefaultTimeout = 30 * time.Second

// Reviewer masks a quote, asks the AI backend for extra findings and parses
// the answer. It never returns an error: every failure yields no findings.
type Reviewer struct {
	ai      port.AIReviewer
	prompts *PromptConfig
	timeout time.Duration
	logger  *zap.Logger
}

// NewReviewer creates a reviewer. ai may be nil, which disables the pass.
func NewReviewer(ai port.AIReviewer, prompts *PromptConfig, timeout time.Duration, logger *zap.Logger) *Reviewer {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reviewer{ai: ai, prompts: prompts, timeout: timeout, logger: logger}
}

// Available reports whether a configured backend is attached
func (r *Reviewer) Available() bool {
	return r.ai != nil && r.ai.Available()
}

// Review returns the AI findings for q given the deterministic findings
// already computed. The result is never nil.
func (r *Reviewer) Review(ctx context.Context, q *entity.Quote, deterministic []entity.Finding) []entity.Finding {
	if !r.Available() {
		r.logger.Info("AI reviewer unavailable, skipping AI review")
		return []entity.Finding{}
	}

	prompt, err := r.BuildPrompt(q, deterministic)
	if err != nil {
		r.logger.Error("Failed to build AI review prompt", zap.Error(err))
		return []entity.Finding{}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	text, err := r.ai.Generate(ctx, port.GenerateRequest{
		System:      r.prompts.Review.System,
		Prompt:      prompt,
		Temperature: r.prompts.Review.Temperature,
		MaxTokens:   r.prompts.Review.MaxTokens,
	})
	if err != nil {
		r.logger.Warn("AI review failed, continuing with deterministic findings",
			zap.String("backend", r.ai.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return []entity.Finding{}
	}

	findings, err := ParseResponse(text)
	if err != nil {
		r.logger.Warn("Failed to parse AI review response",
			zap.String("backend", r.ai.Name()),
			zap.Error(err),
			zap.Int("response_len", len(text)))
		return []entity.Finding{}
	}

	r.logger.Info("AI review completed",
		zap.String("backend", r.ai.Name()),
		zap.Int("findings", len(findings)),
		zap.Duration("elapsed", time.Since(start)))
	return findings
}

// BuildPrompt renders the user prompt for q. Only the masked quote is included.
func (r *Reviewer) BuildPrompt(q *entity.Quote, deterministic []entity.Finding) (string, error) {
	masked, err := json.MarshalIndent(Mask(q), "", "  ")
	if err != nil {
		return "", err
	}

	data := promptData{QuoteJSON: string(masked)}
	for _, f := range deterministic {
		data.Findings = append(data.Findings, findingSummary{Severity: string(f.Severity), Message: f.Message})
	}
	return renderTemplate(r.prompts.Review.UserTemplate, data)
}
