package port

import "context"

// GenerateRequest is one text-generation call to an AI reviewer
type GenerateRequest struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// AIReviewer is a text-generation backend used for the AI review pass.
// Available reports whether the backend is configured; Generate may fail
// and callers must degrade instead of propagating the error.
type AIReviewer interface {
	Name() string
	Available() bool
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
