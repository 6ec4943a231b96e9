package llm

import (
	"context"
)

// LLM defines the interface for language model providers
type LLM interface {

	// Generate returns the model's reply to a system instruction and a user
	// prompt. Replies are requested as a JSON object.
	Generate(ctx context.Context, system, prompt string) (string, error)

	// IsModelAvailable checks if the configured model is available
	IsModelAvailable(ctx context.Context) error
}
