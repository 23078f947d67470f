// Package llm wraps the text generation backends the quiz can draw questions from.
package llm

import "context"

// Provider generates free-form text for a single prompt.
type Provider interface {
	// Generate issues exactly one upstream request.
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelID() string
}

// Request is a single-turn prompt.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Response holds the generated text and accounting data.
type Response struct {
	Text  string
	Model string
	Usage Usage
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// resolveModel maps a friendly model name to a provider model ID.
// Unknown names pass through so direct model IDs keep working.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
