package llm

import "context"

// Provider defines the interface for LLM providers. Providers return raw
// model output; parsing and validation happen in the spec builder so that a
// malformed payload counts as a provider failure and triggers fallback.
type Provider interface {
	// Generate produces raw text for the given prompt
	Generate(ctx context.Context, prompt Prompt) (string, error)

	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string
}

// Prompt carries the system instruction and the user request
type Prompt struct {
	System string
	User   string
}
