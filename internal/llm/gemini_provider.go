package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/tunetools/tunetools-api/internal/logger"
	"google.golang.org/genai"
)

const (
	providerNameGemini = "gemini"
	geminiModel        = "gemini-2.5-flash"
	mimeTypeJSON       = "application/json"
)

// GeminiProvider implements the Provider interface using Google's Gemini API
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return providerNameGemini
}

// Generate implements one-shot generation using Gemini's API
func (p *GeminiProvider) Generate(ctx context.Context, prompt Prompt) (string, error) {
	startTime := time.Now()

	transaction := sentry.StartTransaction(ctx, "gemini.generate")
	defer transaction.Finish()
	transaction.SetTag("model", geminiModel)
	transaction.SetTag("provider", providerNameGemini)

	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt.User}}},
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: prompt.System}},
		},
		ResponseMIMEType: mimeTypeJSON,
	}

	result, err := p.client.Models.GenerateContent(ctx, geminiModel, contents, config)
	if err != nil {
		transaction.SetTag("success", "false")
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil ||
		len(result.Candidates[0].Content.Parts) == 0 {
		transaction.SetTag("success", "false")
		return "", fmt.Errorf("gemini response has no candidates")
	}

	output := result.Candidates[0].Content.Parts[0].Text
	if output == "" {
		transaction.SetTag("success", "false")
		return "", fmt.Errorf("gemini response did not include any output text")
	}

	fields := logger.Fields{
		"duration_ms":   time.Since(startTime).Milliseconds(),
		"output_length": len(output),
	}
	if result.UsageMetadata != nil {
		fields["total_tokens"] = result.UsageMetadata.TotalTokenCount
	}
	logger.Debug("gemini generation completed", fields)

	transaction.SetTag("success", "true")
	return output, nil
}
