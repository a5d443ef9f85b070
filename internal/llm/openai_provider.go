package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tunetools/tunetools-api/internal/logger"
)

const (
	providerNameOpenAI = "openai"
	openAIModel        = openai.ChatModelGPT4o
	maxOutputTokens    = 1500
	temperature        = 0.8
)

// OpenAIProvider implements the Provider interface using the Chat Completions API
type OpenAIProvider struct {
	client openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// Generate implements one-shot generation with JSON output mode
func (p *OpenAIProvider) Generate(ctx context.Context, prompt Prompt) (string, error) {
	startTime := time.Now()

	transaction := sentry.StartTransaction(ctx, "openai.generate")
	defer transaction.Finish()
	transaction.SetTag("model", openAIModel)
	transaction.SetTag("provider", providerNameOpenAI)

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openAIModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(maxOutputTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		transaction.SetTag("success", "false")
		return "", fmt.Errorf("openai request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		transaction.SetTag("success", "false")
		return "", fmt.Errorf("openai response has no choices")
	}

	output := resp.Choices[0].Message.Content
	if output == "" {
		transaction.SetTag("success", "false")
		return "", fmt.Errorf("openai response did not include any output text")
	}

	logger.Debug("openai generation completed", logger.Fields{
		"duration_ms":   time.Since(startTime).Milliseconds(),
		"output_length": len(output),
		"total_tokens":  resp.Usage.TotalTokens,
	})

	transaction.SetTag("success", "true")
	return output, nil
}
