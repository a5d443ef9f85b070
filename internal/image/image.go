// Package image generates album artwork through a Gemini-first, DALL-E
// fallback provider chain.
package image

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tunetools/tunetools-api/internal/provider"
	"google.golang.org/genai"
)

const (
	imagenModel = "imagen-3.0-generate-002"
	dalleModel  = openai.ImageModelDallE3
)

// Generator produces artwork bytes from a text prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]byte, string, error)
}

// Chain is the artwork provider chain; it satisfies Generator
type Chain struct {
	chain *provider.Chain[string, []byte]
}

// NewChain builds the Gemini-primary, DALL-E-fallback artwork chain.
// Providers without a configured key are skipped.
func NewChain(ctx context.Context, geminiAPIKey, openAIAPIKey string) (*Chain, error) {
	var adapters []provider.Adapter[string, []byte]

	if geminiAPIKey != "" {
		gemini, err := NewGeminiImage(ctx, geminiAPIKey)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, gemini)
	}
	if openAIAPIKey != "" {
		adapters = append(adapters, NewDallE(openAIAPIKey))
	}

	return NewChainWith(adapters...), nil
}

// NewChainWith injects explicit adapters, for tests
func NewChainWith(adapters ...provider.Adapter[string, []byte]) *Chain {
	return &Chain{chain: provider.NewChain("image", adapters...)}
}

// Generate returns image bytes and the name of the provider that produced them
func (c *Chain) Generate(ctx context.Context, prompt string) ([]byte, string, error) {
	return c.chain.Do(ctx, prompt)
}

// OnFailure forwards the fallback hook to the underlying chain
func (c *Chain) OnFailure(fn func(operation, adapter string)) {
	c.chain.OnFailure(fn)
}

// GeminiImage generates artwork with the Imagen API
type GeminiImage struct {
	client *genai.Client
}

func NewGeminiImage(ctx context.Context, apiKey string) (*GeminiImage, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiImage{client: client}, nil
}

func (g *GeminiImage) Name() string { return "gemini" }

func (g *GeminiImage) Fetch(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := g.client.Models.GenerateImages(ctx, imagenModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("imagen request failed: %w", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, fmt.Errorf("imagen response has no images")
	}
	return resp.GeneratedImages[0].Image.ImageBytes, nil
}

// DallE generates artwork with OpenAI's Images API
type DallE struct {
	client openai.Client
}

func NewDallE(apiKey string) *DallE {
	return &DallE{client: openai.NewClient(option.WithAPIKey(apiKey))}
}

func (d *DallE) Name() string { return "dalle" }

func (d *DallE) Fetch(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := d.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Model:          dalleModel,
		Prompt:         prompt,
		Size:           openai.ImageGenerateParamsSize1024x1024,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
		N:              openai.Int(1),
	})
	if err != nil {
		return nil, fmt.Errorf("dalle request failed: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("dalle response has no image data")
	}
	return base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
}

// ArtworkPrompt builds the weekly album artwork prompt from the first song's
// title and the user's leading genre.
func ArtworkPrompt(weekStart, weekEnd string, themes []string, genres []string) string {
	themesText := "daily life"
	if len(themes) > 0 {
		if len(themes) > 3 {
			themes = themes[:3]
		}
		themesText = strings.Join(themes, ", ")
	}

	genreStyle := "modern"
	if len(genres) > 0 {
		genreStyle = genres[0]
	}

	return fmt.Sprintf(`Create an album cover artwork for a weekly music collection.

Style: %s music aesthetic, modern and vibrant
Themes: %s
Time period: Week of %s to %s

Requirements:
- Square format (1:1 aspect ratio)
- Vibrant colors that match %s music style
- Abstract or minimalist design
- No text or typography
- Professional album cover quality
- Suitable for vinyl disk transformation`,
		genreStyle, themesText, weekStart, weekEnd, genreStyle)
}
