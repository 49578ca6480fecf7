package services

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

// ContentGenerator is the boundary to the external text generation
// capability: one prompt in, generated text out. It may fail transiently
// (overload, rate limiting) or permanently.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	ModelName() string
}

// GeminiService implements ContentGenerator over the Gemini API
type GeminiService struct {
	genaiClient *genai.Client
	model       string
}

func NewGeminiService(apiKey string, model string) *GeminiService {
	genaiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		slog.Error("Failed to create genai client", "error", err)
		return &GeminiService{model: model}
	}

	return &GeminiService{
		genaiClient: genaiClient,
		model:       model,
	}
}

func (g *GeminiService) ModelName() string {
	return g.model
}

// GenerateContent sends one prompt and returns the generated text
func (g *GeminiService) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g.genaiClient == nil {
		return "", fmt.Errorf("genai client not initialized")
	}

	result, err := g.genaiClient.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(prompt),
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	response := result.Text()
	slog.Info("Generated content", "model", g.model, "prompt_length", len(prompt), "response_length", len(response))

	return response, nil
}
