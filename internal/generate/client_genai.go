package generate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GenAIClient generates text through the official Google GenAI SDK. Opt-in
// via the ai.provider setting; behavior matches the REST client's contract.
// The client is constructed per call because the API key is per-tenant
// configuration, not process state.
type GenAIClient struct {
	logger *zap.Logger
}

// NewGenAIClient builds the SDK-backed generator.
func NewGenAIClient(logger *zap.Logger) *GenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenAIClient{logger: logger}
}

// GenerateText sends one prompt and returns the response text.
func (c *GenAIClient) GenerateText(ctx context.Context, apiKey, model, prompt string) (string, error) {
	if apiKey == "" {
		return "", ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		c.logger.Error("genai request failed", zap.String("model", model), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", ErrEmptyGeneration
	}
	return text, nil
}
