package clients

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/googleai/vertex"
	"google.golang.org/genai"

	"github.com/mikeboe/agent-helper/pkg/config"
)

// ModelType names a Gemini chat model.
type ModelType string

const (
	// DefaultModel is the default model to use if none is specified
	DefaultModel ModelType = "gemini-2.5-flash"
	ProModel     ModelType = "gemini-2.5-pro"
)

// GoogleAi returns a langchaingo chat model. Vertex AI is used when a cloud
// project is configured without an API key, the Gemini API otherwise.
func GoogleAi(ctx context.Context, cfg *config.Config, model ModelType) (llms.Model, error) {
	modelName := string(model)
	if modelName == "" {
		modelName = string(DefaultModel)
	}

	// See https://ai.google.dev/gemini-api/docs/models/gemini for possible models
	if cfg.UseVertex() {
		llm, err := vertex.New(ctx,
			googleai.WithCloudProject(cfg.GoogleProject),
			googleai.WithCloudLocation(cfg.GoogleLocation),
			googleai.WithDefaultModel(modelName),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create vertex model: %w", err)
		}
		return llm, nil
	}

	if cfg.GoogleApiKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY or GOOGLE_CLOUD_PROJECT must be set")
	}
	llm, err := googleai.New(ctx, googleai.WithAPIKey(cfg.GoogleApiKey), googleai.WithDefaultModel(modelName))
	if err != nil {
		return nil, fmt.Errorf("failed to create googleai model: %w", err)
	}
	return llm, nil
}

// GenAI returns a genai client for the same backend GoogleAi selects.
func GenAI(ctx context.Context, cfg *config.Config) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.GoogleApiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.UseVertex() {
		cc = &genai.ClientConfig{
			Project:  cfg.GoogleProject,
			Location: cfg.GoogleLocation,
			Backend:  genai.BackendVertexAI,
		}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return client, nil
}
