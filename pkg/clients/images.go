package clients

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// ImageGenerator renders prompts with an Imagen model.
type ImageGenerator struct {
	Client *genai.Client
	Model  string
}

func NewImageGenerator(client *genai.Client, model string) *ImageGenerator {
	return &ImageGenerator{Client: client, Model: model}
}

// GenerateImage returns the bytes of the first generated image.
func (g *ImageGenerator) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := g.Client.Models.GenerateImages(ctx, g.Model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, fmt.Errorf("image generation returned no images")
	}
	return resp.GeneratedImages[0].Image.ImageBytes, nil
}
