package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// Call options per model role.
var (
	judgeOptions    = []llms.CallOption{llms.WithTemperature(0.2), llms.WithMaxTokens(1024)}
	synthOptions    = []llms.CallOption{llms.WithTemperature(0.5), llms.WithMaxTokens(7000)}
	imagePromptOpts = []llms.CallOption{llms.WithTemperature(0.7), llms.WithMaxTokens(1024)}
)

// generate sends a single human message and returns the first choice.
func generate(ctx context.Context, llm llms.Model, prompt string, opts ...llms.CallOption) (string, error) {
	resp, err := llm.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, opts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
