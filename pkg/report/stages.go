package report

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/agent-helper/pkg/metrics"
)

const sentimentPrompt = "Please analyze the sentiment of the following text. Is it positive, negative, or neutral? Provide a brief explanation why:\n\n"

// SentimentAnalyzer returns the model's free-text sentiment verdict.
type SentimentAnalyzer struct {
	LLM    llms.Model
	Logger *slog.Logger
}

func NewSentimentAnalyzer(llm llms.Model) *SentimentAnalyzer {
	return &SentimentAnalyzer{LLM: llm, Logger: slog.Default()}
}

func (s *SentimentAnalyzer) Analyze(ctx context.Context, text string) string {
	out, err := generate(ctx, s.LLM, sentimentPrompt+Truncate(text, InputCap), judgeOptions...)
	if err != nil {
		s.Logger.Error("Sentiment analysis failed", "error", err)
		return fmt.Sprintf("Sentiment analysis unavailable: %v", err)
	}
	return out
}

// Synthesizer writes the final Markdown report from the accepted articles.
type Synthesizer struct {
	LLM    llms.Model
	Logger *slog.Logger
}

func NewSynthesizer(llm llms.Model) *Synthesizer {
	return &Synthesizer{LLM: llm, Logger: slog.Default()}
}

func (s *Synthesizer) Synthesize(ctx context.Context, query string, articles []ExtractedArticle) string {
	defer metrics.ObserveStage("synthesize")()

	out, err := generate(ctx, s.LLM, BuildReportPrompt(query, articles), synthOptions...)
	if err != nil {
		s.Logger.Error("Report generation failed", "error", err)
		return fmt.Sprintf("Report generation failed: %v", err)
	}
	return out
}

// BuildReportPrompt lists every article by index, then states the report
// instructions.
func BuildReportPrompt(query string, articles []ExtractedArticle) string {
	entries := make([]string, len(articles))
	for i, a := range articles {
		entries[i] = fmt.Sprintf("SOURCE %d: %s\nURL: %s\nCONTENT: %s\nSENTIMENT: %s",
			i+1, a.Title, a.Link, Truncate(a.Content, InputCap), a.Sentiment)
	}

	return fmt.Sprintf(`Based on the search query "%s", please write a comprehensive report that synthesizes
the information from these sources:

%s

You will be shut down if you use sources not in the list above.

Your report should be made in Markdown format and include the following:

Provide a summary of the main findings.
Discuss the sentiment of the information.
Identify any trends or patterns.


Format the report with appropriate headings and structure.
Call sources by their title with a hyperlink to the url, and do not use the word "source" in the report.
`, query, strings.Join(entries, "\n\n"))
}

const imagePromptRequest = `Create an image prompt about this report: %s that would work well for a business report header.
The image should look professional and be related to business, or the specific company/industry/theme.
Do not include any text in the image prompt as Imagen cannot render text.
Keep the prompt under 200 characters.
Just return the prompt text and nothing else.`

// Illustrator derives an image prompt from the report and renders it.
type Illustrator struct {
	LLM    llms.Model
	Images ImageGenerator
	Logger *slog.Logger
}

func NewIllustrator(llm llms.Model, images ImageGenerator) *Illustrator {
	return &Illustrator{LLM: llm, Images: images, Logger: slog.Default()}
}

// Illustrate returns the base64 image and the prompt used. A failed prompt
// derivation yields ("", ""); a failed render keeps the prompt.
func (il *Illustrator) Illustrate(ctx context.Context, report string) (string, string) {
	defer metrics.ObserveStage("illustrate")()

	prompt, err := generate(ctx, il.LLM, fmt.Sprintf(imagePromptRequest, Truncate(report, ImageSeedCap)), imagePromptOpts...)
	if err != nil {
		il.Logger.Error("Image prompt derivation failed", "error", err)
		metrics.ImageFailures.Inc()
		return "", ""
	}

	if il.Images == nil {
		il.Logger.Warn("No image generator configured", "prompt", prompt)
		metrics.ImageFailures.Inc()
		return "", prompt
	}

	img, err := il.Images.GenerateImage(ctx, prompt)
	if err != nil || len(img) == 0 {
		il.Logger.Error("Error generating image", "prompt", prompt, "error", err)
		metrics.ImageFailures.Inc()
		return "", prompt
	}
	return base64.StdEncoding.EncodeToString(img), prompt
}
