package report

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// scriptedModel answers prompts by their leading instruction.
type scriptedModel struct {
	mu      sync.Mutex
	prompts []string

	relevant  func(prompt string) (string, error)
	sentiment string
	report    string
	imageErr  error
	synthErr  error
}

func newScriptedModel() *scriptedModel {
	return &scriptedModel{
		relevant:  func(string) (string, error) { return "True", nil },
		sentiment: "Neutral.",
		report:    "# Report",
	}
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	prompt := messages[len(messages)-1].Parts[0].(llms.TextContent).Text

	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	var out string
	var err error
	switch {
	case strings.HasPrefix(prompt, "Please determine if"):
		out, err = m.relevant(prompt)
	case strings.HasPrefix(prompt, "Please analyze the sentiment"):
		out = m.sentiment
	case strings.HasPrefix(prompt, "Based on the search query"):
		out, err = m.report, m.synthErr
	case strings.HasPrefix(prompt, "Create an image prompt"):
		out, err = "a calm harbour at dawn", m.imageErr
	default:
		err = errors.New("unexpected prompt")
	}
	if err != nil {
		return nil, err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: out}}}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func (m *scriptedModel) promptsWithPrefix(prefix string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, p := range m.prompts {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}

type fakeSearcher struct {
	results   []SearchResult
	err       error
	lastCount int
}

func (s *fakeSearcher) Search(_ context.Context, _ string, count int, _ Window) ([]SearchResult, error) {
	s.lastCount = count
	return s.results, s.err
}

type fakeExtractor struct {
	mu    sync.Mutex
	calls []string
	text  func(url string) string
}

func (e *fakeExtractor) Extract(_ context.Context, url string) string {
	e.mu.Lock()
	e.calls = append(e.calls, url)
	e.mu.Unlock()
	if e.text == nil {
		return "Article text about " + url
	}
	return e.text(url)
}

type fakeImages struct {
	img []byte
	err error
}

func (f fakeImages) GenerateImage(context.Context, string) ([]byte, error) {
	return f.img, f.err
}

func candidates(links ...string) []SearchResult {
	out := make([]SearchResult, len(links))
	for i, l := range links {
		out[i] = SearchResult{Title: "Title " + l, Link: l, Snippet: "snippet"}
	}
	return out
}

type failingModel struct{}

func (failingModel) GenerateContent(context.Context, []llms.MessageContent, ...llms.CallOption) (*llms.ContentResponse, error) {
	return nil, errors.New("model unavailable")
}

func (failingModel) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return "", errors.New("model unavailable")
}
