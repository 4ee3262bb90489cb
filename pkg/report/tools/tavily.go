package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mikeboe/agent-helper/pkg/report"
)

const tavilyURL = "https://api.tavily.com/search"

// Tavily searches Norwegian news through the Tavily API.
type Tavily struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func NewTavily(apiKey string) *Tavily {
	return &Tavily{
		APIKey:     apiKey,
		BaseURL:    tavilyURL,
		HTTPClient: &http.Client{},
		Logger:     slog.Default(),
	}
}

type tavilyRequest struct {
	Query             string   `json:"query"`
	TimeRange         string   `json:"time_range"`
	SearchDepth       string   `json:"search_depth"`
	MaxResults        int      `json:"max_results"`
	IncludeAnswer     bool     `json:"include_answer"`
	IncludeImages     bool     `json:"include_images"`
	IncludeRawContent bool     `json:"include_raw_content"`
	IncludeDomains    []string `json:"include_domains"`
	Type              string   `json:"type"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search returns up to count results. A non-200 response yields no results.
func (t *Tavily) Search(ctx context.Context, query string, count int, window report.Window) ([]report.SearchResult, error) {
	payload, err := json.Marshal(tavilyRequest{
		Query:          query,
		TimeRange:      string(window),
		SearchDepth:    "basic",
		MaxResults:     count,
		IncludeDomains: []string{"*.no"},
		Type:           "news",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.APIKey)

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Logger.Error("Tavily request failed", "status", resp.StatusCode, "body", string(body))
		return []report.SearchResult{}, nil
	}

	var data tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]report.SearchResult, 0, len(data.Results))
	for _, r := range data.Results {
		results = append(results, report.SearchResult{
			Title:   orDefault(r.Title, "No title"),
			Link:    r.URL,
			Snippet: orDefault(r.Content, "No snippet"),
		})
	}
	t.Logger.Info("Tavily search successful", "query", query, "count", len(results))
	return results, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
