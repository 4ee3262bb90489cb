package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mikeboe/agent-helper/pkg/report"
)

const customSearchURL = "https://customsearch.googleapis.com/customsearch/v1"

// GoogleCSE searches through a Google Programmable Search Engine.
type GoogleCSE struct {
	APIKey     string
	CX         string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func NewGoogleCSE(apiKey, cx string) *GoogleCSE {
	return &GoogleCSE{
		APIKey:     apiKey,
		CX:         cx,
		BaseURL:    customSearchURL,
		HTTPClient: &http.Client{},
		Logger:     slog.Default(),
	}
}

// dateRestrict maps a window to the customsearch dateRestrict parameter.
func dateRestrict(w report.Window) string {
	switch w {
	case report.WindowDay:
		return "d1"
	case report.WindowWeek:
		return "w1"
	case report.WindowMonth:
		return "m1"
	case report.WindowYear:
		return "y1"
	}
	return ""
}

func (g *GoogleCSE) Search(ctx context.Context, query string, count int, window report.Window) ([]report.SearchResult, error) {
	// The API serves at most 10 results per request.
	count = max(1, min(count, 10))

	params := url.Values{}
	params.Add("key", g.APIKey)
	params.Add("cx", g.CX)
	params.Add("q", query)
	params.Add("num", strconv.Itoa(count))
	if dr := dateRestrict(window); dr != "" {
		params.Add("dateRestrict", dr)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		g.Logger.Error("Custom search request failed", "status", resp.StatusCode, "body", string(body))
		return []report.SearchResult{}, nil
	}

	var data struct {
		Items []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]report.SearchResult, 0, len(data.Items))
	for _, item := range data.Items {
		results = append(results, report.SearchResult{
			Title:   orDefault(item.Title, "No title"),
			Link:    item.Link,
			Snippet: orDefault(item.Snippet, "No snippet"),
		})
	}
	return results, nil
}
