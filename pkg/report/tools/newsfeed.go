package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/mmcdole/gofeed"

	"github.com/mikeboe/agent-helper/pkg/report"
)

const googleNewsRSS = "https://news.google.com/rss/search"

// NewsFeed searches the Google News RSS endpoint. It needs no API key.
type NewsFeed struct {
	BaseURL  string
	Language string
	Region   string
	Parser   *gofeed.Parser
	Logger   *slog.Logger
}

func NewNewsFeed() *NewsFeed {
	return &NewsFeed{
		BaseURL:  googleNewsRSS,
		Language: "no",
		Region:   "NO",
		Parser:   gofeed.NewParser(),
		Logger:   slog.Default(),
	}
}

// when maps a window to the search "when:" operator.
func when(w report.Window) string {
	switch w {
	case report.WindowDay:
		return "1d"
	case report.WindowMonth:
		return "30d"
	case report.WindowYear:
		return "1y"
	}
	return "7d"
}

func (n *NewsFeed) feedURL(query string, window report.Window) string {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("%s when:%s", query, when(window)))
	params.Set("hl", n.Language)
	params.Set("gl", n.Region)
	params.Set("ceid", n.Region+":"+n.Language)
	return n.BaseURL + "?" + params.Encode()
}

func (n *NewsFeed) Search(ctx context.Context, query string, count int, window report.Window) ([]report.SearchResult, error) {
	feed, err := n.Parser.ParseURLWithContext(n.feedURL(query, window), ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			n.Logger.Error("News feed request failed", "status", httpErr.StatusCode)
			return []report.SearchResult{}, nil
		}
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	count = max(0, min(len(feed.Items), count))
	results := make([]report.SearchResult, 0, count)
	for _, item := range feed.Items[:count] {
		snippet := item.Description
		if snippet == "" {
			snippet = item.Content
		}
		results = append(results, report.SearchResult{
			Title:   orDefault(item.Title, "No title"),
			Link:    item.Link,
			Snippet: orDefault(snippet, "No snippet"),
		})
	}
	return results, nil
}
