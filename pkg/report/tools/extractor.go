package tools

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/mikeboe/agent-helper/pkg/report"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Readability extracts the main article text of a web page.
type Readability struct {
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func NewReadability() *Readability {
	return &Readability{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logger:     slog.Default(),
	}
}

// Extract never fails. On error it returns a sentence describing the failure,
// which the classifier will usually reject.
func (r *Readability) Extract(ctx context.Context, link string) string {
	text, err := r.fetch(ctx, link)
	if err != nil {
		r.Logger.Warn("Error extracting text", "url", link, "error", err)
		return fmt.Sprintf("Failed to extract content from %s: %v", link, err)
	}
	return text
}

func (r *Readability) fetch(ctx context.Context, link string) (string, error) {
	pageURL, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, 8<<20), pageURL)
	if err != nil {
		return "", fmt.Errorf("readability: %w", err)
	}

	text := strings.Join(strings.Fields(article.TextContent), " ")
	return report.Truncate(text, report.ExtractCap), nil
}
