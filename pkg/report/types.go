package report

import "context"

// Rune caps applied along the pipeline. Each counts runes, not bytes.
const (
	ExtractCap   = 10000 // text kept from a fetched page
	InputCap     = 7000  // text handed to any model call
	PreviewCap   = 1000  // content stored on an accepted article
	ImageSeedCap = 500   // report text used to derive the image prompt
)

// NoResultsReport is returned as the report when the search comes back empty.
const NoResultsReport = "The search didn't return any results."

// Window is the recency window passed to the search provider.
type Window string

const (
	WindowDay   Window = "day"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowYear  Window = "year"
)

// ParseWindow maps free text to a Window, falling back to def.
func ParseWindow(s string, def Window) Window {
	switch w := Window(s); w {
	case WindowDay, WindowWeek, WindowMonth, WindowYear:
		return w
	}
	return def
}

// SearchResult represents a single search result
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// ExtractedArticle is an accepted candidate. Content holds the stored preview.
type ExtractedArticle struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Snippet   string `json:"snippet"`
	Content   string `json:"content"`
	Sentiment string `json:"sentiment"`
}

// Result is the terminal artifact of a pipeline run. An empty HeaderImage
// means image generation degraded.
type Result struct {
	Report      string             `json:"report"`
	HeaderImage string             `json:"header_image"`
	ImagePrompt string             `json:"image_prompt"`
	Sources     []ExtractedArticle `json:"sources"`
}

// Searcher returns candidates in provider order. Implementations map a
// non-200 response to an empty list.
type Searcher interface {
	Search(ctx context.Context, query string, count int, window Window) ([]SearchResult, error)
}

// Extractor fetches readable text for a URL. It never fails: a failure is
// described in the returned text instead.
type Extractor interface {
	Extract(ctx context.Context, url string) string
}

// ImageGenerator renders a prompt to encoded image bytes.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// Truncate returns the first n runes of s.
func Truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Preview is the stored form of extracted content.
func Preview(content string) string {
	return Truncate(content, PreviewCap) + "..."
}
