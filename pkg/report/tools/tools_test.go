package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mikeboe/agent-helper/pkg/report"
)

func TestTavilySearch(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing bearer auth, got %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		fmt.Fprint(w, `{"results":[{"title":"Equinor up","url":"https://e24.no/1","content":"snippet"},{"title":"","url":"https://dn.no/2","content":""}]}`)
	}))
	defer srv.Close()

	tv := NewTavily("key")
	tv.BaseURL = srv.URL

	results, err := tv.Search(context.Background(), "Equinor", 10, report.WindowWeek)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if got["time_range"] != "week" || got["type"] != "news" || got["search_depth"] != "basic" {
		t.Errorf("unexpected payload %v", got)
	}
	if got["max_results"] != float64(10) {
		t.Errorf("max_results = %v", got["max_results"])
	}
	if domains, _ := got["include_domains"].([]any); len(domains) != 1 || domains[0] != "*.no" {
		t.Errorf("include_domains = %v", got["include_domains"])
	}
	if got["include_raw_content"] != false {
		t.Errorf("include_raw_content = %v", got["include_raw_content"])
	}

	want := []report.SearchResult{
		{Title: "Equinor up", Link: "https://e24.no/1", Snippet: "snippet"},
		{Title: "No title", Link: "https://dn.no/2", Snippet: "No snippet"},
	}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d", len(results), len(want))
	}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("result %d = %+v, want %+v", i, results[i], want[i])
		}
	}
}

func TestTavilyNon200IsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tv := NewTavily("key")
	tv.BaseURL = srv.URL
	results, err := tv.Search(context.Background(), "Equinor", 10, report.WindowDay)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want none", len(results))
	}
}

func TestGoogleCSESearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("num") != "10" {
			t.Errorf("num = %q, want clamped to 10", q.Get("num"))
		}
		if q.Get("dateRestrict") != "m1" {
			t.Errorf("dateRestrict = %q", q.Get("dateRestrict"))
		}
		if q.Get("q") != "Rema 1000" || q.Get("cx") != "cx" || q.Get("key") != "k" {
			t.Errorf("unexpected query %v", q)
		}
		fmt.Fprint(w, `{"items":[{"title":"T","link":"https://nrk.no/x","snippet":"S"}]}`)
	}))
	defer srv.Close()

	g := NewGoogleCSE("k", "cx")
	g.BaseURL = srv.URL
	results, err := g.Search(context.Background(), "Rema 1000", 25, report.WindowMonth)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].Link != "https://nrk.no/x" {
		t.Errorf("results = %+v", results)
	}
}

func TestGoogleCSENon200IsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	g := NewGoogleCSE("k", "cx")
	g.BaseURL = srv.URL
	results, err := g.Search(context.Background(), "x", 5, report.WindowWeek)
	if err != nil || len(results) != 0 {
		t.Errorf("Search() = %v, %v; want empty, nil", results, err)
	}
}

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>News</title>
<item><title>First</title><link>https://e24.no/1</link><description>one</description></item>
<item><title>Second</title><link>https://dn.no/2</link><description>two</description></item>
<item><title>Third</title><link>https://nrk.no/3</link></item>
</channel></rss>`

func TestNewsFeedSearch(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssFixture)
	}))
	defer srv.Close()

	n := NewNewsFeed()
	n.BaseURL = srv.URL
	results, err := n.Search(context.Background(), "Equinor", 2, report.WindowDay)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if query != "Equinor when:1d" {
		t.Errorf("q = %q", query)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Title != "First" || results[1].Link != "https://dn.no/2" {
		t.Errorf("results = %+v", results)
	}
}

func TestNewsFeedNonPositiveCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssFixture)
	}))
	defer srv.Close()

	n := NewNewsFeed()
	n.BaseURL = srv.URL
	for _, count := range []int{0, -3} {
		results, err := n.Search(context.Background(), "Equinor", count, report.WindowWeek)
		if err != nil || len(results) != 0 {
			t.Errorf("Search(count=%d) = %v, %v; want empty, nil", count, results, err)
		}
	}
}

func TestNewsFeedNon200IsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	n := NewNewsFeed()
	n.BaseURL = srv.URL
	results, err := n.Search(context.Background(), "Equinor", 5, report.WindowWeek)
	if err != nil || len(results) != 0 {
		t.Errorf("Search() = %v, %v; want empty, nil", results, err)
	}
}

func TestReadabilityExtract(t *testing.T) {
	body := strings.Repeat("Equinor reported strong quarterly results driven by gas prices. ", 40)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.UserAgent(), "Mozilla/5.0") {
			t.Errorf("user agent = %q", r.UserAgent())
		}
		switch r.URL.Path {
		case "/article":
			fmt.Fprintf(w, `<html><head><title>Equinor</title></head><body>
<nav>Menu Home About</nav>
<article><h1>Equinor results</h1><p>%s</p><p>%s</p></article>
<footer>Copyright</footer></body></html>`, body, body)
		case "/huge":
			fmt.Fprintf(w, `<html><body><article><p>%s</p></article></body></html>`, strings.Repeat("word ", 5000))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	x := NewReadability()

	text := x.Extract(context.Background(), srv.URL+"/article")
	if !strings.Contains(text, "Equinor reported strong quarterly results") {
		t.Errorf("article text missing, got %.200q", text)
	}
	if strings.Contains(text, "  ") || strings.Contains(text, "\n") {
		t.Error("whitespace should be normalized")
	}

	huge := x.Extract(context.Background(), srv.URL+"/huge")
	if n := utf8.RuneCountInString(huge); n > report.ExtractCap {
		t.Errorf("extracted %d runes, cap %d", n, report.ExtractCap)
	}

	missing := srv.URL + "/missing"
	failed := x.Extract(context.Background(), missing)
	if !strings.HasPrefix(failed, "Failed to extract content from "+missing+": ") {
		t.Errorf("failure text = %q", failed)
	}
}
