package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		link   string
		output string
		err    error
		want   Verdict
		called bool
	}{
		{"true", "Equinor", "https://e24.no/a", "True", nil, Relevant, true},
		{"true with whitespace", "Equinor", "https://e24.no/a", "  True\n", nil, Relevant, true},
		{"false", "Equinor", "https://e24.no/a", "False", nil, Irrelevant, true},
		{"lowercase is malformed", "Equinor", "https://e24.no/a", "true", nil, Irrelevant, true},
		{"malformed", "Equinor", "https://e24.no/a", "Probably relevant", nil, Irrelevant, true},
		{"model error", "Equinor", "https://e24.no/a", "", errors.New("503"), Irrelevant, true},
		{"finn.no", "Equinor", "https://www.finn.no/job/123", "True", nil, Irrelevant, false},
		{"finn subdomain", "Equinor", "https://m.finn.no/x", "True", nil, Irrelevant, false},
		{"company site", "Rema", "https://www.rema.no/nyheter", "True", nil, Irrelevant, false},
		{"company site with number", "Rema 1000", "https://rema1000.no/", "True", nil, Irrelevant, false},
		{"other site mentioning company", "Rema", "https://dn.no/rema-1000", "True", nil, Relevant, true},
		{"company name first word", "Rema 1000", "https://www.rema.no/", "True", nil, Irrelevant, false},
		{"outlet sharing a prefix", "Aker", "https://www.akersposten.no/nyheter/1", "True", nil, Relevant, true},
		{"regional paper sharing a prefix", "Nord", "https://www.nordlys.no/okonomi/1", "True", nil, Relevant, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newScriptedModel()
			m.relevant = func(string) (string, error) { return tt.output, tt.err }
			c := NewClassifier(m)

			got := c.Classify(context.Background(), tt.query, "some text", "title", tt.link)
			if got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
			if called := len(m.prompts) > 0; called != tt.called {
				t.Errorf("model called = %v, want %v", called, tt.called)
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	m := newScriptedModel()
	c := NewClassifier(m)
	first := c.Classify(context.Background(), "Equinor", "text", "t", "https://e24.no/a")
	second := c.Classify(context.Background(), "Equinor", "text", "t", "https://e24.no/a")
	if first != second {
		t.Errorf("verdicts differ: %v then %v", first, second)
	}
	if m.prompts[0] != m.prompts[1] {
		t.Error("prompts differ for identical input")
	}
}

func TestSentimentFailure(t *testing.T) {
	s := NewSentimentAnalyzer(failingModel{})
	got := s.Analyze(context.Background(), "text")
	if !strings.HasPrefix(got, "Sentiment analysis unavailable:") {
		t.Errorf("Analyze() = %q", got)
	}
}

func TestSynthesizeFailure(t *testing.T) {
	m := newScriptedModel()
	m.synthErr = errors.New("deadline exceeded")
	got := NewSynthesizer(m).Synthesize(context.Background(), "Equinor", nil)
	if got != "Report generation failed: deadline exceeded" {
		t.Errorf("Synthesize() = %q", got)
	}
}

func TestBuildReportPrompt(t *testing.T) {
	prompt := BuildReportPrompt("Equinor", []ExtractedArticle{
		{Title: "Oil up", Link: "https://e24.no/1", Content: "c1", Sentiment: "positive"},
		{Title: "Oil down", Link: "https://dn.no/2", Content: "c2", Sentiment: "negative"},
	})
	for _, want := range []string{
		`Based on the search query "Equinor"`,
		"SOURCE 1: Oil up\nURL: https://e24.no/1\nCONTENT: c1\nSENTIMENT: positive",
		"SOURCE 2: Oil down",
		`do not use the word "source" in the report`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestIllustrate(t *testing.T) {
	t.Run("prompt failure", func(t *testing.T) {
		il := NewIllustrator(failingModel{}, fakeImages{img: []byte("x")})
		img, prompt := il.Illustrate(context.Background(), "report")
		if img != "" || prompt != "" {
			t.Errorf("got (%q, %q), want empty pair", img, prompt)
		}
	})

	t.Run("seed is capped", func(t *testing.T) {
		m := newScriptedModel()
		il := NewIllustrator(m, fakeImages{img: []byte("x")})
		il.Illustrate(context.Background(), strings.Repeat("å", 2000))
		p := m.promptsWithPrefix("Create an image prompt")[0]
		seed := strings.TrimPrefix(p, "Create an image prompt about this report: ")
		seed, _, _ = strings.Cut(seed, " that would work well")
		if n := utf8.RuneCountInString(seed); n != ImageSeedCap {
			t.Errorf("seed has %d runes, want %d", n, ImageSeedCap)
		}
	})

	t.Run("no generator", func(t *testing.T) {
		il := NewIllustrator(newScriptedModel(), nil)
		img, prompt := il.Illustrate(context.Background(), "report")
		if img != "" || prompt == "" {
			t.Errorf("got (%q, %q)", img, prompt)
		}
	})
}

func TestTruncate(t *testing.T) {
	if got := Truncate("blåbær", 3); got != "blå" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Preview("abc"); got != "abc..." {
		t.Errorf("Preview = %q", got)
	}
}
