package report

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/agent-helper/pkg/metrics"
)

// Verdict is the relevance judgment for one candidate.
type Verdict int

const (
	Irrelevant Verdict = iota
	Relevant
)

func (v Verdict) String() string {
	if v == Relevant {
		return "relevant"
	}
	return "irrelevant"
}

// blockedDomains are never credible news sources, whatever the model says.
var blockedDomains = []string{"finn.no"}

const relevancePrompt = `Please determine if the following text is relevant to the prompt.
The prompt is asking for news about Norwegian companies, and you should verify
that the text has some mention of the company mentioned in the prompt, and that the source is a credible news site in Norway.
finn.no and sites named after the company in the prompt are not credible news sites, and you should not use them as sources.
Respond with 'True' or 'False' only.

Prompt: %s

Text: %s`

// Classifier judges whether candidate text is about the query's subject.
type Classifier struct {
	LLM    llms.Model
	Logger *slog.Logger
}

func NewClassifier(llm llms.Model) *Classifier {
	return &Classifier{LLM: llm, Logger: slog.Default()}
}

// Classify returns Relevant only when the source passes the domain rule and
// the model answers exactly "True". Model errors and any other output are
// treated as Irrelevant.
func (c *Classifier) Classify(ctx context.Context, query, text, title, link string) Verdict {
	if reason := rejectSource(query, link); reason != "" {
		c.Logger.Info("Source rejected before classification", "title", title, "url", link, "reason", reason)
		metrics.Candidates.WithLabelValues(metrics.OutcomePrefiltered).Inc()
		return Irrelevant
	}

	prompt := fmt.Sprintf(relevancePrompt, query, Truncate(text, InputCap))
	answer, err := generate(ctx, c.LLM, prompt, judgeOptions...)
	if err != nil {
		c.Logger.Error("Relevance classification failed", "title", title, "error", err)
		metrics.Candidates.WithLabelValues(metrics.OutcomeClassifierError).Inc()
		return Irrelevant
	}

	switch answer {
	case "True":
		return Relevant
	case "False":
		metrics.Candidates.WithLabelValues(metrics.OutcomeIrrelevant).Inc()
		return Irrelevant
	default:
		c.Logger.Warn("Unexpected classifier output, rejecting", "title", title, "output", answer)
		metrics.Candidates.WithLabelValues(metrics.OutcomeMalformed).Inc()
		return Irrelevant
	}
}

// rejectSource applies the domain rule stated in the relevance prompt:
// finn.no, and sites named after the company being asked about.
func rejectSource(query, link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	for _, d := range blockedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return "blocked domain " + d
		}
	}

	name := normalizeName(query)
	if name == "" {
		return ""
	}
	label, _, _ := strings.Cut(host, ".")
	label = normalizeName(label)
	first, _, _ := strings.Cut(strings.TrimSpace(query), " ")
	if label == name || label == normalizeName(first) {
		return "site named after " + query
	}
	return ""
}

// normalizeName lowercases s and drops everything but letters and digits.
func normalizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
