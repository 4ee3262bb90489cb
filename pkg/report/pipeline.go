package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"golang.org/x/sync/errgroup"

	"github.com/mikeboe/agent-helper/pkg/metrics"
)

// Stage interfaces consumed by the pipeline. The concrete LLM-backed types in
// this package satisfy them.
type (
	RelevanceClassifier interface {
		Classify(ctx context.Context, query, text, title, link string) Verdict
	}
	SentimentJudge interface {
		Analyze(ctx context.Context, text string) string
	}
	ReportWriter interface {
		Synthesize(ctx context.Context, query string, articles []ExtractedArticle) string
	}
	HeaderIllustrator interface {
		Illustrate(ctx context.Context, report string) (image string, prompt string)
	}
)

// DefaultFetchCount is how many candidates are requested when FetchCount is unset.
const DefaultFetchCount = 10

type Pipeline struct {
	Searcher    Searcher
	Extractor   Extractor
	Classifier  RelevanceClassifier
	Sentiment   SentimentJudge
	Synthesizer ReportWriter
	Illustrator HeaderIllustrator

	// FetchCount is the number of candidates requested from the provider;
	// the effective count is never below the desired count.
	FetchCount int
	// Workers > 1 evaluates candidates in windows of that many at a time.
	Workers int

	Logger *slog.Logger
	Notify func(message string)
}

// New wires the LLM-backed stages. fast serves classification, sentiment and
// the image prompt; reasoning writes the report.
func New(searcher Searcher, extractor Extractor, fast, reasoning llms.Model, images ImageGenerator) *Pipeline {
	return &Pipeline{
		Searcher:    searcher,
		Extractor:   extractor,
		Classifier:  NewClassifier(fast),
		Sentiment:   NewSentimentAnalyzer(fast),
		Synthesizer: NewSynthesizer(reasoning),
		Illustrator: NewIllustrator(fast, images),
		FetchCount:  DefaultFetchCount,
		Workers:     1,
		Logger:      slog.Default(),
	}
}

// WithHooks returns a shallow copy of p that logs to logger and reports
// progress to notify. Stages are shared with p.
func (p *Pipeline) WithHooks(logger *slog.Logger, notify func(message string)) *Pipeline {
	cp := *p
	cp.Logger = logger
	cp.Notify = notify
	return &cp
}

func (p *Pipeline) notify(format string, args ...any) {
	if p.Notify != nil {
		p.Notify(fmt.Sprintf(format, args...))
	}
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// Run searches, filters and analyzes candidates until desired are accepted or
// the candidates run out, then writes and illustrates the report. Stage
// failures degrade the result; Run itself never fails.
func (p *Pipeline) Run(ctx context.Context, query string, desired int, window Window) Result {
	log := p.logger()
	log.Info("Starting report pipeline", "query", query, "desired", desired, "window", window)
	p.notify("Initializing report generation")

	fetch := max(p.FetchCount, desired)
	p.notify("Searching for news about '%s'", query)
	results, err := p.Searcher.Search(ctx, query, fetch, window)
	if err != nil {
		log.Error("Search failed", "query", query, "error", err)
		results = nil
	}
	if len(results) == 0 {
		p.notify("No results found. Please try a different query.")
		return Result{Report: NoResultsReport, Sources: []ExtractedArticle{}}
	}
	p.notify("Found %d news articles", len(results))

	var accepted []ExtractedArticle
	if p.Workers > 1 {
		accepted = p.evaluateWindows(ctx, query, results, desired)
	} else {
		accepted = p.evaluateSequential(ctx, query, results, desired)
	}
	log.Info("Candidate evaluation complete", "candidates", len(results), "accepted", len(accepted))

	p.notify("Generating comprehensive report from %d sources", len(accepted))
	report := p.Synthesizer.Synthesize(ctx, query, accepted)

	p.notify("Generating header image for 'report'")
	image, prompt := p.Illustrator.Illustrate(ctx, report)
	if prompt != "" {
		p.notify("Created image prompt: '%s'", prompt)
	}
	if image == "" {
		p.notify("Header image unavailable")
	}

	p.notify("Report generation complete")
	return Result{
		Report:      report,
		HeaderImage: image,
		ImagePrompt: prompt,
		Sources:     accepted,
	}
}

func (p *Pipeline) evaluateSequential(ctx context.Context, query string, results []SearchResult, desired int) []ExtractedArticle {
	accepted := make([]ExtractedArticle, 0, max(desired, 0))
	for i, r := range results {
		if len(accepted) >= desired {
			break
		}
		p.logger().Info("Processing result", "index", i+1, "total", len(results), "title", r.Title)

		p.notify("Extracting content from %s", r.Link)
		content := p.Extractor.Extract(ctx, r.Link)

		p.notify("Checking relevance of article: '%s'", r.Title)
		if p.Classifier.Classify(ctx, query, content, r.Title, r.Link) != Relevant {
			p.notify("Article '%s' determined to be irrelevant - skipping", r.Title)
			continue
		}
		accepted = p.accept(ctx, accepted, r, content, desired)
	}
	return accepted
}

type evaluation struct {
	content string
	verdict Verdict
}

// evaluateWindows extracts and classifies up to Workers candidates
// concurrently, then accepts them in provider order. Sentiment only runs for
// accepted candidates, so the accepted set matches the sequential run.
func (p *Pipeline) evaluateWindows(ctx context.Context, query string, results []SearchResult, desired int) []ExtractedArticle {
	accepted := make([]ExtractedArticle, 0, max(desired, 0))
	for start := 0; start < len(results) && len(accepted) < desired; start += p.Workers {
		window := results[start:min(start+p.Workers, len(results))]
		evals := make([]evaluation, len(window))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.Workers)
		for i, r := range window {
			g.Go(func() error {
				content := p.Extractor.Extract(gctx, r.Link)
				evals[i] = evaluation{
					content: content,
					verdict: p.Classifier.Classify(gctx, query, content, r.Title, r.Link),
				}
				return nil
			})
		}
		_ = g.Wait()

		for i, r := range window {
			if len(accepted) >= desired {
				break
			}
			p.notify("Checking relevance of article: '%s'", r.Title)
			if evals[i].verdict != Relevant {
				p.notify("Article '%s' determined to be irrelevant - skipping", r.Title)
				continue
			}
			accepted = p.accept(ctx, accepted, r, evals[i].content, desired)
		}
	}
	return accepted
}

func (p *Pipeline) accept(ctx context.Context, accepted []ExtractedArticle, r SearchResult, content string, desired int) []ExtractedArticle {
	p.notify("Analyzing sentiment of content")
	sentiment := p.Sentiment.Analyze(ctx, content)

	accepted = append(accepted, ExtractedArticle{
		Title:     r.Title,
		Link:      r.Link,
		Snippet:   r.Snippet,
		Content:   Preview(content),
		Sentiment: sentiment,
	})
	metrics.Candidates.WithLabelValues(metrics.OutcomeAccepted).Inc()
	p.notify("Processing article %d/%d: '%s' complete", len(accepted), desired, r.Title)
	return accepted
}
