package clients

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mikeboe/agent-helper/pkg/cache"
	"github.com/mikeboe/agent-helper/pkg/config"
	"github.com/mikeboe/agent-helper/pkg/report"
	"github.com/mikeboe/agent-helper/pkg/report/tools"
	"github.com/mikeboe/agent-helper/pkg/routemap"
	"github.com/mikeboe/agent-helper/pkg/trip"
	"github.com/mikeboe/agent-helper/pkg/trip/entur"
	"github.com/mikeboe/agent-helper/pkg/walkpath"
)

// NewSearcher returns the provider named by SEARCH_PROVIDER.
func NewSearcher(cfg *config.Config) (report.Searcher, error) {
	switch cfg.SearchProvider {
	case "tavily", "":
		if cfg.TavilyApiKey == "" {
			return nil, fmt.Errorf("TAVILY_API_KEY must be set for the tavily search provider")
		}
		return tools.NewTavily(cfg.TavilyApiKey), nil
	case "google":
		if cfg.GoogleSearchKey == "" || cfg.GoogleSearchCX == "" {
			return nil, fmt.Errorf("GOOGLE_SEARCH_KEY and GOOGLE_SEARCH_CX must be set for the google search provider")
		}
		return tools.NewGoogleCSE(cfg.GoogleSearchKey, cfg.GoogleSearchCX), nil
	case "rss":
		return tools.NewNewsFeed(), nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.SearchProvider)
	}
}

// ReportPipeline wires the news report pipeline from configuration.
func ReportPipeline(ctx context.Context, cfg *config.Config) (*report.Pipeline, error) {
	searcher, err := NewSearcher(cfg)
	if err != nil {
		return nil, err
	}

	fast, err := GoogleAi(ctx, cfg, ModelType(cfg.FastModel))
	if err != nil {
		return nil, err
	}
	reasoning, err := GoogleAi(ctx, cfg, ModelType(cfg.ReasoningModel))
	if err != nil {
		return nil, err
	}

	var images report.ImageGenerator
	if genaiClient, err := GenAI(ctx, cfg); err != nil {
		slog.Warn("Image generation disabled", "error", err)
	} else {
		images = NewImageGenerator(genaiClient, cfg.ImageModel)
	}

	p := report.New(searcher, tools.NewReadability(), fast, reasoning, images)
	p.FetchCount = cfg.FetchCount
	p.Workers = cfg.Workers
	return p, nil
}

// TripGraph wires the trip graph. When REDIS_ADDR is set geocoding goes
// through the cache; the returned func releases it.
func TripGraph(ctx context.Context, cfg *config.Config) (*trip.Graph, func(), error) {
	genaiClient, err := GenAI(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	var geocoder trip.Geocoder = entur.NewGeocoder(cfg.EnturClientName)
	closeFn := func() {}
	if cfg.RedisAddr != "" {
		store, err := cache.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			slog.Warn("Geocode cache disabled", "error", err)
		} else {
			geocoder = cache.NewGeocodeCache(geocoder, store, cfg.GeocodeCacheTTL)
			closeFn = func() { _ = store.Close() }
		}
	}

	g := trip.NewGraph(
		trip.NewGenAIExtractor(genaiClient, cfg.FastModel),
		geocoder,
		entur.NewJourneyPlanner(cfg.EnturClientName),
	)
	return g, closeFn, nil
}

// RouteAssembler builds map layers, with accessible walking paths when a
// path service is configured.
func RouteAssembler(cfg *config.Config) *routemap.Assembler {
	if cfg.SupabaseURL == "" {
		return routemap.NewAssembler(nil)
	}
	return routemap.NewAssembler(walkpath.NewClient(cfg.SupabaseURL, cfg.SupabaseKey))
}
