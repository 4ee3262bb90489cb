package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	GoogleApiKey   string
	GoogleProject  string
	GoogleLocation string
	ReasoningModel string
	FastModel      string
	ImageModel     string

	SearchProvider  string
	TavilyApiKey    string
	GoogleSearchKey string
	GoogleSearchCX  string
	FetchCount      int
	DesiredCount    int
	Window          string
	Workers         int

	EnturClientName string
	SupabaseURL     string
	SupabaseKey     string

	DatabaseURL     string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	GeocodeCacheTTL time.Duration
	SessionTTL      time.Duration
	Port            string
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	return &Config{
		GoogleApiKey:   getEnv("GOOGLE_API_KEY", ""),
		GoogleProject:  getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleLocation: getEnv("GOOGLE_CLOUD_LOCATION", "us-central1"),
		ReasoningModel: getEnv("REASONING_MODEL", "gemini-2.5-pro"),
		FastModel:      getEnv("FAST_MODEL", "gemini-2.5-flash"),
		ImageModel:     getEnv("IMAGE_MODEL", "imagen-4.0-generate-001"),

		SearchProvider:  getEnv("SEARCH_PROVIDER", "tavily"),
		TavilyApiKey:    getEnv("TAVILY_API_KEY", ""),
		GoogleSearchKey: getEnv("GOOGLE_SEARCH_KEY", ""),
		GoogleSearchCX:  getEnv("GOOGLE_SEARCH_CX", ""),
		FetchCount:      getEnvAsInt("REPORT_FETCH_COUNT", 10),
		DesiredCount:    getEnvAsInt("REPORT_DESIRED_COUNT", 5),
		Window:          getEnv("REPORT_WINDOW", "week"),
		Workers:         getEnvAsInt("REPORT_WORKERS", 1),

		EnturClientName: getEnv("ENTUR_CLIENT_NAME", "Google-VertexAI-LLM-hackathon"),
		SupabaseURL:     getEnv("SUPABASE_URL", ""),
		SupabaseKey:     getEnv("SUPABASE_KEY", ""),

		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvAsInt("REDIS_DB", 0),
		GeocodeCacheTTL: getEnvAsDuration("GEOCODE_CACHE_TTL", 24*time.Hour),
		SessionTTL:      getEnvAsDuration("SESSION_TTL", 15*time.Minute),
		Port:            getEnv("PORT", "8081"),
	}
}

// UseVertex reports whether the Google clients should target Vertex AI
// rather than the Gemini API.
func (c *Config) UseVertex() bool {
	return c.GoogleApiKey == "" && c.GoogleProject != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
