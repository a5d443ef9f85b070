package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
// All values come from the environment; .env loading happens in main.
type Config struct {
	// Environment
	Environment string
	Port        string

	// Database
	DatabaseURL string

	// LLM API Keys
	OpenAIAPIKey string // OpenAI API key (GPT lyrics + DALL-E artwork fallback)
	GeminiAPIKey string // Google Gemini API key (lyrics fallback + Imagen artwork)

	// News provider API Keys (tried in this order)
	SerpAPIKey      string
	NewsAPIKey      string
	WorldNewsAPIKey string

	// Weather
	OpenWeatherAPIKey string

	// Google Calendar OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Audio synthesis (RunPod serverless endpoint)
	RunPodAPIKey     string
	RunPodEndpointID string
	SynthesisTimeout time.Duration // ceiling for one synthesis call

	// Object storage
	StorageBucket   string
	StorageRegion   string
	StorageEndpoint string // optional, for S3-compatible stores

	// Observability
	SentryDSN string

	// Langfuse LLM tracing
	LangfusePublicKey string
	LangfuseSecretKey string
	LangfuseHost      string
	LangfuseEnabled   bool

	// Auth
	JWTSecret string
}

func Load() *Config {
	return &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		SerpAPIKey:         getEnv("SERPAPI_API_KEY", ""),
		NewsAPIKey:         getEnv("NEWSAPI_API_KEY", ""),
		WorldNewsAPIKey:    getEnv("WORLDNEWS_API_KEY", ""),
		OpenWeatherAPIKey:  getEnv("OPENWEATHER_API_KEY", ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:8080/api/calendar/callback"),
		RunPodAPIKey:       getEnv("RUNPOD_API_KEY", ""),
		RunPodEndpointID:   getEnv("RUNPOD_ENDPOINT_ID", ""),
		SynthesisTimeout:   getSecondsEnv("SYNTHESIS_TIMEOUT_SECONDS", 900),
		StorageBucket:      getEnv("STORAGE_BUCKET", "tunetools"),
		StorageRegion:      getEnv("STORAGE_REGION", "us-east-1"),
		StorageEndpoint:    getEnv("STORAGE_ENDPOINT", ""),
		SentryDSN:          getEnv("SENTRY_DSN", ""),
		LangfusePublicKey:  getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey:  getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:       getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:    getEnv("LANGFUSE_ENABLED", "false") == "true",
		JWTSecret:          getEnv("JWT_SECRET", ""),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultSeconds int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return time.Duration(defaultSeconds) * time.Second
}
