package api

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tunetools/tunetools-api/internal/album"
	"github.com/tunetools/tunetools-api/internal/api/handlers"
	apimiddleware "github.com/tunetools/tunetools-api/internal/api/middleware"
	"github.com/tunetools/tunetools-api/internal/calendar"
	"github.com/tunetools/tunetools-api/internal/config"
	"github.com/tunetools/tunetools-api/internal/image"
	"github.com/tunetools/tunetools-api/internal/llm"
	"github.com/tunetools/tunetools-api/internal/metrics"
	"github.com/tunetools/tunetools-api/internal/middleware"
	"github.com/tunetools/tunetools-api/internal/news"
	"github.com/tunetools/tunetools-api/internal/snapshot"
	"github.com/tunetools/tunetools-api/internal/song"
	"github.com/tunetools/tunetools-api/internal/storage"
	"github.com/tunetools/tunetools-api/internal/synth"
	"github.com/tunetools/tunetools-api/internal/weather"
	"gorm.io/gorm"
)

// SetupRouter wires the full pipeline and mounts the API surface
func SetupRouter(ctx context.Context, db *gorm.DB, cfg *config.Config) (*gin.Engine, error) {
	router := gin.New()
	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking, structured logging and request metrics
	router.Use(apimiddleware.RequestTracking(collector))

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Context sources
	weatherService := weather.NewService(cfg.OpenWeatherAPIKey)
	newsAggregator := news.NewAggregator(cfg.SerpAPIKey, cfg.NewsAPIKey, cfg.WorldNewsAPIKey)
	calendarService := calendar.NewService(db, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	contexts := snapshot.NewAggregator(weatherService, newsAggregator, calendarService)

	// LLM spec builder: OpenAI primary, Gemini fallback
	var providers []llm.Provider
	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, llm.NewOpenAIProvider(cfg.OpenAIAPIKey))
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiProvider(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini provider: %w", err)
		}
		providers = append(providers, gemini)
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no LLM provider configured")
	}
	specBuilder := llm.NewSpecBuilder(providers...)

	// Artwork, storage, synthesis
	imageChain, err := image.NewChain(ctx, cfg.GeminiAPIKey, cfg.OpenAIAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image chain: %w", err)
	}
	store := storage.NewS3Storage(cfg.StorageBucket, cfg.StorageRegion, cfg.StorageEndpoint)
	synthesizer := synth.NewRunPodSynthesizer(cfg.RunPodAPIKey, cfg.RunPodEndpointID, cfg.SynthesisTimeout)

	specBuilder.OnFailure(collector.RecordProviderFallback)
	imageChain.OnFailure(collector.RecordProviderFallback)
	newsAggregator.OnFailure(collector.RecordProviderFallback)

	albumManager := album.NewManager(db, imageChain, store, collector)
	orchestrator := song.NewOrchestrator(db, contexts, specBuilder, albumManager, synthesizer, store, collector)
	songService := song.NewService(db, albumManager)

	// Health check
	healthHandler := handlers.NewHealthHandler(db, cfg)
	router.GET("/health", healthHandler.HealthCheck)

	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(metrics.Handler(prometheus.DefaultGatherer)))

	songHandler := handlers.NewSongHandler(orchestrator, songService)

	// Public share page (the token is the capability)
	router.GET("/api/share/:token", songHandler.GetShared)

	// Calendar OAuth callback hits us from Google without a JWT
	calendarHandler := handlers.NewCalendarHandler(calendarService)
	router.GET("/api/calendar/callback", calendarHandler.Callback)

	// Protected API routes v1 (require JWT)
	v1 := router.Group("/api/v1")
	v1.Use(middleware.JWTAuth(cfg))
	{
		v1.POST("/songs/generate", songHandler.Generate)
		v1.GET("/songs", songHandler.List)
		v1.GET("/songs/today", songHandler.Today)
		v1.GET("/songs/:id", songHandler.Get)
		v1.PUT("/songs/:id", songHandler.Update)
		v1.DELETE("/songs/:id", songHandler.Delete)

		albumHandler := handlers.NewAlbumHandler(albumManager)
		v1.GET("/albums", albumHandler.List)
		v1.GET("/albums/:id", albumHandler.Get)
		v1.PUT("/albums/:id", albumHandler.Rename)
		v1.PUT("/albums/:id/cover", albumHandler.ReplaceCover)
		v1.DELETE("/albums/:id", albumHandler.Delete)

		userHandler := handlers.NewUserHandler(db)
		v1.GET("/me", userHandler.GetProfile)
		v1.PUT("/me", userHandler.UpdateProfile)
		v1.GET("/me/preferences", userHandler.GetPreferences)
		v1.PUT("/me/preferences", userHandler.UpdatePreferences)

		v1.GET("/calendar/connect", calendarHandler.Connect)
		v1.GET("/calendar/status", calendarHandler.Status)
		v1.DELETE("/calendar", calendarHandler.Revoke)
	}

	return router, nil
}
