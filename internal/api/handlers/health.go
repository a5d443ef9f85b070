package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tunetools/tunetools-api/internal/config"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewHealthHandler(db *gorm.DB, cfg *config.Config) *HealthHandler {
	return &HealthHandler{db: db, cfg: cfg}
}

// HealthCheck reports database reachability and which provider chains have
// credentials configured
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	dbStatus := "ok"
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "unreachable"
	}

	status := http.StatusOK
	if dbStatus != "ok" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":   dbStatus,
		"database": dbStatus,
		"providers": gin.H{
			"llm": gin.H{
				"openai": configured(h.cfg.OpenAIAPIKey),
				"gemini": configured(h.cfg.GeminiAPIKey),
			},
			"news": gin.H{
				"serpapi":   configured(h.cfg.SerpAPIKey),
				"newsapi":   configured(h.cfg.NewsAPIKey),
				"worldnews": configured(h.cfg.WorldNewsAPIKey),
			},
			"weather":   configured(h.cfg.OpenWeatherAPIKey),
			"synthesis": configured(h.cfg.RunPodAPIKey),
		},
	})
}

func configured(key string) string {
	if key == "" {
		return "missing"
	}
	return "configured"
}
