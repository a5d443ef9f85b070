package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tunetools/tunetools-api/internal/llm"
	"github.com/tunetools/tunetools-api/internal/middleware"
	"github.com/tunetools/tunetools-api/internal/provider"
	"github.com/tunetools/tunetools-api/internal/song"
)

type SongHandler struct {
	orchestrator *song.Orchestrator
	songs        *song.Service
}

func NewSongHandler(orchestrator *song.Orchestrator, songs *song.Service) *SongHandler {
	return &SongHandler{orchestrator: orchestrator, songs: songs}
}

type generateRequest struct {
	Location    string   `json:"location"`
	Genres      []string `json:"genres"`
	Vocal       string   `json:"vocal"`
	Mood        string   `json:"mood"`
	CustomTitle string   `json:"custom_title"`
	CustomCover string   `json:"custom_cover"` // base64-encoded image
}

// Generate runs the daily song pipeline. This is a long request: synthesis
// alone typically takes 7-12 minutes.
func (h *SongHandler) Generate(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var customCover []byte
	if req.CustomCover != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.CustomCover)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "custom_cover must be base64-encoded image data"})
			return
		}
		customCover = decoded
	}

	result, err := h.orchestrator.Generate(c.Request.Context(), song.Request{
		UserID:   userID,
		Location: req.Location,
		Overrides: llm.Overrides{
			Genres:      req.Genres,
			Vocal:       req.Vocal,
			Mood:        req.Mood,
			CustomTitle: req.CustomTitle,
		},
		CustomCover: customCover,
	})
	if err != nil {
		if errors.Is(err, song.ErrSongExistsToday) {
			c.JSON(http.StatusConflict, gin.H{"error": "A song was already generated today"})
			return
		}
		var exhausted *provider.ExhaustedError
		if errors.As(err, &exhausted) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "All generation providers are unavailable"})
			return
		}
		var genErr *song.GenerationError
		if errors.As(err, &genErr) {
			c.JSON(http.StatusBadGateway, gin.H{
				"error": "Song generation failed",
				"stage": genErr.Stage,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Song generation failed"})
		return
	}

	c.JSON(http.StatusCreated, result)
}

// List returns the user's songs, newest first
func (h *SongHandler) List(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	songs, total, err := h.songs.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list songs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"songs": songs,
		"total": total,
	})
}

// Today returns the song generated today, if any
func (h *SongHandler) Today(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	today, err := h.songs.Today(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, song.ErrSongNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No song generated today"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load today's song"})
		return
	}

	c.JSON(http.StatusOK, today)
}

// Get returns one song by id
func (h *SongHandler) Get(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	songID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid song id"})
		return
	}

	found, err := h.songs.Get(c.Request.Context(), userID, songID)
	if err != nil {
		if errors.Is(err, song.ErrSongNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Song not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load song"})
		return
	}

	c.JSON(http.StatusOK, found)
}

type updateSongRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Update changes a song's title or description
func (h *SongHandler) Update(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	songID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid song id"})
		return
	}

	var req updateSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updated, err := h.songs.Update(c.Request.Context(), userID, songID, req.Title, req.Description)
	if err != nil {
		if errors.Is(err, song.ErrSongNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Song not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update song"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete removes a song and updates its album's counter
func (h *SongHandler) Delete(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	songID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid song id"})
		return
	}

	if err := h.songs.Delete(c.Request.Context(), userID, songID); err != nil {
		if errors.Is(err, song.ErrSongNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Song not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete song"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// GetShared resolves a song by its public share token. No auth.
func (h *SongHandler) GetShared(c *gin.Context) {
	shared, err := h.songs.GetByShareToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, song.ErrSongNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Song not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load song"})
		return
	}

	// Public payload: display fields only, no context snapshot
	c.JSON(http.StatusOK, gin.H{
		"title":       shared.Title,
		"description": shared.Description,
		"lyrics":      shared.Lyrics,
		"genre_tags":  shared.GenreTags,
		"audio_url":   shared.AudioURL,
		"created_at":  shared.CreatedAt,
	})
}
