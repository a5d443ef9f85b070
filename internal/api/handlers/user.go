package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tunetools/tunetools-api/internal/middleware"
	"github.com/tunetools/tunetools-api/internal/models"
	"gorm.io/gorm"
)

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// GetProfile returns the current user's profile, creating the row on first
// contact since authentication happens upstream
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	profile, err := h.ensureProfile(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

type updateProfileRequest struct {
	OnboardingCompleted *bool `json:"onboarding_completed"`
}

// UpdateProfile flips the onboarding flag
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	profile, err := h.ensureProfile(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	if req.OnboardingCompleted != nil {
		if err := h.db.Model(profile).Update("onboarding_completed", *req.OnboardingCompleted).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
			return
		}
		profile.OnboardingCompleted = *req.OnboardingCompleted
	}

	c.JSON(http.StatusOK, profile)
}

// GetPreferences returns stored preferences, falling back to defaults
func (h *UserHandler) GetPreferences(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var prefs models.UserPreferences
	err := h.db.Where("user_id = ?", userID).First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusOK, gin.H{
			"preferences": models.DefaultPreferences(),
			"defaults":    true,
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load preferences"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"preferences": prefs.Data(),
		"defaults":    false,
	})
}

type updatePreferencesRequest struct {
	Categories      []string `json:"categories"`
	MusicGenres     []string `json:"music_genres"`
	VocalPreference string   `json:"vocal_preference"`
	MoodPreference  string   `json:"mood_preference"`
}

// UpdatePreferences validates and upserts the user's preferences
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req updatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	prefs := models.UserPreferences{
		UserID:          userID,
		Categories:      req.Categories,
		MusicGenres:     req.MusicGenres,
		VocalPreference: req.VocalPreference,
		MoodPreference:  req.MoodPreference,
	}
	if err := prefs.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.UserPreferences
	err := h.db.Where("user_id = ?", userID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		prefs.ID = uuid.New()
		if err := h.db.Create(&prefs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save preferences"})
			return
		}
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load preferences"})
		return
	default:
		updates := map[string]interface{}{
			"categories":       prefs.Categories,
			"music_genres":     prefs.MusicGenres,
			"vocal_preference": prefs.VocalPreference,
			"mood_preference":  prefs.MoodPreference,
		}
		if err := h.db.Model(&existing).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save preferences"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"preferences": prefs.Data()})
}

func (h *UserHandler) ensureProfile(userID uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := h.db.Where("id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = models.UserProfile{ID: userID}
		if err := h.db.Create(&profile).Error; err != nil {
			return nil, err
		}
		return &profile, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
