package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UserProfile mirrors an externally-authenticated user. Authentication itself
// happens upstream; we only track onboarding state against the user id carried
// in the JWT subject.
type UserProfile struct {
	ID                  uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
	OnboardingCompleted bool      `gorm:"default:false" json:"onboarding_completed"`
}

// UserPreferences drives news selection and song generation
type UserPreferences struct {
	ID              uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	UserID          uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Categories      []string  `gorm:"serializer:json" json:"categories"`
	MusicGenres     []string  `gorm:"serializer:json" json:"music_genres"`
	VocalPreference string    `gorm:"not null" json:"vocal_preference"` // male, female, neutral
	MoodPreference  string    `gorm:"not null" json:"mood_preference"`
}

var allowedVocalPreferences = map[string]bool{
	"male":    true,
	"female":  true,
	"neutral": true,
}

// Validate checks preference constraints before persisting
func (p *UserPreferences) Validate() error {
	if len(p.Categories) == 0 {
		return fmt.Errorf("at least one news category must be selected")
	}
	if len(p.MusicGenres) == 0 {
		return fmt.Errorf("at least one music genre must be selected")
	}
	if !allowedVocalPreferences[p.VocalPreference] {
		return fmt.Errorf("vocal_preference must be one of male, female, neutral")
	}
	return nil
}

// Data converts stored preferences to the snapshot-facing form
func (p *UserPreferences) Data() UserPreferencesData {
	return UserPreferencesData{
		Categories:      p.Categories,
		MusicGenres:     p.MusicGenres,
		VocalPreference: p.VocalPreference,
		MoodPreference:  p.MoodPreference,
	}
}

// CalendarIntegration stores OAuth tokens for a user's calendar provider
type CalendarIntegration struct {
	ID             uuid.UUID  `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	UserID         uuid.UUID  `gorm:"type:uuid;index:idx_calendar_user_provider,unique" json:"user_id"`
	Provider       string     `gorm:"index:idx_calendar_user_provider,unique;default:'google'" json:"provider"`
	AccessToken    string     `gorm:"not null" json:"-"`
	RefreshToken   string     `json:"-"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
}

// Expired reports whether the access token needs a refresh before use
func (i *CalendarIntegration) Expired(now time.Time) bool {
	return i.TokenExpiresAt != nil && !now.Before(*i.TokenExpiresAt)
}
