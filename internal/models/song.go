package models

import (
	"time"

	"github.com/google/uuid"
)

// Song is one generated daily song. The context snapshot captured at
// generation time is embedded as typed JSON columns for provenance; the
// share token grants permanent unauthenticated read access.
type Song struct {
	ID          uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	UserID      uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	AlbumID     uuid.UUID `gorm:"type:uuid;index;not null" json:"album_id"`
	Album       *Album    `gorm:"foreignKey:AlbumID;constraint:OnDelete:CASCADE" json:"-"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	Lyrics      string    `gorm:"type:text;not null" json:"lyrics"`
	GenreTags   string    `gorm:"not null" json:"genre_tags"`
	AudioURL    string    `gorm:"not null" json:"audio_url"`
	ShareToken  string    `gorm:"uniqueIndex;not null" json:"share_token"`

	// Embedded context snapshot
	WeatherData  *WeatherData                  `gorm:"serializer:json" json:"weather_data,omitempty"`
	NewsData     []NewsArticle                 `gorm:"serializer:json" json:"news_data,omitempty"`
	CalendarData map[string][]CalendarActivity `gorm:"serializer:json" json:"calendar_data,omitempty"`

	GenerationTimeSeconds float64 `json:"generation_time_seconds"`
	LLMProvider           string  `json:"llm_provider"`
}

// Snapshot reassembles the embedded context for callers that want it typed
func (s *Song) Snapshot() ContextSnapshot {
	return ContextSnapshot{
		Weather:  s.WeatherData,
		News:     s.NewsData,
		Calendar: s.CalendarData,
	}
}
