package models

import "time"

// WeatherData is the weather portion of a context snapshot
type WeatherData struct {
	Location         string  `json:"location"`
	City             string  `json:"city"`
	Country          string  `json:"country"`
	TempC            float64 `json:"temp_c"`
	TempF            float64 `json:"temp_f"`
	WeatherCondition string  `json:"weather_condition"`
	Humidity         int     `json:"humidity"`
	WindSpeedKPH     float64 `json:"wind_speed_kph"`
	PrecipitationMM  float64 `json:"precipitation_mm"`
	Icon             string  `json:"icon"`
	LocalTime        string  `json:"local_time"`
}

// NewsArticle is one article in a context snapshot
type NewsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	Author      string `json:"author,omitempty"`
	Category    string `json:"category,omitempty"`
	PublishedAt string `json:"published_at"`
	ImageURL    string `json:"image_url,omitempty"`
}

// CalendarActivity is one calendar event in a context snapshot
type CalendarActivity struct {
	Title     string     `json:"title"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Location  string     `json:"location,omitempty"`
	IsAllDay  bool       `json:"is_all_day"`
}

// ContextSnapshot is the weather/news/calendar bundle captured at generation
// time. It is never persisted on its own; the orchestrator embeds it verbatim
// into the resulting song for provenance. Every source is best-effort: a failed
// fetch leaves its field nil/empty rather than failing the snapshot.
type ContextSnapshot struct {
	Weather  *WeatherData                  `json:"weather,omitempty"`
	News     []NewsArticle                 `json:"news"`
	Calendar map[string][]CalendarActivity `json:"calendar"` // keyed by YYYY-MM-DD
}

// UserPreferencesData is the preference set feeding prompt construction
type UserPreferencesData struct {
	Categories      []string `json:"categories"`
	MusicGenres     []string `json:"music_genres"`
	VocalPreference string   `json:"vocal_preference"`
	MoodPreference  string   `json:"mood_preference"`
}

// DefaultPreferences is used when a user has not completed onboarding
func DefaultPreferences() UserPreferencesData {
	return UserPreferencesData{
		Categories:      []string{"technology", "business"},
		MusicGenres:     []string{"pop", "indie"},
		VocalPreference: "female",
		MoodPreference:  "uplifting",
	}
}
