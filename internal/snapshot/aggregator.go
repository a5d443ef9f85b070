// Package snapshot assembles the per-request context bundle (weather, news,
// calendar) that seeds song generation. Sources are fetched concurrently and
// every one of them is best-effort: the snapshot is produced even when all
// three fail.
package snapshot

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/tunetools/tunetools-api/internal/calendar"
	"github.com/tunetools/tunetools-api/internal/logger"
	"github.com/tunetools/tunetools-api/internal/models"
)

const (
	defaultLocation    = "New York"
	defaultNewsRegion  = "US"
	defaultMaxArticles = 10
	defaultDaysAhead   = 1
)

// WeatherSource fetches current weather for a named location
type WeatherSource interface {
	ByCity(ctx context.Context, city string) (*models.WeatherData, error)
}

// NewsSource fetches category-weighted headlines
type NewsSource interface {
	Fetch(ctx context.Context, categories []string, location string, maxArticles int) ([]models.NewsArticle, error)
}

// CalendarSource fetches upcoming activities keyed by date
type CalendarSource interface {
	Activities(ctx context.Context, userID uuid.UUID, daysAhead, daysBehind int) (map[string][]models.CalendarActivity, error)
}

// Request parameterizes one aggregation
type Request struct {
	UserID      uuid.UUID
	Preferences models.UserPreferencesData
	Location    string // optional override; falls back to the default city
	DaysAhead   int    // calendar look-ahead; 0 means the default
}

// Aggregator fans out to the three context sources
type Aggregator struct {
	weather  WeatherSource
	news     NewsSource
	calendar CalendarSource
}

func NewAggregator(weather WeatherSource, news NewsSource, cal CalendarSource) *Aggregator {
	return &Aggregator{weather: weather, news: news, calendar: cal}
}

// Aggregate gathers all three sources concurrently and joins them into one
// snapshot. It never returns an error: failed sources degrade to absent
// weather, an empty article list, or an empty calendar mapping.
func (a *Aggregator) Aggregate(ctx context.Context, req Request) models.ContextSnapshot {
	location := req.Location
	if location == "" {
		location = defaultLocation
	}
	// News gets the caller's location for its location-boost; without an
	// override it filters by region rather than the weather city.
	newsLocation := req.Location
	if newsLocation == "" {
		newsLocation = defaultNewsRegion
	}
	daysAhead := req.DaysAhead
	if daysAhead <= 0 {
		daysAhead = defaultDaysAhead
	}

	var (
		wg       sync.WaitGroup
		weather  *models.WeatherData
		articles []models.NewsArticle
		agenda   map[string][]models.CalendarActivity
	)

	wg.Add(3)

	go func() {
		defer wg.Done()
		data, err := a.weather.ByCity(ctx, location)
		if err != nil {
			logger.Warn("weather unavailable, continuing without it", logger.Fields{
				"location": location,
				"error":    err.Error(),
			})
			return
		}
		weather = data
	}()

	go func() {
		defer wg.Done()
		result, err := a.news.Fetch(ctx, req.Preferences.Categories, newsLocation, defaultMaxArticles)
		if err != nil {
			logger.Warn("news unavailable, continuing without it", logger.Fields{
				"error": err.Error(),
			})
			return
		}
		articles = result
	}()

	go func() {
		defer wg.Done()
		result, err := a.calendar.Activities(ctx, req.UserID, daysAhead, 0)
		if err != nil {
			if !errors.Is(err, calendar.ErrNotConnected) {
				logger.Warn("calendar unavailable, continuing without it", logger.Fields{
					"user_id": req.UserID,
					"error":   err.Error(),
				})
			}
			return
		}
		agenda = result
	}()

	wg.Wait()

	if articles == nil {
		articles = []models.NewsArticle{}
	}
	if agenda == nil {
		agenda = map[string][]models.CalendarActivity{}
	}

	return models.ContextSnapshot{
		Weather:  weather,
		News:     articles,
		Calendar: agenda,
	}
}
