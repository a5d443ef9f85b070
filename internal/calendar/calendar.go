// Package calendar integrates Google Calendar: OAuth connect/refresh plus
// event fetching for the context snapshot. A user without an integration, or
// whose tokens cannot be refreshed, simply yields no calendar data.
package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/tunetools/tunetools-api/internal/logger"
	"github.com/tunetools/tunetools-api/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

const (
	providerGoogle = "google"
	eventsURL      = "https://www.googleapis.com/calendar/v3/calendars/primary/events"
	requestTimeout = 10 * time.Second
	maxResults     = 100
)

// ErrNotConnected is returned when the user has no calendar integration
var ErrNotConnected = errors.New("calendar not connected")

// Service drives the Google Calendar integration lifecycle
type Service struct {
	db        *gorm.DB
	oauth     *oauth2.Config
	client    *http.Client
	eventsURL string
	tokenURL  string // override for tests; empty uses the oauth2 endpoint
}

func NewService(db *gorm.DB, clientID, clientSecret, redirectURL string) *Service {
	return &Service{
		db: db,
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"https://www.googleapis.com/auth/calendar.readonly"},
			Endpoint:     google.Endpoint,
		},
		client:    &http.Client{Timeout: requestTimeout},
		eventsURL: eventsURL,
	}
}

// SetEndpoints overrides the external URLs, for tests
func (s *Service) SetEndpoints(events, token string) {
	s.eventsURL = events
	if token != "" {
		s.oauth.Endpoint = oauth2.Endpoint{AuthURL: s.oauth.Endpoint.AuthURL, TokenURL: token}
	}
}

// AuthURL builds the consent URL; the user id travels in the state parameter
func (s *Service) AuthURL(userID uuid.UUID) string {
	return s.oauth.AuthCodeURL(userID.String(),
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// HandleCallback exchanges the authorization code and stores the tokens
func (s *Service) HandleCallback(ctx context.Context, userID uuid.UUID, code string) error {
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("oauth code exchange failed: %w", err)
	}
	return s.storeToken(userID, token)
}

// Revoke deletes the stored integration
func (s *Service) Revoke(userID uuid.UUID) error {
	return s.db.
		Where("user_id = ? AND provider = ?", userID, providerGoogle).
		Delete(&models.CalendarIntegration{}).Error
}

// Connected reports whether the user has a stored integration
func (s *Service) Connected(userID uuid.UUID) bool {
	var count int64
	s.db.Model(&models.CalendarIntegration{}).
		Where("user_id = ? AND provider = ?", userID, providerGoogle).
		Count(&count)
	return count > 0
}

// Activities fetches events from daysBehind back to daysAhead forward, keyed
// by date. An expired access token gets exactly one silent refresh attempt;
// if that also fails the caller receives the error and degrades to an empty
// mapping.
func (s *Service) Activities(ctx context.Context, userID uuid.UUID, daysAhead, daysBehind int) (map[string][]models.CalendarActivity, error) {
	var integration models.CalendarIntegration
	err := s.db.
		Where("user_id = ? AND provider = ?", userID, providerGoogle).
		First(&integration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotConnected
	}
	if err != nil {
		return nil, err
	}

	accessToken := integration.AccessToken
	if integration.Expired(time.Now()) {
		logger.Info("calendar token expired, refreshing", logger.Fields{"user_id": userID})
		accessToken, err = s.refresh(ctx, &integration)
		if err != nil {
			return nil, fmt.Errorf("token refresh failed: %w", err)
		}
	}

	return s.fetchEvents(ctx, accessToken, daysAhead, daysBehind)
}

// refresh trades the stored refresh token for a new access token and persists it
func (s *Service) refresh(ctx context.Context, integration *models.CalendarIntegration) (string, error) {
	if integration.RefreshToken == "" {
		return "", errors.New("no refresh token stored")
	}

	source := s.oauth.TokenSource(ctx, &oauth2.Token{
		RefreshToken: integration.RefreshToken,
		Expiry:       time.Now().Add(-time.Minute),
	})
	token, err := source.Token()
	if err != nil {
		return "", err
	}

	if err := s.storeToken(integration.UserID, token); err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

func (s *Service) storeToken(userID uuid.UUID, token *oauth2.Token) error {
	var expiresAt *time.Time
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		expiresAt = &expiry
	}

	var existing models.CalendarIntegration
	err := s.db.
		Where("user_id = ? AND provider = ?", userID, providerGoogle).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		integration := models.CalendarIntegration{
			ID:             uuid.New(),
			UserID:         userID,
			Provider:       providerGoogle,
			AccessToken:    token.AccessToken,
			RefreshToken:   token.RefreshToken,
			TokenExpiresAt: expiresAt,
		}
		return s.db.Create(&integration).Error
	}
	if err != nil {
		return err
	}

	existing.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		existing.RefreshToken = token.RefreshToken
	}
	existing.TokenExpiresAt = expiresAt
	return s.db.Save(&existing).Error
}

func (s *Service) fetchEvents(ctx context.Context, accessToken string, daysAhead, daysBehind int) (map[string][]models.CalendarActivity, error) {
	now := time.Now().UTC()
	params := url.Values{}
	params.Set("timeMin", now.AddDate(0, 0, -daysBehind).Format(time.RFC3339))
	params.Set("timeMax", now.AddDate(0, 0, daysAhead).Format(time.RFC3339))
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")
	params.Set("maxResults", fmt.Sprintf("%d", maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.eventsURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar request failed: status %d", resp.StatusCode)
	}

	var raw struct {
		Items []struct {
			Summary  string `json:"summary"`
			Location string `json:"location"`
			Start    struct {
				DateTime string `json:"dateTime"`
				Date     string `json:"date"`
			} `json:"start"`
			End struct {
				DateTime string `json:"dateTime"`
				Date     string `json:"date"`
			} `json:"end"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("calendar response decode failed: %w", err)
	}

	activities := make(map[string][]models.CalendarActivity)
	for _, item := range raw.Items {
		start, allDay, err := parseEventTime(item.Start.DateTime, item.Start.Date)
		if err != nil {
			continue
		}

		var end *time.Time
		if parsed, _, err := parseEventTime(item.End.DateTime, item.End.Date); err == nil {
			end = &parsed
		}

		title := item.Summary
		if title == "" {
			title = "Untitled Event"
		}

		day := start.Format("2006-01-02")
		activities[day] = append(activities[day], models.CalendarActivity{
			Title:     title,
			StartTime: start,
			EndTime:   end,
			Location:  item.Location,
			IsAllDay:  allDay,
		})
	}
	return activities, nil
}

func parseEventTime(dateTime, date string) (time.Time, bool, error) {
	if dateTime != "" {
		t, err := time.Parse(time.RFC3339, dateTime)
		return t, false, err
	}
	if date != "" {
		t, err := time.Parse("2006-01-02", date)
		return t, true, err
	}
	return time.Time{}, false, errors.New("event has no start time")
}
