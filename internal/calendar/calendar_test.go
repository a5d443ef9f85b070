package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/glebarez/sqlite" // pure go sqlite driver
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunetools/tunetools-api/internal/models"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.CalendarIntegration{}))
	return db
}

func storeIntegration(t *testing.T, db *gorm.DB, userID uuid.UUID, accessToken, refreshToken string, expiresAt *time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.CalendarIntegration{
		ID:             uuid.New(),
		UserID:         userID,
		Provider:       "google",
		AccessToken:    accessToken,
		RefreshToken:   refreshToken,
		TokenExpiresAt: expiresAt,
	}).Error)
}

func eventsPayload(items ...map[string]any) []byte {
	body, _ := json.Marshal(map[string]any{"items": items})
	return body
}

func TestAuthURLCarriesUserIDAsState(t *testing.T) {
	svc := NewService(testDB(t), "client-id", "client-secret", "https://app.test/callback")
	userID := uuid.New()

	raw := svc.AuthURL(userID)
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	q := parsed.Query()
	assert.Equal(t, userID.String(), q.Get("state"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
}

func TestActivitiesNotConnected(t *testing.T) {
	svc := NewService(testDB(t), "id", "secret", "https://app.test/callback")

	_, err := svc.Activities(context.Background(), uuid.New(), 2, 1)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestActivitiesGroupsEventsByDay(t *testing.T) {
	var gotAuth string
	events := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "true", r.URL.Query().Get("singleEvents"))
		w.Write(eventsPayload(
			map[string]any{
				"summary":  "Standup",
				"location": "Room 4",
				"start":    map[string]string{"dateTime": "2026-08-28T09:00:00Z"},
				"end":      map[string]string{"dateTime": "2026-08-28T09:15:00Z"},
			},
			map[string]any{
				"summary": "Concert",
				"start":   map[string]string{"dateTime": "2026-08-28T20:00:00Z"},
			},
			map[string]any{
				"start": map[string]string{"date": "2026-08-29"},
				"end":   map[string]string{"date": "2026-08-30"},
			},
		))
	}))
	defer events.Close()

	db := testDB(t)
	userID := uuid.New()
	storeIntegration(t, db, userID, "valid-token", "", nil)

	svc := NewService(db, "id", "secret", "https://app.test/callback")
	svc.SetEndpoints(events.URL, "")

	activities, err := svc.Activities(context.Background(), userID, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, "Bearer valid-token", gotAuth)

	require.Len(t, activities["2026-08-28"], 2)
	assert.Equal(t, "Standup", activities["2026-08-28"][0].Title)
	assert.Equal(t, "Room 4", activities["2026-08-28"][0].Location)
	require.NotNil(t, activities["2026-08-28"][0].EndTime)
	assert.Nil(t, activities["2026-08-28"][1].EndTime)

	// All-day events with no summary still show up, under a placeholder title
	require.Len(t, activities["2026-08-29"], 1)
	assert.Equal(t, "Untitled Event", activities["2026-08-29"][0].Title)
	assert.True(t, activities["2026-08-29"][0].IsAllDay)
}

func TestActivitiesRefreshesExpiredToken(t *testing.T) {
	refreshCalls := 0
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "stored-refresh", r.Form.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"fresh-token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	events := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer fresh-token", r.Header.Get("Authorization"))
		w.Write(eventsPayload())
	}))
	defer events.Close()

	db := testDB(t)
	userID := uuid.New()
	expired := time.Now().Add(-time.Hour)
	storeIntegration(t, db, userID, "stale-token", "stored-refresh", &expired)

	svc := NewService(db, "id", "secret", "https://app.test/callback")
	svc.SetEndpoints(events.URL, tokenServer.URL)

	_, err := svc.Activities(context.Background(), userID, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, refreshCalls)

	// The refreshed token is persisted for the next snapshot
	var integration models.CalendarIntegration
	require.NoError(t, db.First(&integration, "user_id = ?", userID).Error)
	assert.Equal(t, "fresh-token", integration.AccessToken)
	assert.Equal(t, "stored-refresh", integration.RefreshToken)
	require.NotNil(t, integration.TokenExpiresAt)
	assert.True(t, integration.TokenExpiresAt.After(time.Now()))
}

func TestActivitiesRefreshFailure(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer tokenServer.Close()

	db := testDB(t)
	userID := uuid.New()
	expired := time.Now().Add(-time.Hour)
	storeIntegration(t, db, userID, "stale-token", "stored-refresh", &expired)

	svc := NewService(db, "id", "secret", "https://app.test/callback")
	svc.SetEndpoints("http://unused.invalid", tokenServer.URL)

	_, err := svc.Activities(context.Background(), userID, 2, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token refresh failed")
}

func TestActivitiesExpiredWithoutRefreshToken(t *testing.T) {
	db := testDB(t)
	userID := uuid.New()
	expired := time.Now().Add(-time.Hour)
	storeIntegration(t, db, userID, "stale-token", "", &expired)

	svc := NewService(db, "id", "secret", "https://app.test/callback")

	_, err := svc.Activities(context.Background(), userID, 2, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no refresh token")
}

func TestConnectedAndRevoke(t *testing.T) {
	db := testDB(t)
	userID := uuid.New()
	svc := NewService(db, "id", "secret", "https://app.test/callback")

	assert.False(t, svc.Connected(userID))

	storeIntegration(t, db, userID, "token", "refresh", nil)
	assert.True(t, svc.Connected(userID))

	require.NoError(t, svc.Revoke(userID))
	assert.False(t, svc.Connected(userID))
}

func TestStoreTokenUpsert(t *testing.T) {
	db := testDB(t)
	userID := uuid.New()
	svc := NewService(db, "id", "secret", "https://app.test/callback")

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"first-token","refresh_token":"first-refresh","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenServer.Close()
	svc.SetEndpoints("", tokenServer.URL)

	require.NoError(t, svc.HandleCallback(context.Background(), userID, "auth-code"))

	var integration models.CalendarIntegration
	require.NoError(t, db.First(&integration, "user_id = ?", userID).Error)
	assert.Equal(t, "first-token", integration.AccessToken)
	assert.Equal(t, "first-refresh", integration.RefreshToken)

	// A second callback without a refresh token keeps the stored one
	tokenServer2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"second-token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenServer2.Close()
	svc.SetEndpoints("", tokenServer2.URL)

	require.NoError(t, svc.HandleCallback(context.Background(), userID, "auth-code"))

	var count int64
	db.Model(&models.CalendarIntegration{}).Where("user_id = ?", userID).Count(&count)
	assert.Equal(t, int64(1), count)

	require.NoError(t, db.First(&integration, "user_id = ?", userID).Error)
	assert.Equal(t, "second-token", integration.AccessToken)
	assert.Equal(t, "first-refresh", integration.RefreshToken)
}
