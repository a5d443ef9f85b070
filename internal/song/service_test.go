package song

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite" // pure go sqlite driver
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunetools/tunetools-api/internal/album"
	"github.com/tunetools/tunetools-api/internal/metrics"
	"github.com/tunetools/tunetools-api/internal/models"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type serviceFixture struct {
	db      *gorm.DB
	albums  *album.Manager
	service *Service
	userID  uuid.UUID
	album   *models.Album
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Album{}, &models.Song{}))

	collector := metrics.NewCollector(prometheus.NewRegistry())
	albums := album.NewManager(db, &fakeGenerator{}, &fakeStorage{}, collector)
	service := NewService(db, albums)

	userID := uuid.New()
	weekAlbum, err := albums.Resolve(context.Background(), userID, time.Now())
	require.NoError(t, err)

	return &serviceFixture{db: db, albums: albums, service: service, userID: userID, album: weekAlbum}
}

func (f *serviceFixture) addSong(t *testing.T, createdAt time.Time, title string) *models.Song {
	t.Helper()
	s := &models.Song{
		ID:         uuid.New(),
		CreatedAt:  createdAt,
		UserID:     f.userID,
		AlbumID:    f.album.ID,
		Title:      title,
		Lyrics:     "[verse]\nx\n\n[chorus]\ny\n",
		GenreTags:  "indie pop female vocal upbeat",
		AudioURL:   "https://cdn.test/a.wav",
		ShareToken: uuid.NewString(),
	}
	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(s).Error; err != nil {
			return err
		}
		return f.albums.RecordSongAdded(tx, f.album.ID)
	}))
	return s
}

func TestListPaginatesNewestFirst(t *testing.T) {
	f := newServiceFixture(t)
	base := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		f.addSong(t, base.AddDate(0, 0, i), fmt.Sprintf("Day %d", i))
	}

	songs, total, err := f.service.List(context.Background(), f.userID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, songs, 2)
	assert.Equal(t, "Day 4", songs[0].Title)
	assert.Equal(t, "Day 3", songs[1].Title)

	songs, _, err = f.service.List(context.Background(), f.userID, 2, 4)
	require.NoError(t, err)
	require.Len(t, songs, 1)
	assert.Equal(t, "Day 0", songs[0].Title)
}

func TestListScopesToUser(t *testing.T) {
	f := newServiceFixture(t)
	f.addSong(t, time.Now(), "Mine")

	songs, total, err := f.service.List(context.Background(), uuid.New(), 20, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, songs)
}

func TestToday(t *testing.T) {
	f := newServiceFixture(t)
	now := time.Date(2026, 8, 26, 14, 0, 0, 0, time.UTC)
	f.service.SetClock(func() time.Time { return now })

	f.addSong(t, now.AddDate(0, 0, -1), "Yesterday")

	_, err := f.service.Today(context.Background(), f.userID)
	assert.ErrorIs(t, err, ErrSongNotFound)

	f.addSong(t, now.Add(-2*time.Hour), "This Morning")
	today, err := f.service.Today(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, "This Morning", today.Title)
}

func TestGetByShareTokenIsPublic(t *testing.T) {
	f := newServiceFixture(t)
	created := f.addSong(t, time.Now(), "Shared")

	found, err := f.service.GetByShareToken(context.Background(), created.ShareToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = f.service.GetByShareToken(context.Background(), "bogus-token")
	assert.ErrorIs(t, err, ErrSongNotFound)
}

func TestUpdateChangesMetadataOnly(t *testing.T) {
	f := newServiceFixture(t)
	created := f.addSong(t, time.Now(), "Original")

	updated, err := f.service.Update(context.Background(), f.userID, created.ID, "Renamed", "")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	var persisted models.Song
	require.NoError(t, f.db.First(&persisted, "id = ?", created.ID).Error)
	assert.Equal(t, "Renamed", persisted.Title)
	assert.Equal(t, created.Lyrics, persisted.Lyrics)

	// Someone else's song is invisible
	_, err = f.service.Update(context.Background(), uuid.New(), created.ID, "Stolen", "")
	assert.ErrorIs(t, err, ErrSongNotFound)
}

func TestDeleteDecrementsAlbumCounter(t *testing.T) {
	f := newServiceFixture(t)
	f.addSong(t, time.Now(), "Keep")
	second := f.addSong(t, time.Now(), "Drop")

	var before models.Album
	require.NoError(t, f.db.First(&before, "id = ?", f.album.ID).Error)
	require.Equal(t, 2, before.SongCount)

	require.NoError(t, f.service.Delete(context.Background(), f.userID, second.ID))

	var after models.Album
	require.NoError(t, f.db.First(&after, "id = ?", f.album.ID).Error)
	assert.Equal(t, 1, after.SongCount)

	_, err := f.service.Get(context.Background(), f.userID, second.ID)
	assert.ErrorIs(t, err, ErrSongNotFound)
}
