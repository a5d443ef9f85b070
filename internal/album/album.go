// Package album manages the weekly albums that daily songs land in.
// Each user gets one album per Monday-to-Sunday window, with vinyl-disk
// artwork generated once and reused for every song of that week.
package album

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tunetools/tunetools-api/internal/image"
	"github.com/tunetools/tunetools-api/internal/logger"
	"github.com/tunetools/tunetools-api/internal/metrics"
	"github.com/tunetools/tunetools-api/internal/models"
	"github.com/tunetools/tunetools-api/internal/storage"
	"github.com/tunetools/tunetools-api/internal/vinyl"
	"gorm.io/gorm"
)

// ErrAlbumNotFound is returned when an album id does not belong to the user
var ErrAlbumNotFound = errors.New("album not found")

// ArtworkContext carries the hints the artwork prompt is built from. A
// caller-supplied CustomCover replaces provider generation entirely.
type ArtworkContext struct {
	Themes      []string
	Genres      []string
	CustomCover []byte
}

// Manager resolves weekly albums and owns their artwork lifecycle
type Manager struct {
	db        *gorm.DB
	generator image.Generator
	store     storage.Storage
	collector metrics.Recorder
}

func NewManager(db *gorm.DB, generator image.Generator, store storage.Storage, collector metrics.Recorder) *Manager {
	return &Manager{db: db, generator: generator, store: store, collector: collector}
}

// WeekBoundaries returns the Monday 00:00:00 and Sunday 23:59:59 of the week
// containing date, in the date's location.
func WeekBoundaries(date time.Time) (time.Time, time.Time) {
	daysSinceMonday := (int(date.Weekday()) + 6) % 7
	monday := date.AddDate(0, 0, -daysSinceMonday)
	weekStart := time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, date.Location())
	weekEnd := weekStart.AddDate(0, 0, 6).Add(24*time.Hour - time.Second)
	return weekStart, weekEnd
}

// Resolve finds the user's album for the week containing date, creating it
// when absent. A concurrent create racing on the (user_id, week_start) unique
// index falls back to re-reading the winner's row.
func (m *Manager) Resolve(ctx context.Context, userID uuid.UUID, date time.Time) (*models.Album, error) {
	weekStart, weekEnd := WeekBoundaries(date)

	var album models.Album
	err := m.db.WithContext(ctx).
		Where("user_id = ? AND week_start = ?", userID, weekStart).
		First(&album).Error
	if err == nil {
		return &album, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up album: %w", err)
	}

	album = models.Album{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      fmt.Sprintf("Week of %s", weekStart.Format("January 02, 2006")),
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
	}
	if err := m.db.WithContext(ctx).Create(&album).Error; err != nil {
		// Lost the race to another generation for the same week
		retryErr := m.db.WithContext(ctx).
			Where("user_id = ? AND week_start = ?", userID, weekStart).
			First(&album).Error
		if retryErr != nil {
			return nil, fmt.Errorf("failed to create album: %w", err)
		}
		return &album, nil
	}

	logger.Info("Created weekly album", logger.Fields{
		"album_id":   album.ID.String(),
		"user_id":    userID.String(),
		"week_start": weekStart.Format("2006-01-02"),
	})
	return &album, nil
}

// EnsureArtwork makes sure the album has its vinyl disk. Existing artwork is
// reused untouched; a custom cover beats provider generation; otherwise one
// image is generated. Either way the vinyl transform is applied, uploaded and
// persisted. Returns the vinyl URL.
func (m *Manager) EnsureArtwork(ctx context.Context, album *models.Album, artCtx ArtworkContext) (string, error) {
	if album.HasArtwork() {
		return album.VinylDiskURL, nil
	}

	if len(artCtx.CustomCover) > 0 {
		logger.Info("Using custom cover for album artwork", logger.Fields{
			"album_id": album.ID.String(),
		})
		return m.applyCover(ctx, album, artCtx.CustomCover)
	}

	prompt := image.ArtworkPrompt(
		album.WeekStart.Format("2006-01-02"),
		album.WeekEnd.Format("2006-01-02"),
		artCtx.Themes,
		artCtx.Genres,
	)

	artwork, providerName, err := m.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate album artwork: %w", err)
	}
	logger.Info("Generated album artwork", logger.Fields{
		"album_id": album.ID.String(),
		"provider": providerName,
	})
	m.collector.RecordArtworkGenerated(providerName)

	return m.applyCover(ctx, album, artwork)
}

// ReplaceCover installs user-supplied artwork, overwriting whatever the album
// currently has. The vinyl transform still applies so every cover stays a disk.
func (m *Manager) ReplaceCover(ctx context.Context, userID, albumID uuid.UUID, artwork []byte) (*models.Album, error) {
	album, err := m.Get(ctx, userID, albumID)
	if err != nil {
		return nil, err
	}
	if _, err := m.applyCover(ctx, album, artwork); err != nil {
		return nil, err
	}
	return album, nil
}

func (m *Manager) applyCover(ctx context.Context, album *models.Album, artwork []byte) (string, error) {
	disk, err := vinyl.Transform(artwork)
	if err != nil {
		return "", fmt.Errorf("failed to transform artwork: %w", err)
	}

	key := fmt.Sprintf("%s/%s_vinyl.png", album.UserID, album.WeekStart.Format("2006-01-02"))
	url, err := m.store.Upload(ctx, key, "image/png", disk)
	if err != nil {
		return "", fmt.Errorf("failed to upload vinyl disk: %w", err)
	}

	if err := m.db.WithContext(ctx).Model(album).Update("vinyl_disk_url", url).Error; err != nil {
		return "", fmt.Errorf("failed to persist vinyl disk url: %w", err)
	}
	album.VinylDiskURL = url
	return url, nil
}

// RecordSongAdded bumps the album's song counter atomically inside tx and
// flips the completeness flag once the week holds seven songs.
func (m *Manager) RecordSongAdded(tx *gorm.DB, albumID uuid.UUID) error {
	return m.adjustSongCount(tx, albumID, 1)
}

// RecordSongRemoved decrements the counter, clamped at zero
func (m *Manager) RecordSongRemoved(tx *gorm.DB, albumID uuid.UUID) error {
	return m.adjustSongCount(tx, albumID, -1)
}

func (m *Manager) adjustSongCount(tx *gorm.DB, albumID uuid.UUID, delta int) error {
	expr := gorm.Expr("song_count + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN song_count + ? < 0 THEN 0 ELSE song_count + ? END", delta, delta)
	}
	err := tx.Model(&models.Album{}).
		Where("id = ?", albumID).
		Updates(map[string]interface{}{
			"song_count":  expr,
			"is_complete": gorm.Expr("song_count + ? >= ?", delta, models.CompleteSongCount),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update album song count: %w", err)
	}
	return nil
}

// Get fetches one album scoped to its owner
func (m *Manager) Get(ctx context.Context, userID, albumID uuid.UUID) (*models.Album, error) {
	var album models.Album
	err := m.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", albumID, userID).
		First(&album).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAlbumNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load album: %w", err)
	}
	return &album, nil
}

// List returns the user's albums, newest week first
func (m *Manager) List(ctx context.Context, userID uuid.UUID) ([]models.Album, error) {
	var albums []models.Album
	err := m.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("week_start DESC").
		Find(&albums).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	return albums, nil
}

// Songs returns the album's songs in generation order
func (m *Manager) Songs(ctx context.Context, userID, albumID uuid.UUID) ([]models.Song, error) {
	if _, err := m.Get(ctx, userID, albumID); err != nil {
		return nil, err
	}
	var songs []models.Song
	err := m.db.WithContext(ctx).
		Where("album_id = ?", albumID).
		Order("created_at ASC").
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list album songs: %w", err)
	}
	return songs, nil
}

// Rename updates the album's display name
func (m *Manager) Rename(ctx context.Context, userID, albumID uuid.UUID, name string) (*models.Album, error) {
	album, err := m.Get(ctx, userID, albumID)
	if err != nil {
		return nil, err
	}
	if err := m.db.WithContext(ctx).Model(album).Update("name", name).Error; err != nil {
		return nil, fmt.Errorf("failed to rename album: %w", err)
	}
	album.Name = name
	return album, nil
}

// Delete removes the album and, via the FK cascade, its songs
func (m *Manager) Delete(ctx context.Context, userID, albumID uuid.UUID) error {
	album, err := m.Get(ctx, userID, albumID)
	if err != nil {
		return err
	}
	// sqlite test databases do not enforce the cascade, so delete songs first
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("album_id = ?", albumID).Delete(&models.Song{}).Error; err != nil {
			return fmt.Errorf("failed to delete album songs: %w", err)
		}
		if err := tx.Delete(album).Error; err != nil {
			return fmt.Errorf("failed to delete album: %w", err)
		}
		return nil
	})
}
