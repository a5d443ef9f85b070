package song

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tunetools/tunetools-api/internal/album"
	"github.com/tunetools/tunetools-api/internal/models"
	"gorm.io/gorm"
)

// ErrSongNotFound is returned when a song id or share token resolves to
// nothing the caller can see
var ErrSongNotFound = errors.New("song not found")

// Service covers the read and management surface for persisted songs
type Service struct {
	db     *gorm.DB
	albums *album.Manager
	now    func() time.Time
}

func NewService(db *gorm.DB, albums *album.Manager) *Service {
	return &Service{db: db, albums: albums, now: time.Now}
}

// SetClock overrides the clock, for tests
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// List returns the user's songs newest first, with limit/offset paging
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Song, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	q := s.db.WithContext(ctx).Model(&models.Song{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count songs: %w", err)
	}

	var songs []models.Song
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&songs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list songs: %w", err)
	}
	return songs, total, nil
}

// Today returns the song generated today, or ErrSongNotFound if none exists yet
func (s *Service) Today(ctx context.Context, userID uuid.UUID) (*models.Song, error) {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var today models.Song
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, dayStart).
		Order("created_at DESC").
		First(&today).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSongNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load today's song: %w", err)
	}
	return &today, nil
}

// Get fetches one song scoped to its owner
func (s *Service) Get(ctx context.Context, userID, songID uuid.UUID) (*models.Song, error) {
	var found models.Song
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", songID, userID).
		First(&found).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSongNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load song: %w", err)
	}
	return &found, nil
}

// GetByShareToken resolves a song for the public share page. No auth, the
// token is the capability.
func (s *Service) GetByShareToken(ctx context.Context, token string) (*models.Song, error) {
	var shared models.Song
	err := s.db.WithContext(ctx).
		Where("share_token = ?", token).
		First(&shared).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSongNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load shared song: %w", err)
	}
	return &shared, nil
}

// Update changes the song's display metadata. Empty fields are left alone.
func (s *Service) Update(ctx context.Context, userID, songID uuid.UUID, title, description string) (*models.Song, error) {
	found, err := s.Get(ctx, userID, songID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if title != "" {
		updates["title"] = title
	}
	if description != "" {
		updates["description"] = description
	}
	if len(updates) == 0 {
		return found, nil
	}

	if err := s.db.WithContext(ctx).Model(found).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update song: %w", err)
	}
	return found, nil
}

// Delete removes the song and decrements its album's counter in one
// transaction
func (s *Service) Delete(ctx context.Context, userID, songID uuid.UUID) error {
	found, err := s.Get(ctx, userID, songID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(found).Error; err != nil {
			return fmt.Errorf("failed to delete song: %w", err)
		}
		return s.albums.RecordSongRemoved(tx, found.AlbumID)
	})
}
