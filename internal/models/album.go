package models

import (
	"time"

	"github.com/google/uuid"
)

// CompleteSongCount is the number of songs that marks a weekly album complete.
// It is advisory: generation past seven songs is not blocked, the flag just
// stops a completed week from looking unfinished.
const CompleteSongCount = 7

// Album groups up to a week of songs behind one piece of vinyl-disk artwork.
// Identity is (user_id, week_start) where week_start is the Monday of the week.
type Album struct {
	ID           uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	UserID       uuid.UUID `gorm:"type:uuid;index:idx_albums_user_week,unique;not null" json:"user_id"`
	Name         string    `gorm:"not null" json:"name"`
	WeekStart    time.Time `gorm:"index:idx_albums_user_week,unique;not null" json:"week_start"`
	WeekEnd      time.Time `gorm:"not null" json:"week_end"`
	VinylDiskURL string    `json:"vinyl_disk_url"`
	SongCount    int       `gorm:"default:0;not null" json:"song_count"`
	IsComplete   bool      `gorm:"default:false;not null" json:"is_complete"`
}

// HasArtwork reports whether the weekly vinyl disk has been generated already
func (a *Album) HasArtwork() bool {
	return a.VinylDiskURL != ""
}
