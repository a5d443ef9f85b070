// Package song runs the daily generation pipeline: context aggregation,
// LLM spec building, album resolution, artwork, audio synthesis and the
// final persisted song.
package song

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tunetools/tunetools-api/internal/album"
	"github.com/tunetools/tunetools-api/internal/llm"
	"github.com/tunetools/tunetools-api/internal/logger"
	"github.com/tunetools/tunetools-api/internal/metrics"
	"github.com/tunetools/tunetools-api/internal/models"
	"github.com/tunetools/tunetools-api/internal/snapshot"
	"github.com/tunetools/tunetools-api/internal/storage"
	"github.com/tunetools/tunetools-api/internal/synth"
	"gorm.io/gorm"
)

// ErrSongExistsToday rejects a second generation for the same calendar day.
// The check is a best-effort precondition, not a lock.
var ErrSongExistsToday = errors.New("a song was already generated today")

// Pipeline stages reported in GenerationError
const (
	StageContext = "context"
	StageSpec    = "spec"
	StageAlbum   = "album"
	StageAudio   = "audio"
	StagePersist = "persist"
)

// GenerationError wraps a pipeline failure with the stage it happened in
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("song generation failed at stage %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ContextSource produces the day's context snapshot
type ContextSource interface {
	Aggregate(ctx context.Context, req snapshot.Request) models.ContextSnapshot
}

// SpecSource turns context into a validated generation spec
type SpecSource interface {
	Build(ctx context.Context, snap models.ContextSnapshot, prefs models.UserPreferencesData, overrides llm.Overrides) (*llm.GenerationSpec, string, error)
}

// Request parameterizes one daily generation. CustomCover, when set, becomes
// the week's album artwork if the album has none yet.
type Request struct {
	UserID      uuid.UUID
	Location    string
	Overrides   llm.Overrides
	CustomCover []byte
}

// Result is what the API hands back after a successful generation
type Result struct {
	Song                  *models.Song `json:"song"`
	AlbumName             string       `json:"album_name"`
	VinylDiskURL          string       `json:"vinyl_disk_url"`
	ImageGenerationFailed bool         `json:"image_generation_failed"`
}

// Orchestrator wires the pipeline stages together
type Orchestrator struct {
	db          *gorm.DB
	contexts    ContextSource
	specs       SpecSource
	albums      *album.Manager
	synthesizer synth.Synthesizer
	store       storage.Storage
	collector   metrics.Recorder

	now func() time.Time
}

func NewOrchestrator(
	db *gorm.DB,
	contexts ContextSource,
	specs SpecSource,
	albums *album.Manager,
	synthesizer synth.Synthesizer,
	store storage.Storage,
	collector metrics.Recorder,
) *Orchestrator {
	return &Orchestrator{
		db:          db,
		contexts:    contexts,
		specs:       specs,
		albums:      albums,
		synthesizer: synthesizer,
		store:       store,
		collector:   collector,
		now:         time.Now,
	}
}

// SetClock overrides the pipeline clock, for tests
func (o *Orchestrator) SetClock(now func() time.Time) { o.now = now }

// Generate runs the full daily pipeline. Artwork failure degrades to a
// flagged result; every other stage failure aborts with a GenerationError.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*Result, error) {
	started := o.now()

	exists, err := o.songExistsOn(ctx, req.UserID, started)
	if err != nil {
		return nil, o.fail(StagePersist, err)
	}
	if exists {
		return nil, ErrSongExistsToday
	}

	prefs := o.loadPreferences(ctx, req.UserID)

	snap := o.contexts.Aggregate(ctx, snapshot.Request{
		UserID:      req.UserID,
		Preferences: prefs,
		Location:    req.Location,
	})

	spec, providerName, err := o.specs.Build(ctx, snap, prefs, req.Overrides)
	if err != nil {
		return nil, o.fail(StageSpec, err)
	}
	logger.Info("Generation spec ready", logger.Fields{
		"user_id":  req.UserID.String(),
		"provider": providerName,
		"title":    spec.Title,
	})

	weekAlbum, err := o.albums.Resolve(ctx, req.UserID, started)
	if err != nil {
		return nil, o.fail(StageAlbum, err)
	}

	vinylURL, imageFailed := o.ensureArtwork(ctx, weekAlbum, spec, prefs, req.CustomCover)

	lyrics := llm.FormatLyrics(spec.Lyrics)
	audio, err := o.synthesizer.Synthesize(ctx, spec.GenreTags, lyrics)
	if err != nil {
		return nil, o.fail(StageAudio, err)
	}

	audioKey := fmt.Sprintf("%s/%s_%s.wav", req.UserID, started.Format("2006-01-02"), slugify(spec.Title))
	audioURL, err := o.store.Upload(ctx, audioKey, "audio/wav", audio.Audio)
	if err != nil {
		return nil, o.fail(StageAudio, err)
	}

	shareToken, err := o.newShareToken(ctx)
	if err != nil {
		return nil, o.fail(StagePersist, err)
	}

	// CreatedAt comes from the pipeline clock so the duplicate-day window
	// and the stored row agree
	newSong := &models.Song{
		ID:                    uuid.New(),
		CreatedAt:             started,
		UserID:                req.UserID,
		AlbumID:               weekAlbum.ID,
		Title:                 spec.Title,
		Description:           spec.Description,
		Lyrics:                lyrics,
		GenreTags:             spec.GenreTags,
		AudioURL:              audioURL,
		ShareToken:            shareToken,
		WeatherData:           snap.Weather,
		NewsData:              snap.News,
		CalendarData:          snap.Calendar,
		GenerationTimeSeconds: audio.GenerationTime.Seconds(),
		LLMProvider:           providerName,
	}

	err = o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(newSong).Error; err != nil {
			return err
		}
		return o.albums.RecordSongAdded(tx, weekAlbum.ID)
	})
	if err != nil {
		return nil, o.fail(StagePersist, fmt.Errorf("failed to persist song: %w", err))
	}

	elapsed := o.now().Sub(started)
	o.collector.RecordGenerationSuccess(providerName)
	o.collector.RecordGenerationDuration(elapsed)
	logger.Info("Song generated", logger.Fields{
		"song_id":  newSong.ID.String(),
		"user_id":  req.UserID.String(),
		"album_id": weekAlbum.ID.String(),
		"elapsed":  elapsed.Round(time.Second).String(),
	})

	return &Result{
		Song:                  newSong,
		AlbumName:             weekAlbum.Name,
		VinylDiskURL:          vinylURL,
		ImageGenerationFailed: imageFailed,
	}, nil
}

func (o *Orchestrator) fail(stage string, err error) error {
	o.collector.RecordGenerationFailure(stage)
	logger.Error("Song generation failed", err, logger.Fields{"stage": stage})
	return &GenerationError{Stage: stage, Err: err}
}

// ensureArtwork is the one soft stage: a week without artwork still gets
// its song, just with the failure flagged for the client.
func (o *Orchestrator) ensureArtwork(ctx context.Context, weekAlbum *models.Album, spec *llm.GenerationSpec, prefs models.UserPreferencesData, customCover []byte) (string, bool) {
	vinylURL, err := o.albums.EnsureArtwork(ctx, weekAlbum, album.ArtworkContext{
		Themes:      []string{spec.Title},
		Genres:      prefs.MusicGenres,
		CustomCover: customCover,
	})
	if err != nil {
		logger.Warn("Album artwork generation failed, continuing without", logger.Fields{
			"album_id": weekAlbum.ID.String(),
			"error":    err.Error(),
		})
		return "", true
	}
	return vinylURL, false
}

func (o *Orchestrator) songExistsOn(ctx context.Context, userID uuid.UUID, day time.Time) (bool, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var count int64
	err := o.db.WithContext(ctx).Model(&models.Song{}).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, dayStart, dayEnd).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check for today's song: %w", err)
	}
	return count > 0, nil
}

func (o *Orchestrator) loadPreferences(ctx context.Context, userID uuid.UUID) models.UserPreferencesData {
	var prefs models.UserPreferences
	err := o.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Failed to load preferences, using defaults", logger.Fields{
				"user_id": userID.String(),
				"error":   err.Error(),
			})
		}
		return models.DefaultPreferences()
	}
	return prefs.Data()
}

// newShareToken generates a collision-checked permanent share token
func (o *Orchestrator) newShareToken(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		token := strings.ReplaceAll(uuid.NewString(), "-", "")
		var count int64
		err := o.db.WithContext(ctx).Model(&models.Song{}).
			Where("share_token = ?", token).
			Count(&count).Error
		if err != nil {
			return "", fmt.Errorf("failed to check share token: %w", err)
		}
		if count == 0 {
			return token, nil
		}
	}
	return "", errors.New("could not generate a unique share token")
}

func slugify(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "song"
	}
	if len(slug) > 40 {
		slug = slug[:40]
	}
	return slug
}
