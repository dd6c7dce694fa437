package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prism-xos/prism-core/internal/media/models"
	"github.com/prism-xos/prism-core/internal/media/repository"
	"github.com/prism-xos/prism-core/internal/transcribe"
)

type Service struct {
	media  repository.MediaRepository
	subs   repository.SubtitleRepository
	engine transcribe.Engine
	clock  func() time.Time
	idGen  func() uuid.UUID
	logger zerolog.Logger
}

func New(media repository.MediaRepository, subs repository.SubtitleRepository, engine transcribe.Engine, logger zerolog.Logger) *Service {
	return &Service{
		media:  media,
		subs:   subs,
		engine: engine,
		clock:  time.Now,
		idGen:  uuid.New,
		logger: logger.With().Str("component", "recognition").Logger(),
	}
}

// GetMedia passes through models.ErrNotFound untouched.
func (s *Service) GetMedia(ctx context.Context, id string) (*models.MediaRecord, error) {
	if id == "" {
		return nil, models.ErrInvalidArgument
	}
	return s.media.Find(ctx, id)
}

// ImportMedia registers a media file with no recognition progress.
func (s *Service) ImportMedia(ctx context.Context, filePath string, duration float64, modelID, language *string) (*models.MediaRecord, error) {
	if filePath == "" || !models.ValidDuration(duration) {
		return nil, models.ErrInvalidArgument
	}

	now := s.clock().Unix()
	m := models.MediaRecord{
		ID:        s.idGen().String(),
		FilePath:  filePath,
		Duration:  duration,
		ModelID:   modelID,
		Language:  language,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.media.Save(ctx, m); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecognizeWindow transcribes one window of a media file and stores the
// result in place of whatever the window held before. Segment times from
// the engine are relative to the window and are shifted to media time.
// Segments and progress are committed together and progress only moves
// forward, so windows may be recognized concurrently and in any order.
// A Service built without an engine fails with transcribe.ErrModelNotLoaded.
func (s *Service) RecognizeWindow(ctx context.Context, mediaID string, window models.TimeRange, audio []byte, opts transcribe.Options) ([]models.Segment, error) {
	if mediaID == "" || !window.Valid() || window.Duration() <= 0 {
		return nil, models.ErrInvalidArgument
	}
	if err := transcribe.ValidatePCM(audio); err != nil {
		return nil, err
	}
	if s.engine == nil {
		return nil, transcribe.ErrModelNotLoaded
	}

	m, err := s.media.Find(ctx, mediaID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	raw, err := s.engine.Transcribe(ctx, audio, opts.Normalize())
	elapsed := time.Since(started)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", transcribe.ErrCancelled, ctxErr)
		}
		return nil, fmt.Errorf("transcribe %s [%.3f, %.3f]: %w", mediaID, window.Start, window.End, err)
	}

	segments := s.placeSegments(mediaID, window, raw)

	progress := 1.0
	if m.Duration > 0 {
		progress = models.ClampProgress(window.End / m.Duration)
	}
	if err := s.subs.CommitWindow(ctx, mediaID, window, segments, progress); err != nil {
		return nil, err
	}

	// rtf is engine time over audio time, below 1 means faster than real time
	s.logger.Info().
		Str("media_id", mediaID).
		Float64("start", window.Start).
		Float64("end", window.End).
		Int("segments", len(segments)).
		Float64("progress", progress).
		Dur("elapsed", elapsed).
		Float64("rtf", elapsed.Seconds()/window.Duration()).
		Msg("window recognized")

	return segments, nil
}

// ResetRecognition drops every segment of a media file and rewinds its
// progress so it can be recognized again, possibly with another model.
func (s *Service) ResetRecognition(ctx context.Context, mediaID string) error {
	if mediaID == "" {
		return models.ErrInvalidArgument
	}
	if _, err := s.media.Find(ctx, mediaID); err != nil {
		return err
	}

	n, err := s.subs.DeleteAll(ctx, mediaID)
	if err != nil {
		return err
	}
	if err := s.media.UpdateProgress(ctx, mediaID, 0); err != nil {
		return err
	}

	s.logger.Info().Str("media_id", mediaID).Int64("deleted", n).Msg("recognition reset")
	return nil
}

// Subtitles returns the segments visible in [start, end).
func (s *Service) Subtitles(ctx context.Context, mediaID string, start, end float64) ([]models.Segment, error) {
	if mediaID == "" || !(models.TimeRange{Start: start, End: end}).Valid() {
		return nil, models.ErrInvalidArgument
	}
	return s.subs.FindInTimeRange(ctx, mediaID, start, end)
}

// placeSegments shifts engine output into media time, clips it to the
// window and stamps ownership. Blank or empty segments are dropped.
func (s *Service) placeSegments(mediaID string, window models.TimeRange, raw []models.Segment) []models.Segment {
	now := s.clock().Unix()
	out := make([]models.Segment, 0, len(raw))
	for _, r := range raw {
		text := strings.TrimSpace(r.Text)
		start := math.Max(window.Start+r.StartTime, window.Start)
		end := math.Min(window.Start+r.EndTime, window.End)
		if text == "" || !(start < end) {
			s.logger.Debug().
				Str("media_id", mediaID).
				Float64("start", start).
				Float64("end", end).
				Msg("skipping empty segment")
			continue
		}
		out = append(out, models.Segment{
			ID:         s.idGen().String(),
			MediaID:    mediaID,
			StartTime:  start,
			EndTime:    end,
			Text:       text,
			Confidence: r.Confidence,
			CreatedAt:  now,
		})
	}
	return out
}

// IsCancelled reports whether err came from a cancelled recognition.
func IsCancelled(err error) bool {
	return errors.Is(err, transcribe.ErrCancelled)
}
