// Package repository declares the storage contracts the media services
// depend on. internal/storage/sqlite provides the implementations.
package repository

import (
	"context"

	"github.com/prism-xos/prism-core/internal/media/models"
)

type MediaRepository interface {
	Save(ctx context.Context, m models.MediaRecord) error
	Find(ctx context.Context, id string) (*models.MediaRecord, error)
	FindAll(ctx context.Context) ([]models.MediaRecord, error)
	FindRecent(ctx context.Context, limit int) ([]models.MediaRecord, error)
	Update(ctx context.Context, m models.MediaRecord) error
	UpdateProgress(ctx context.Context, id string, progress float64) error
	AdvanceProgress(ctx context.Context, id string, progress float64) error
	Delete(ctx context.Context, id string) error
}

// SegmentReader is the read side of the subtitle store.
type SegmentReader interface {
	FindInTimeRange(ctx context.Context, mediaID string, start, end float64) ([]models.Segment, error)
	FindAll(ctx context.Context, mediaID string) ([]models.Segment, error)
	Count(ctx context.Context, mediaID string) (int, error)
}

type SubtitleRepository interface {
	SegmentReader
	Save(ctx context.Context, s models.Segment) error
	SaveBatch(ctx context.Context, segments []models.Segment) error
	DeleteAll(ctx context.Context, mediaID string) (int64, error)
	DeleteInTimeRange(ctx context.Context, mediaID string, start, end float64) (int64, error)
	ReplaceInTimeRange(ctx context.Context, mediaID string, start, end float64, segments []models.Segment) error
	// CommitWindow replaces a window's segments and advances the media's
	// progress atomically.
	CommitWindow(ctx context.Context, mediaID string, window models.TimeRange, segments []models.Segment, progress float64) error
}
