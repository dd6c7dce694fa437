package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/prism-xos/prism-core/internal/media/models"
)

const segmentColumns = `id, media_id, start_time, end_time, text, confidence, created_at`

const insertSegment = `
	INSERT INTO subtitle_segments (id, media_id, start_time, end_time, text, confidence, created_at)
	VALUES (:id, :media_id, :start_time, :end_time, :text, :confidence, :created_at)
`

type SubtitleRepo struct {
	db    *Manager
	clock func() time.Time
}

func NewSubtitleRepo(db *Manager) *SubtitleRepo {
	return &SubtitleRepo{db: db, clock: time.Now}
}

func (r *SubtitleRepo) Save(ctx context.Context, s models.Segment) error {
	return r.SaveBatch(ctx, []models.Segment{s})
}

// SaveBatch inserts all segments in one transaction. One invalid or
// conflicting segment aborts the whole batch.
func (r *SubtitleRepo) SaveBatch(ctx context.Context, segments []models.Segment) error {
	if len(segments) == 0 {
		return nil
	}
	if err := validateSegments(segments); err != nil {
		return err
	}

	return r.db.Write(ctx, func(tx *sqlx.Tx) error {
		return insertSegments(ctx, tx, segments)
	})
}

// FindInTimeRange returns segments overlapping [start, end), ordered by
// start time. A segment ending exactly at start or beginning exactly at
// end is not included.
func (r *SubtitleRepo) FindInTimeRange(ctx context.Context, mediaID string, start, end float64) ([]models.Segment, error) {
	const q = `
		SELECT ` + segmentColumns + `
		FROM subtitle_segments
		WHERE media_id = ? AND start_time < ? AND end_time > ?
		ORDER BY start_time ASC, id
	`
	return ReadValue(ctx, r.db, func(tx *sqlx.Tx) ([]models.Segment, error) {
		var out []models.Segment
		if err := tx.SelectContext(ctx, &out, q, mediaID, end, start); err != nil {
			return nil, fmt.Errorf("segments in range: %w", err)
		}
		return out, nil
	})
}

func (r *SubtitleRepo) FindAll(ctx context.Context, mediaID string) ([]models.Segment, error) {
	const q = `
		SELECT ` + segmentColumns + `
		FROM subtitle_segments
		WHERE media_id = ?
		ORDER BY start_time ASC, id
	`
	return ReadValue(ctx, r.db, func(tx *sqlx.Tx) ([]models.Segment, error) {
		var out []models.Segment
		if err := tx.SelectContext(ctx, &out, q, mediaID); err != nil {
			return nil, fmt.Errorf("segments find all: %w", err)
		}
		return out, nil
	})
}

func (r *SubtitleRepo) Count(ctx context.Context, mediaID string) (int, error) {
	return ReadValue(ctx, r.db, func(tx *sqlx.Tx) (int, error) {
		var n int
		if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM subtitle_segments WHERE media_id = ?`, mediaID); err != nil {
			return 0, fmt.Errorf("segments count: %w", err)
		}
		return n, nil
	})
}

// DeleteAll removes every segment of mediaID and reports how many went.
func (r *SubtitleRepo) DeleteAll(ctx context.Context, mediaID string) (int64, error) {
	return WriteValue(ctx, r.db, func(tx *sqlx.Tx) (int64, error) {
		res, err := tx.ExecContext(ctx, `DELETE FROM subtitle_segments WHERE media_id = ?`, mediaID)
		if err != nil {
			return 0, wrapErr("segments delete all", err)
		}
		return res.RowsAffected()
	})
}

// DeleteInTimeRange removes only segments fully inside [start, end].
// Segments straddling either boundary are kept.
func (r *SubtitleRepo) DeleteInTimeRange(ctx context.Context, mediaID string, start, end float64) (int64, error) {
	return WriteValue(ctx, r.db, func(tx *sqlx.Tx) (int64, error) {
		return deleteContained(ctx, tx, mediaID, start, end)
	})
}

// ReplaceInTimeRange deletes the segments contained in [start, end] and
// inserts segments in the same transaction.
func (r *SubtitleRepo) ReplaceInTimeRange(ctx context.Context, mediaID string, start, end float64, segments []models.Segment) error {
	if err := validateSegments(segments); err != nil {
		return err
	}

	return r.db.Write(ctx, func(tx *sqlx.Tx) error {
		if _, err := deleteContained(ctx, tx, mediaID, start, end); err != nil {
			return err
		}
		return insertSegments(ctx, tx, segments)
	})
}

// CommitWindow stores the result of recognizing one window: segments
// contained in window are replaced by segments and the owning media's
// progress is advanced, all in one transaction. Progress never moves
// backwards. A missing media record yields models.ErrNotFound and nothing
// is written.
func (r *SubtitleRepo) CommitWindow(ctx context.Context, mediaID string, window models.TimeRange, segments []models.Segment, progress float64) error {
	if mediaID == "" || !window.Valid() {
		return models.ErrInvalidArgument
	}
	if err := validateSegments(segments); err != nil {
		return err
	}
	now := r.clock().Unix()

	return r.db.Write(ctx, func(tx *sqlx.Tx) error {
		if _, err := deleteContained(ctx, tx, mediaID, window.Start, window.End); err != nil {
			return err
		}
		if err := insertSegments(ctx, tx, segments); err != nil {
			return err
		}
		return advanceProgress(ctx, tx, mediaID, progress, now)
	})
}

func deleteContained(ctx context.Context, tx *sqlx.Tx, mediaID string, start, end float64) (int64, error) {
	const q = `
		DELETE FROM subtitle_segments
		WHERE media_id = ? AND start_time >= ? AND end_time <= ?
	`
	res, err := tx.ExecContext(ctx, q, mediaID, start, end)
	if err != nil {
		return 0, wrapErr("segments delete in range", err)
	}
	return res.RowsAffected()
}

func insertSegments(ctx context.Context, tx *sqlx.Tx, segments []models.Segment) error {
	if len(segments) == 0 {
		return nil
	}
	stmt, err := tx.PrepareNamedContext(ctx, insertSegment)
	if err != nil {
		return fmt.Errorf("prepare segment insert: %w", err)
	}
	defer stmt.Close()

	for i, s := range segments {
		if _, err := stmt.ExecContext(ctx, s); err != nil {
			return wrapErr(fmt.Sprintf("segment %d (%s)", i, s.ID), err)
		}
	}
	return nil
}

func validateSegments(segments []models.Segment) error {
	for i, s := range segments {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
	}
	return nil
}
