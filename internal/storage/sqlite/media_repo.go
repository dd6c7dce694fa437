package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/prism-xos/prism-core/internal/media/models"
)

const DefaultRecentLimit = 10

const mediaColumns = `id, file_path, duration, recognition_progress, model_id, language, created_at, updated_at`

type MediaRepo struct {
	db    *Manager
	clock func() time.Time
}

func NewMediaRepo(db *Manager) *MediaRepo {
	return &MediaRepo{db: db, clock: time.Now}
}

// Save inserts m. An existing id yields a *models.ConstraintError.
func (r *MediaRepo) Save(ctx context.Context, m models.MediaRecord) error {
	if err := m.Validate(); err != nil {
		return err
	}

	const q = `
		INSERT INTO media_files (id, file_path, duration, recognition_progress, model_id, language, created_at, updated_at)
		VALUES (:id, :file_path, :duration, :recognition_progress, :model_id, :language, :created_at, :updated_at)
	`
	return r.db.Write(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, q, m)
		return wrapErr("media save", err)
	})
}

// Find returns models.ErrNotFound when no record has the id.
func (r *MediaRepo) Find(ctx context.Context, id string) (*models.MediaRecord, error) {
	const q = `SELECT ` + mediaColumns + ` FROM media_files WHERE id = ?`

	return ReadValue(ctx, r.db, func(tx *sqlx.Tx) (*models.MediaRecord, error) {
		var m models.MediaRecord
		if err := tx.GetContext(ctx, &m, q, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, models.ErrNotFound
			}
			return nil, fmt.Errorf("media find: %w", err)
		}
		return &m, nil
	})
}

func (r *MediaRepo) FindAll(ctx context.Context) ([]models.MediaRecord, error) {
	const q = `SELECT ` + mediaColumns + ` FROM media_files ORDER BY created_at, id`

	return ReadValue(ctx, r.db, func(tx *sqlx.Tx) ([]models.MediaRecord, error) {
		var out []models.MediaRecord
		if err := tx.SelectContext(ctx, &out, q); err != nil {
			return nil, fmt.Errorf("media find all: %w", err)
		}
		return out, nil
	})
}

// FindRecent returns up to limit records, most recently updated first.
// A non-positive limit means DefaultRecentLimit.
func (r *MediaRepo) FindRecent(ctx context.Context, limit int) ([]models.MediaRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	const q = `SELECT ` + mediaColumns + ` FROM media_files ORDER BY updated_at DESC, id LIMIT ?`

	return ReadValue(ctx, r.db, func(tx *sqlx.Tx) ([]models.MediaRecord, error) {
		var out []models.MediaRecord
		if err := tx.SelectContext(ctx, &out, q, limit); err != nil {
			return nil, fmt.Errorf("media find recent: %w", err)
		}
		return out, nil
	})
}

func (r *MediaRepo) Count(ctx context.Context) (int, error) {
	return ReadValue(ctx, r.db, func(tx *sqlx.Tx) (int, error) {
		var n int
		if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM media_files`); err != nil {
			return 0, fmt.Errorf("media count: %w", err)
		}
		return n, nil
	})
}

// Update replaces every column of the row with m.ID. A missing row yields
// models.ErrNotFound.
func (r *MediaRepo) Update(ctx context.Context, m models.MediaRecord) error {
	if err := m.Validate(); err != nil {
		return err
	}

	const q = `
		UPDATE media_files
		SET file_path = :file_path,
			duration = :duration,
			recognition_progress = :recognition_progress,
			model_id = :model_id,
			language = :language,
			created_at = :created_at,
			updated_at = :updated_at
		WHERE id = :id
	`
	return r.db.Write(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, q, m)
		if err != nil {
			return wrapErr("media update", err)
		}
		return requireAffected(res, "media update")
	})
}

// UpdateProgress sets recognition_progress, clamped into [0, 1], and
// bumps updated_at without touching other columns.
func (r *MediaRepo) UpdateProgress(ctx context.Context, id string, progress float64) error {
	const q = `
		UPDATE media_files
		SET recognition_progress = ?, updated_at = ?
		WHERE id = ?
	`
	progress = models.ClampProgress(progress)
	now := r.clock().Unix()

	return r.db.Write(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, q, progress, now, id)
		if err != nil {
			return wrapErr("media update progress", err)
		}
		return requireAffected(res, "media update progress")
	})
}

// AdvanceProgress raises recognition_progress to progress, clamped into
// [0, 1]. A lower value leaves the stored progress as is. The comparison
// happens inside the UPDATE, so concurrent callers cannot undo each other.
func (r *MediaRepo) AdvanceProgress(ctx context.Context, id string, progress float64) error {
	now := r.clock().Unix()
	return r.db.Write(ctx, func(tx *sqlx.Tx) error {
		return advanceProgress(ctx, tx, id, progress, now)
	})
}

func advanceProgress(ctx context.Context, tx *sqlx.Tx, id string, progress float64, now int64) error {
	const q = `
		UPDATE media_files
		SET recognition_progress = MAX(recognition_progress, ?), updated_at = ?
		WHERE id = ?
	`
	res, err := tx.ExecContext(ctx, q, models.ClampProgress(progress), now, id)
	if err != nil {
		return wrapErr("media advance progress", err)
	}
	return requireAffected(res, "media advance progress")
}

// Delete removes the record and, through ON DELETE CASCADE, its segments.
// Deleting a missing id is a no-op.
func (r *MediaRepo) Delete(ctx context.Context, id string) error {
	return r.db.Write(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM media_files WHERE id = ?`, id)
		return wrapErr("media delete", err)
	})
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
