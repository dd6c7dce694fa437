package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/prism-xos/prism-core/internal/media/domain"
	"github.com/prism-xos/prism-core/internal/media/models"
)

const modelColumns = `id, name, size, backend, version, file_path, download_status, sha256, supports_timestamps, created_at`

// ModelRepo reads the model catalog and tracks download status.
type ModelRepo struct {
	db *Manager
}

func NewModelRepo(db *Manager) *ModelRepo {
	return &ModelRepo{db: db}
}

func (r *ModelRepo) List(ctx context.Context) ([]models.ModelMetadata, error) {
	const q = `SELECT ` + modelColumns + ` FROM model_metadata ORDER BY size, id`

	return ReadValue(ctx, r.db, func(tx *sqlx.Tx) ([]models.ModelMetadata, error) {
		var out []models.ModelMetadata
		if err := tx.SelectContext(ctx, &out, q); err != nil {
			return nil, fmt.Errorf("models list: %w", err)
		}
		return out, nil
	})
}

func (r *ModelRepo) Find(ctx context.Context, id string) (*models.ModelMetadata, error) {
	return ReadValue(ctx, r.db, func(tx *sqlx.Tx) (*models.ModelMetadata, error) {
		return findModel(ctx, tx, id)
	})
}

func (r *ModelRepo) FindByStatus(ctx context.Context, status models.DownloadStatus) ([]models.ModelMetadata, error) {
	const q = `SELECT ` + modelColumns + ` FROM model_metadata WHERE download_status = ? ORDER BY size, id`

	return ReadValue(ctx, r.db, func(tx *sqlx.Tx) ([]models.ModelMetadata, error) {
		var out []models.ModelMetadata
		if err := tx.SelectContext(ctx, &out, q, status); err != nil {
			return nil, fmt.Errorf("models by status: %w", err)
		}
		return out, nil
	})
}

// Available lists ready models that have a file on disk.
func (r *ModelRepo) Available(ctx context.Context) ([]models.ModelMetadata, error) {
	ready, err := r.FindByStatus(ctx, models.ReadyStatus)
	if err != nil {
		return nil, err
	}
	out := ready[:0]
	for _, m := range ready {
		if m.IsAvailable() {
			out = append(out, m)
		}
	}
	return out, nil
}

// UpdateStatus moves a model to status if the transition is allowed.
func (r *ModelRepo) UpdateStatus(ctx context.Context, id string, status models.DownloadStatus) error {
	return r.db.Write(ctx, func(tx *sqlx.Tx) error {
		m, err := findModel(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := domain.ValidateTransition(m.DownloadStatus, status); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE model_metadata SET download_status = ? WHERE id = ?`, status, id)
		return wrapErr("model update status", err)
	})
}

// MarkReady records a finished download: the file path relative to the
// models directory and its checksum.
func (r *ModelRepo) MarkReady(ctx context.Context, id, filePath, sha256 string) error {
	if filePath == "" {
		return models.ErrInvalidArgument
	}
	return r.db.Write(ctx, func(tx *sqlx.Tx) error {
		m, err := findModel(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := domain.ValidateTransition(m.DownloadStatus, models.ReadyStatus); err != nil {
			return err
		}
		var sum any
		if sha256 != "" {
			sum = sha256
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE model_metadata
			SET download_status = ?, file_path = ?, sha256 = ?
			WHERE id = ?
		`, models.ReadyStatus, filePath, sum, id)
		return wrapErr("model mark ready", err)
	})
}

func findModel(ctx context.Context, tx *sqlx.Tx, id string) (*models.ModelMetadata, error) {
	const q = `SELECT ` + modelColumns + ` FROM model_metadata WHERE id = ?`

	var m models.ModelMetadata
	if err := tx.GetContext(ctx, &m, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("model find: %w", err)
	}
	return &m, nil
}
