package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/prism-xos/prism-core/internal/media/models"
)

// Append new migrations at the end. Never edit or reorder shipped ones.
var migrations = []Migration{
	{Name: "v1_initial", Up: migrateInitial},
}

var initialSchema = []string{
	`CREATE TABLE media_files (
		id TEXT PRIMARY KEY,
		file_path TEXT NOT NULL,
		duration REAL NOT NULL,
		recognition_progress REAL NOT NULL DEFAULT 0.0,
		model_id TEXT,
		language TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE INDEX media_files_on_file_path ON media_files(file_path)`,

	`CREATE TABLE subtitle_segments (
		id TEXT PRIMARY KEY,
		media_id TEXT NOT NULL REFERENCES media_files(id) ON DELETE CASCADE,
		start_time REAL NOT NULL,
		end_time REAL NOT NULL,
		text TEXT NOT NULL,
		confidence REAL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX idx_segments_time_range ON subtitle_segments(media_id, start_time, end_time)`,

	`CREATE TABLE model_metadata (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		size INTEGER NOT NULL,
		backend TEXT NOT NULL,
		version TEXT,
		file_path TEXT,
		download_status TEXT NOT NULL DEFAULT 'pending',
		sha256 TEXT,
		supports_timestamps BOOLEAN NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX model_metadata_on_backend ON model_metadata(backend)`,
	`CREATE INDEX model_metadata_on_download_status ON model_metadata(download_status)`,
}

func seedModels(now time.Time) []models.ModelMetadata {
	v1 := "v1"
	return []models.ModelMetadata{
		{
			ID:                 "whisper-base",
			Name:               "Whisper Base",
			Size:               145_000_000,
			Backend:            models.WhisperCpp,
			Version:            &v1,
			DownloadStatus:     models.PendingStatus,
			SupportsTimestamps: true,
			CreatedAt:          now.Unix(),
		},
		{
			ID:                 "whisper-small",
			Name:               "Whisper Small",
			Size:               466_000_000,
			Backend:            models.WhisperCpp,
			Version:            &v1,
			DownloadStatus:     models.PendingStatus,
			SupportsTimestamps: true,
			CreatedAt:          now.Unix(),
		},
	}
}

func migrateInitial(ctx context.Context, tx *sqlx.Tx, now time.Time) error {
	for i, stmt := range initialSchema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}

	const insertModel = `
		INSERT INTO model_metadata
			(id, name, size, backend, version, file_path, download_status, sha256, supports_timestamps, created_at)
		VALUES
			(:id, :name, :size, :backend, :version, :file_path, :download_status, :sha256, :supports_timestamps, :created_at)
	`
	for _, m := range seedModels(now) {
		if _, err := tx.NamedExecContext(ctx, insertModel, m); err != nil {
			return fmt.Errorf("seed model %s: %w", m.ID, err)
		}
	}
	return nil
}
