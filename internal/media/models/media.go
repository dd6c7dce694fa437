package models

import (
	"math"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// MediaRecord is one imported media file. Timestamps are Unix seconds.
type MediaRecord struct {
	ID                  string  `db:"id"`
	FilePath            string  `db:"file_path"`
	Duration            float64 `db:"duration"`
	RecognitionProgress float64 `db:"recognition_progress"`
	ModelID             *string `db:"model_id"`
	Language            *string `db:"language"`
	CreatedAt           int64   `db:"created_at"`
	UpdatedAt           int64   `db:"updated_at"`
}

// NewMediaRecord returns a record with a fresh id and both timestamps set to now.
func NewMediaRecord(filePath string, duration float64) MediaRecord {
	now := time.Now().Unix()
	return MediaRecord{
		ID:        uuid.NewString(),
		FilePath:  filePath,
		Duration:  duration,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (m MediaRecord) Validate() error {
	if m.ID == "" || m.FilePath == "" {
		return ErrInvalidArgument
	}
	if !ValidDuration(m.Duration) {
		return ErrInvalidArgument
	}
	if !ValidProgress(m.RecognitionProgress) {
		return ErrInvalidArgument
	}
	return nil
}

func (m MediaRecord) IsRecognitionComplete() bool {
	return m.RecognitionProgress >= 1.0
}

// FileName is the base name of FilePath.
func (m MediaRecord) FileName() string {
	return filepath.Base(m.FilePath)
}

// ValidDuration accepts finite, non-negative seconds.
func ValidDuration(d float64) bool {
	return !math.IsNaN(d) && !math.IsInf(d, 0) && d >= 0
}

func ValidProgress(p float64) bool {
	return !math.IsNaN(p) && p >= 0 && p <= 1
}

// ClampProgress forces p into [0, 1]. NaN becomes 0.
func ClampProgress(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
