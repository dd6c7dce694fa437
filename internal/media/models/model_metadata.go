package models

type Backend string

const (
	WhisperCpp Backend = "whisper-cpp"
	MLXSwift   Backend = "mlx-swift"
)

type DownloadStatus string

const (
	PendingStatus     DownloadStatus = "pending"
	DownloadingStatus DownloadStatus = "downloading"
	ReadyStatus       DownloadStatus = "ready"
	FailedStatus      DownloadStatus = "failed"
)

// ModelMetadata describes a recognition model artifact.
type ModelMetadata struct {
	ID                 string         `db:"id"`
	Name               string         `db:"name"`
	Size               int64          `db:"size"`
	Backend            Backend        `db:"backend"`
	Version            *string        `db:"version"`
	FilePath           *string        `db:"file_path"`
	DownloadStatus     DownloadStatus `db:"download_status"`
	SHA256             *string        `db:"sha256"`
	SupportsTimestamps bool           `db:"supports_timestamps"`
	CreatedAt          int64          `db:"created_at"`
}

// IsAvailable reports whether the model is downloaded and has a file on disk.
func (m ModelMetadata) IsAvailable() bool {
	return m.DownloadStatus == ReadyStatus && m.FilePath != nil && *m.FilePath != ""
}
