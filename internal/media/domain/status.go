package domain

import (
	"fmt"

	"github.com/prism-xos/prism-core/internal/media/models"
)

// CanTransition reports whether a model download may move from one status to another.
func CanTransition(from, to models.DownloadStatus) bool {
	switch from {
	case models.PendingStatus:
		return to == models.DownloadingStatus || to == models.FailedStatus
	case models.DownloadingStatus:
		return to == models.ReadyStatus || to == models.FailedStatus
	case models.ReadyStatus:
		// re-download after the file went missing or a new version shipped
		return to == models.PendingStatus
	case models.FailedStatus:
		return to == models.PendingStatus
	default:
		return false
	}
}

func ValidateTransition(from, to models.DownloadStatus) error {
	if from == to {
		return nil
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
