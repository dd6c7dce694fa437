package export

import (
	"errors"
	"fmt"
)

var ErrEmptySubtitles = errors.New("no subtitles to export")

// InvalidTimestampsError points at the first bad cue, zero based.
type InvalidTimestampsError struct {
	Index int
}

func (e *InvalidTimestampsError) Error() string {
	return fmt.Sprintf("subtitle %d has invalid timestamps", e.Index+1)
}

type InsufficientSpaceError struct {
	Required  uint64
	Available uint64
}

func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("insufficient disk space: need %.2f MB, have %.2f MB",
		float64(e.Required)/(1<<20), float64(e.Available)/(1<<20))
}
