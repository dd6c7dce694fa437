// Package transcribe defines the boundary to the speech recognition
// engine. The engine itself lives outside this module.
package transcribe

import (
	"context"
	"fmt"

	"github.com/prism-xos/prism-core/internal/media/models"
)

const (
	// SampleRate of the PCM buffers engines accept: mono float32 little endian.
	SampleRate     = 16_000
	bytesPerSample = 4
)

// Engine turns a PCM buffer into segments. Returned segments carry times
// relative to the start of the buffer, text and an optional confidence;
// ids and ownership are assigned by the caller.
type Engine interface {
	Transcribe(ctx context.Context, audio []byte, opts Options) ([]models.Segment, error)
}

// ValidatePCM checks that audio looks like 16 kHz mono float32 samples.
func ValidatePCM(audio []byte) error {
	if len(audio) == 0 {
		return fmt.Errorf("%w: empty buffer", ErrInvalidAudioFormat)
	}
	if len(audio)%bytesPerSample != 0 {
		return fmt.Errorf("%w: %d bytes is not a whole number of samples", ErrInvalidAudioFormat, len(audio))
	}
	return nil
}

// PCMDuration is the length of audio in seconds.
func PCMDuration(audio []byte) float64 {
	return float64(len(audio)/bytesPerSample) / SampleRate
}
