package transcribe

import (
	"errors"
	"fmt"
)

// Recognition failures. They are distinct from storage errors so callers
// can tell a bad model apart from a broken database.
var (
	ErrModelNotLoaded      = errors.New("asr model not loaded")
	ErrInvalidAudioFormat  = errors.New("invalid audio format, expected 16kHz mono PCM float32")
	ErrCancelled           = errors.New("transcription cancelled")
	ErrTranscriptionFailed = errors.New("transcription failed")
)

type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load asr model %s: %v", e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }
