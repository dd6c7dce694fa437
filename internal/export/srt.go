// Package export writes stored segments out as SubRip (.srt) files.
package export

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/prism-xos/prism-core/internal/media/models"
)

const Extension = ".srt"

// FormatTimestamp renders seconds as HH:MM:SS,mmm rounded to the millisecond.
func FormatTimestamp(seconds float64) string {
	ms := int64(math.Round(seconds * 1000))
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d,%03d",
		ms/3_600_000,
		ms%3_600_000/60_000,
		ms%60_000/1_000,
		ms%1_000,
	)
}

// FileName builds <base>.<locale>.srt where base is the source name
// without its last extension.
func FileName(source, locale string) string {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + "." + locale + Extension
}

// Validate rejects an empty list and any cue that does not start at or
// after zero and end after it starts.
func Validate(segments []models.Segment) error {
	if len(segments) == 0 {
		return ErrEmptySubtitles
	}
	for i, s := range segments {
		if !(s.StartTime >= 0) || !(s.EndTime > s.StartTime) {
			return &InvalidTimestampsError{Index: i}
		}
	}
	return nil
}

// Render produces the file body: numbered cues from 1, each followed by a
// blank line. Text is written in NFC form.
func Render(segments []models.Segment) string {
	var b strings.Builder
	for i, s := range segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1,
			FormatTimestamp(s.StartTime),
			FormatTimestamp(s.EndTime),
			norm.NFC.String(s.Text),
		)
	}
	return b.String()
}
