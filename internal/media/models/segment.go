package models

import (
	"math"
	"strings"
)

const highConfidence = 0.8

// Segment is one recognized span of text owned by a media record.
// Times are seconds from the start of the media.
type Segment struct {
	ID         string   `db:"id"`
	MediaID    string   `db:"media_id"`
	StartTime  float64  `db:"start_time"`
	EndTime    float64  `db:"end_time"`
	Text       string   `db:"text"`
	Confidence *float64 `db:"confidence"`
	CreatedAt  int64    `db:"created_at"`
}

func (s Segment) Validate() error {
	if s.ID == "" || s.MediaID == "" || strings.TrimSpace(s.Text) == "" {
		return ErrInvalidArgument
	}
	if math.IsNaN(s.StartTime) || math.IsNaN(s.EndTime) || s.StartTime >= s.EndTime {
		return ErrInvalidArgument
	}
	return nil
}

func (s Segment) Duration() float64 {
	return s.EndTime - s.StartTime
}

func (s Segment) IsHighConfidence() bool {
	return s.Confidence != nil && *s.Confidence >= highConfidence
}

// TimeRange is an interval in seconds.
type TimeRange struct {
	Start float64
	End   float64
}

func (r TimeRange) Valid() bool {
	return !math.IsNaN(r.Start) && !math.IsNaN(r.End) && r.Start <= r.End
}

func (r TimeRange) Duration() float64 {
	return r.End - r.Start
}

// Overlaps uses half-open semantics: [Start, End) against [s.StartTime, s.EndTime).
func (r TimeRange) Overlaps(s Segment) bool {
	return s.StartTime < r.End && s.EndTime > r.Start
}

// Contains reports whether s lies fully inside the closed range.
func (r TimeRange) Contains(s Segment) bool {
	return s.StartTime >= r.Start && s.EndTime <= r.End
}
