package model

import (
	"fmt"
	"time"
)

// Layout used to publish UTC time slots. Times carrying any other zone are published as RFC 3339 with their offset
const TimeLayout = "2006-01-02T15:04:05"

var acceptedLayouts = []string{
	time.RFC3339,
	TimeLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// Half-open time interval [Start, End)
type Interval struct {
	Start time.Time
	End   time.Time
}

func (interval Interval) Duration() time.Duration {
	return interval.End.Sub(interval.Start)
}

// Checks whether both intervals share at least one instant
func (interval Interval) Overlaps(other Interval) bool {
	return interval.Start.Before(other.End) && other.Start.Before(interval.End)
}

// Checks whether other lies entirely within interval
func (interval Interval) Contains(other Interval) bool {
	return !other.Start.Before(interval.Start) && !other.End.After(interval.End)
}

func (interval Interval) String() string {
	return fmt.Sprintf("%s/%s", FormatTime(interval.Start), FormatTime(interval.End))
}

// Formats a time so that ParseTime reads back the same instant
func FormatTime(value time.Time) string {
	if value.Location() == time.UTC {
		return value.Format(TimeLayout)
	}
	return value.Format(time.RFC3339)
}

func ParseTime(value string) (time.Time, error) {
	for _, layout := range acceptedLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format: %q", value)
}
