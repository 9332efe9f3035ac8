package schedule

import (
	"fmt"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Normalize converts t into the clinic location and strips the time of day.
func (p *Policy) Normalize(t time.Time) time.Time {
	t = t.In(p.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, p.loc)
}

// ParseDate accepts an ISO date or datetime and returns the normalized day.
// Date-only and zone-less values are read in the clinic location.
func (p *Policy) ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}

	if t, err := time.ParseInLocation("2006-01-02", s, p.loc); err == nil {
		return t, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, p.loc); err == nil {
			return p.Normalize(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// FromStorage re-anchors a Postgres date, which pgx scans as UTC midnight,
// into the clinic location.
func (p *Policy) FromStorage(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, p.loc)
}

// DateKey is the canonical YYYY-MM-DD form used for lock and cache keys.
func DateKey(day time.Time) string {
	return day.Format(time.DateOnly)
}
