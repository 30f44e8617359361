package util

import (
	"strings"
	"time"
)

const (
	DateFormat    = "2006-01-02"
	ISO8601Format = "2006-01-02T15:04:05Z"
)

func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// ParseDate accepts a calendar date or a full RFC 3339 timestamp and returns
// midnight UTC of that day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateFormat, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func TimeToISO8601Str(t time.Time) string {
	return t.UTC().Format(ISO8601Format)
}
