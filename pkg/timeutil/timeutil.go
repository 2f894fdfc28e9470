// Package timeutil parses the records backend's timestamps and renders them
// in the campus zone. Deadline and exam timestamps arrive as ISO-8601 strings
// in UTC; students read them in local time (Hanoi, UTC+7, unless configured).
package timeutil

import (
	"errors"
	"strings"
	"time"
)

// HanoiTZ is the default campus timezone (UTC+7, no DST).
var HanoiTZ = time.FixedZone("Asia/Ho_Chi_Minh", 7*60*60)

// Common layouts used in replies.
const (
	// FormatClockDate renders "15:04 02/01/2006".
	FormatClockDate = "15:04 02/01/2006"
	// FormatDateClock renders "02/01/2006 15:04".
	FormatDateClock = "02/01/2006 15:04"
)

// ErrEmptyTimestamp is returned by Parse for blank input.
var ErrEmptyTimestamp = errors.New("timeutil: empty timestamp")

// isoLayouts are tried in order. The first accepts the backend's
// JavaScript toISOString output ("2025-01-10T10:00:00.000Z").
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// OrHanoi returns loc, or HanoiTZ when loc is nil.
func OrHanoi(loc *time.Location) *time.Location {
	if loc == nil {
		return HanoiTZ
	}
	return loc
}

// Parse parses an ISO-8601 timestamp. Values without an offset are read as UTC.
func Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrEmptyTimestamp
	}

	var lastErr error
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// FormatIn parses value and renders it in loc with layout. A nil loc means
// HanoiTZ. ok is false when value is blank or malformed.
func FormatIn(value, layout string, loc *time.Location) (string, bool) {
	t, err := Parse(value)
	if err != nil {
		return "", false
	}
	return t.In(OrHanoi(loc)).Format(layout), true
}
