package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// IntervalSchedule schedules a job to run at a fixed interval.
type IntervalSchedule struct {
	Interval time.Duration
}

// Next returns the next scheduled time.
func (s IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

func (s IntervalSchedule) String() string {
	return "@every " + s.Interval.String()
}

// DailySchedule runs once a day at a wall-clock time in the time's location.
type DailySchedule struct {
	Hour   int
	Minute int
}

// Next returns the first occurrence of Hour:Minute strictly after t.
func (s DailySchedule) Next(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), s.Hour, s.Minute, 0, 0, t.Location())
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s DailySchedule) String() string {
	return fmt.Sprintf("@daily %02d:%02d", s.Hour, s.Minute)
}

// ParseSchedule accepts "@every <duration>" and "@daily HH:MM".
func ParseSchedule(spec string) (Schedule, error) {
	fields := strings.Fields(spec)
	if len(fields) != 2 {
		return nil, fmt.Errorf("invalid schedule %q: expected \"@every <duration>\" or \"@daily HH:MM\"", spec)
	}

	switch fields[0] {
	case "@every":
		d, err := time.ParseDuration(fields[1])
		if err != nil {
			return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid schedule %q: interval must be positive", spec)
		}
		return IntervalSchedule{Interval: d}, nil

	case "@daily":
		hh, mm, ok := strings.Cut(fields[1], ":")
		if !ok {
			return nil, fmt.Errorf("invalid schedule %q: time must be HH:MM", spec)
		}
		hour, errH := strconv.Atoi(hh)
		minute, errM := strconv.Atoi(mm)
		if errH != nil || errM != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
			return nil, fmt.Errorf("invalid schedule %q: time must be HH:MM", spec)
		}
		return DailySchedule{Hour: hour, Minute: minute}, nil
	}

	return nil, fmt.Errorf("invalid schedule %q: unknown directive %s", spec, fields[0])
}
