package shared

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Period is an inclusive reporting window.
type Period struct {
	Start time.Time
	End   time.Time
}

// ParsePeriod reads a reporting window. Dates without a time component cover the whole
// day, so an end of "2026-01-31" includes orders started at 18:00 on that day.
func ParsePeriod(startRaw, endRaw string, loc *time.Location) (Period, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, err := parseBoundary(startRaw, loc, false)
	if err != nil {
		return Period{}, fmt.Errorf("%w: periodStart: %v", ErrValidation, err)
	}
	end, err := parseBoundary(endRaw, loc, true)
	if err != nil {
		return Period{}, fmt.Errorf("%w: periodEnd: %v", ErrValidation, err)
	}
	if end.Before(start) {
		return Period{}, fmt.Errorf("%w: periodEnd before periodStart", ErrValidation)
	}
	return Period{Start: start, End: end}, nil
}

// TrailingDays returns the window ending at now and starting days*24h earlier.
func TrailingDays(now time.Time, days int) Period {
	return Period{Start: now.Add(-time.Duration(days) * 24 * time.Hour), End: now}
}

// MonthPeriod covers a calendar month from the first instant to the last nanosecond.
func MonthPeriod(year int, month time.Month, loc *time.Location) Period {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return Period{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Nanosecond)}
}

func parseBoundary(raw string, loc *time.Location, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("required")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	day, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or RFC3339")
	}
	if endOfDay {
		return day.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	}
	return day, nil
}
