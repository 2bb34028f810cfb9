package store

import (
	"context"
	"time"
)

// Repository is the read side of the health data store. All ranges are
// inclusive calendar dates and results are sorted ascending by date or
// timestamp. Implementations skip malformed rows instead of failing.
type Repository interface {
	GetSleepData(ctx context.Context, start, end time.Time) ([]SleepRecord, error)
	GetHeartRateData(ctx context.Context, start, end time.Time, restingOnly bool) ([]HeartRateRecord, error)
	GetStressData(ctx context.Context, start, end time.Time) ([]StressRecord, error)
	GetBodyBatteryData(ctx context.Context, start, end time.Time) ([]BodyBatteryRecord, error)
	// GetActivities filters by sport when sport is non-empty
	// (case-insensitive substring match).
	GetActivities(ctx context.Context, start, end time.Time, sport string) ([]ActivityRecord, error)
	GetDailySummaries(ctx context.Context, start, end time.Time) ([]DailySummaryRecord, error)
}

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

// Day truncates t to midnight UTC of its calendar date
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a calendar date
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// InRange reports whether t's calendar date lies within [start, end]
func InRange(t, start, end time.Time) bool {
	d := Day(t)
	return !d.Before(Day(start)) && !d.After(Day(end))
}

// FormatDate formats a calendar date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}
