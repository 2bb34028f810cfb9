package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type activityRow struct {
	ActivityID      string   `db:"activity_id"`
	Name            *string  `db:"name"`
	Sport           *string  `db:"sport"`
	StartTime       string   `db:"start_time"`
	ElapsedTime     *int64   `db:"elapsed_time"`
	MovingTime      *int64   `db:"moving_time"`
	Distance        *float64 `db:"distance"`
	Calories        *int64   `db:"calories"`
	AvgHR           *int64   `db:"avg_hr"`
	MaxHR           *int64   `db:"max_hr"`
	TrainingEffect  *float64 `db:"training_effect"`
	AnaerobicEffect *float64 `db:"anaerobic_training_effect"`
	TrainingLoad    *float64 `db:"training_load"`
}

// SaveActivity inserts or updates an activity. The duration is stored as
// elapsed time.
func (db *DB) SaveActivity(ctx context.Context, a ActivityRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO activities (
			activity_id, name, sport, start_time, elapsed_time, distance, calories,
			avg_hr, max_hr, training_effect, anaerobic_training_effect, training_load
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(activity_id) DO UPDATE SET
			name = excluded.name,
			sport = excluded.sport,
			start_time = excluded.start_time,
			elapsed_time = excluded.elapsed_time,
			distance = excluded.distance,
			calories = excluded.calories,
			avg_hr = excluded.avg_hr,
			max_hr = excluded.max_hr,
			training_effect = excluded.training_effect,
			anaerobic_training_effect = excluded.anaerobic_training_effect,
			training_load = excluded.training_load
	`,
		a.ID, a.Name, a.Sport, a.StartTime.Format(timestampLayout), seconds(a.Duration),
		a.Distance, a.Calories, a.AvgHR, a.MaxHR,
		a.TrainingEffect, a.AnaerobicEffect, a.TrainingLoad,
	)
	if err != nil {
		return fmt.Errorf("saving activity %s: %w", a.ID, err)
	}
	return nil
}

// GetActivities returns activities started within the inclusive date range
func (db *DB) GetActivities(ctx context.Context, start, end time.Time, sport string) ([]ActivityRecord, error) {
	from, to := timestampBounds(start, end)

	var rows []activityRow
	err := db.SelectContext(ctx, &rows, `
		SELECT activity_id, name, sport, start_time, elapsed_time, moving_time, distance,
			calories, avg_hr, max_hr, training_effect, anaerobic_training_effect, training_load
		FROM activities
		WHERE start_time >= ? AND start_time < ?
		ORDER BY start_time
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying activities: %w", err)
	}

	records := make([]ActivityRecord, 0, len(rows))
	for _, row := range rows {
		rowSport := deref(row.Sport)
		if sport != "" && !strings.Contains(strings.ToLower(rowSport), strings.ToLower(sport)) {
			continue
		}

		startTime, err := parseTimestamp(row.StartTime)
		if err != nil {
			continue
		}

		// Prefer elapsed time, fall back to moving time
		var d time.Duration
		switch {
		case row.ElapsedTime != nil && *row.ElapsedTime > 0:
			d = duration(row.ElapsedTime)
		case row.MovingTime != nil && *row.MovingTime > 0:
			d = duration(row.MovingTime)
		}

		records = append(records, ActivityRecord{
			ID:              row.ActivityID,
			Name:            deref(row.Name),
			Sport:           rowSport,
			StartTime:       startTime,
			Duration:        d,
			Distance:        row.Distance,
			Calories:        intPtr(row.Calories),
			AvgHR:           intPtr(row.AvgHR),
			MaxHR:           intPtr(row.MaxHR),
			TrainingEffect:  row.TrainingEffect,
			AnaerobicEffect: row.AnaerobicEffect,
			TrainingLoad:    row.TrainingLoad,
		})
	}
	return records, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
