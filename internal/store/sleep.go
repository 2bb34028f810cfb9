package store

import (
	"context"
	"fmt"
	"time"
)

type sleepRow struct {
	Day        string `db:"day"`
	TotalSleep *int64 `db:"total_sleep"`
	DeepSleep  *int64 `db:"deep_sleep"`
	LightSleep *int64 `db:"light_sleep"`
	RemSleep   *int64 `db:"rem_sleep"`
	Awake      *int64 `db:"awake"`
	Score      *int64 `db:"score"`
}

// SaveSleep inserts or updates a night of sleep
func (db *DB) SaveSleep(ctx context.Context, r SleepRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sleep (day, total_sleep, deep_sleep, light_sleep, rem_sleep, awake, score)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			total_sleep = excluded.total_sleep,
			deep_sleep = excluded.deep_sleep,
			light_sleep = excluded.light_sleep,
			rem_sleep = excluded.rem_sleep,
			awake = excluded.awake,
			score = excluded.score
	`,
		FormatDate(r.Date), seconds(r.TotalSleep), seconds(r.DeepSleep), seconds(r.LightSleep),
		seconds(r.RemSleep), seconds(r.AwakeTime), r.SleepScore,
	)
	if err != nil {
		return fmt.Errorf("saving sleep for %s: %w", FormatDate(r.Date), err)
	}
	return nil
}

// GetSleepData returns sleep records for the inclusive date range
func (db *DB) GetSleepData(ctx context.Context, start, end time.Time) ([]SleepRecord, error) {
	var rows []sleepRow
	err := db.SelectContext(ctx, &rows, `
		SELECT day, total_sleep, deep_sleep, light_sleep, rem_sleep, awake, score
		FROM sleep
		WHERE day >= ? AND day <= ?
		ORDER BY day
	`, FormatDate(start), FormatDate(end))
	if err != nil {
		return nil, fmt.Errorf("querying sleep: %w", err)
	}

	records := make([]SleepRecord, 0, len(rows))
	for _, row := range rows {
		day, err := ParseDate(row.Day)
		if err != nil {
			continue // skip malformed rows
		}
		records = append(records, SleepRecord{
			Date:       day,
			TotalSleep: duration(row.TotalSleep),
			DeepSleep:  duration(row.DeepSleep),
			LightSleep: duration(row.LightSleep),
			RemSleep:   duration(row.RemSleep),
			AwakeTime:  duration(row.Awake),
			SleepScore: intPtr(row.Score),
		})
	}
	return records, nil
}

// seconds converts a duration to whole seconds for storage
func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

// duration converts stored seconds back to a duration, zero when NULL
func duration(s *int64) time.Duration {
	if s == nil {
		return 0
	}
	return time.Duration(*s) * time.Second
}

func durationPtr(s *int64) *time.Duration {
	if s == nil || *s == 0 {
		return nil
	}
	d := duration(s)
	return &d
}

func intPtr(v *int64) *int {
	if v == nil {
		return nil
	}
	i := int(*v)
	return &i
}

func durationSeconds(d *time.Duration) *int64 {
	if d == nil {
		return nil
	}
	s := seconds(*d)
	return &s
}
