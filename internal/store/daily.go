package store

import (
	"context"
	"fmt"
	"time"
)

type dailySummaryRow struct {
	Day            string   `db:"day"`
	RHR            *int64   `db:"rhr"`
	StressAvg      *int64   `db:"stress_avg"`
	BBMax          *int64   `db:"bb_max"`
	BBMin          *int64   `db:"bb_min"`
	BBCharged      *int64   `db:"bb_charged"`
	Steps          *int64   `db:"steps"`
	Floors         *int64   `db:"floors"`
	Distance       *float64 `db:"distance"`
	CaloriesActive *int64   `db:"calories_active"`
	CaloriesTotal  *int64   `db:"calories_total"`
	SleepAvg       *int64   `db:"sleep_avg"`
	IntensityTime  *int64   `db:"intensity_time"`
}

const dailySummaryColumns = `day, rhr, stress_avg, bb_max, bb_min, bb_charged, steps, floors,
	distance, calories_active, calories_total, sleep_avg, intensity_time`

// SaveDailySummary inserts or updates a daily summary
func (db *DB) SaveDailySummary(ctx context.Context, r DailySummaryRecord) error {
	var intensity *int64
	if r.IntensityMins != nil {
		s := int64(*r.IntensityMins) * 60
		intensity = &s
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO daily_summary (`+dailySummaryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			rhr = excluded.rhr,
			stress_avg = excluded.stress_avg,
			bb_max = excluded.bb_max,
			bb_min = excluded.bb_min,
			bb_charged = excluded.bb_charged,
			steps = excluded.steps,
			floors = excluded.floors,
			distance = excluded.distance,
			calories_active = excluded.calories_active,
			calories_total = excluded.calories_total,
			sleep_avg = excluded.sleep_avg,
			intensity_time = excluded.intensity_time
	`,
		FormatDate(r.Date), r.RestingHR, r.StressAvg, r.BBMax, r.BBMin, r.BBCharged,
		r.Steps, r.Floors, r.Distance, r.CaloriesActive, r.CaloriesTotal,
		durationSeconds(r.SleepAvg), intensity,
	)
	if err != nil {
		return fmt.Errorf("saving daily summary for %s: %w", FormatDate(r.Date), err)
	}
	return nil
}

// GetDailySummaries returns daily summaries for the inclusive date range
func (db *DB) GetDailySummaries(ctx context.Context, start, end time.Time) ([]DailySummaryRecord, error) {
	rows, err := db.dailySummaryRows(ctx, start, end)
	if err != nil {
		return nil, err
	}

	records := make([]DailySummaryRecord, 0, len(rows))
	for _, row := range rows {
		day, err := ParseDate(row.Day)
		if err != nil {
			continue
		}

		var intensity *int
		if row.IntensityTime != nil && *row.IntensityTime > 0 {
			mins := int(*row.IntensityTime / 60)
			intensity = &mins
		}

		records = append(records, DailySummaryRecord{
			Date:           day,
			RestingHR:      positive(intPtr(row.RHR)),
			StressAvg:      intPtr(row.StressAvg),
			BBMax:          intPtr(row.BBMax),
			BBMin:          intPtr(row.BBMin),
			BBCharged:      intPtr(row.BBCharged),
			Steps:          intPtr(row.Steps),
			Floors:         positive(intPtr(row.Floors)),
			Distance:       row.Distance,
			CaloriesActive: intPtr(row.CaloriesActive),
			CaloriesTotal:  intPtr(row.CaloriesTotal),
			SleepAvg:       durationPtr(row.SleepAvg),
			IntensityMins:  intensity,
		})
	}
	return records, nil
}

// GetBodyBatteryData derives daily body battery readings from the daily
// summaries. Days without a maximum level are skipped.
func (db *DB) GetBodyBatteryData(ctx context.Context, start, end time.Time) ([]BodyBatteryRecord, error) {
	rows, err := db.dailySummaryRows(ctx, start, end)
	if err != nil {
		return nil, err
	}

	records := make([]BodyBatteryRecord, 0, len(rows))
	for _, row := range rows {
		if row.BBMax == nil {
			continue
		}
		day, err := ParseDate(row.Day)
		if err != nil {
			continue
		}
		records = append(records, BodyBatteryRecord{
			Timestamp: day,
			Level:     int(*row.BBMax),
			Charged:   intPtr(row.BBCharged),
		})
	}
	return records, nil
}

func (db *DB) dailySummaryRows(ctx context.Context, start, end time.Time) ([]dailySummaryRow, error) {
	var rows []dailySummaryRow
	err := db.SelectContext(ctx, &rows, `
		SELECT `+dailySummaryColumns+`
		FROM daily_summary
		WHERE day >= ? AND day <= ?
		ORDER BY day
	`, FormatDate(start), FormatDate(end))
	if err != nil {
		return nil, fmt.Errorf("querying daily summaries: %w", err)
	}
	return rows, nil
}

// positive drops zero values the device writes for "not measured"
func positive(v *int) *int {
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}
