package store

import (
	"context"
	"fmt"
	"time"
)

type stressRow struct {
	Timestamp string `db:"timestamp"`
	Stress    *int64 `db:"stress"`
}

type heartRateRow struct {
	Timestamp string `db:"timestamp"`
	HeartRate int64  `db:"heart_rate"`
}

// SaveStress stores stress samples, replacing samples with the same timestamp
func (db *DB) SaveStress(ctx context.Context, records []StressRecord) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO stress (timestamp, stress) VALUES (?, ?)
		ON CONFLICT(timestamp) DO UPDATE SET stress = excluded.stress
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Timestamp.Format(timestampLayout), r.StressLevel); err != nil {
			return fmt.Errorf("inserting stress sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetStressData returns stress samples for the inclusive date range.
// Rows with a NULL level are dropped; levels <= 0 are kept and left to
// the caller to interpret as "no reading".
func (db *DB) GetStressData(ctx context.Context, start, end time.Time) ([]StressRecord, error) {
	from, to := timestampBounds(start, end)

	var rows []stressRow
	err := db.SelectContext(ctx, &rows, `
		SELECT timestamp, stress
		FROM stress
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying stress: %w", err)
	}

	records := make([]StressRecord, 0, len(rows))
	for _, row := range rows {
		if row.Stress == nil {
			continue
		}
		ts, err := parseTimestamp(row.Timestamp)
		if err != nil {
			continue
		}
		records = append(records, StressRecord{Timestamp: ts, StressLevel: int(*row.Stress)})
	}
	return records, nil
}

// SaveHeartRate stores monitoring heart rate samples
func (db *DB) SaveHeartRate(ctx context.Context, records []HeartRateRecord) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO heart_rate (timestamp, heart_rate) VALUES (?, ?)
			ON CONFLICT(timestamp) DO UPDATE SET heart_rate = excluded.heart_rate
		`, r.Timestamp.Format(timestampLayout), r.HeartRate)
		if err != nil {
			return fmt.Errorf("inserting heart rate sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetHeartRateData returns heart rate samples. With restingOnly it returns
// one record per day built from the daily resting heart rate.
func (db *DB) GetHeartRateData(ctx context.Context, start, end time.Time, restingOnly bool) ([]HeartRateRecord, error) {
	if restingOnly {
		return db.getRestingHeartRate(ctx, start, end)
	}

	from, to := timestampBounds(start, end)

	var rows []heartRateRow
	err := db.SelectContext(ctx, &rows, `
		SELECT timestamp, heart_rate
		FROM heart_rate
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying heart rate: %w", err)
	}

	records := make([]HeartRateRecord, 0, len(rows))
	for _, row := range rows {
		ts, err := parseTimestamp(row.Timestamp)
		if err != nil {
			continue
		}
		records = append(records, HeartRateRecord{Timestamp: ts, HeartRate: int(row.HeartRate)})
	}
	return records, nil
}

func (db *DB) getRestingHeartRate(ctx context.Context, start, end time.Time) ([]HeartRateRecord, error) {
	var rows []struct {
		Day string `db:"day"`
		RHR *int64 `db:"rhr"`
	}
	err := db.SelectContext(ctx, &rows, `
		SELECT day, rhr
		FROM daily_summary
		WHERE day >= ? AND day <= ? AND rhr IS NOT NULL AND rhr > 0
		ORDER BY day
	`, FormatDate(start), FormatDate(end))
	if err != nil {
		return nil, fmt.Errorf("querying resting heart rate: %w", err)
	}

	records := make([]HeartRateRecord, 0, len(rows))
	for _, row := range rows {
		day, err := ParseDate(row.Day)
		if err != nil {
			continue
		}
		rhr := int(*row.RHR)
		records = append(records, HeartRateRecord{Timestamp: day, HeartRate: rhr, RestingHR: &rhr})
	}
	return records, nil
}

// timestampBounds returns [start 00:00, end+1 00:00) as sortable strings
func timestampBounds(start, end time.Time) (string, string) {
	return Day(start).Format(timestampLayout), Day(end).AddDate(0, 0, 1).Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(timestampLayout, s, time.UTC); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
