package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenInMemory()
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func intVal(v int) *int { return &v }

func floatVal(v float64) *float64 { return &v }

func at(day, hour, min int) time.Time {
	return time.Date(2025, 1, day, hour, min, 0, 0, time.UTC)
}

func TestSleepRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	require.NoError(t, db.SaveSleep(ctx, SleepRecord{
		Date:       Date(2025, 1, 16),
		TotalSleep: 7*time.Hour + 30*time.Minute,
		DeepSleep:  90 * time.Minute,
		RemSleep:   100 * time.Minute,
		SleepScore: intVal(82),
	}))
	require.NoError(t, db.SaveSleep(ctx, SleepRecord{
		Date:       Date(2025, 1, 15),
		TotalSleep: 6 * time.Hour,
	}))
	require.NoError(t, db.SaveSleep(ctx, SleepRecord{
		Date:       Date(2025, 1, 20),
		TotalSleep: 8 * time.Hour,
	}))

	records, err := db.GetSleepData(ctx, Date(2025, 1, 15), Date(2025, 1, 16))
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Ascending by date
	assert.Equal(t, Date(2025, 1, 15), records[0].Date)
	assert.Nil(t, records[0].SleepScore)
	assert.Equal(t, Date(2025, 1, 16), records[1].Date)
	assert.InDelta(t, 7.5, records[1].TotalHours(), 0.001)
	assert.Equal(t, 90*time.Minute, records[1].DeepSleep)
	require.NotNil(t, records[1].SleepScore)
	assert.Equal(t, 82, *records[1].SleepScore)
}

func TestGetSleepDataSkipsMalformedRows(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	require.NoError(t, db.SaveSleep(ctx, SleepRecord{Date: Date(2025, 1, 15), TotalSleep: 7 * time.Hour}))
	_, err := db.Exec(`INSERT INTO sleep (day, total_sleep) VALUES ('2025-01-15x', 100)`)
	require.NoError(t, err)

	records, err := db.GetSleepData(ctx, Date(2025, 1, 1), Date(2025, 1, 31))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestStressRange(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	require.NoError(t, db.SaveStress(ctx, []StressRecord{
		{Timestamp: at(14, 23, 59), StressLevel: 10},
		{Timestamp: at(15, 0, 0), StressLevel: 20},
		{Timestamp: at(16, 23, 59), StressLevel: -1},
		{Timestamp: at(17, 0, 0), StressLevel: 40},
	}))
	_, err := db.Exec(`INSERT INTO stress (timestamp, stress) VALUES ('2025-01-15 12:00:00', NULL)`)
	require.NoError(t, err)

	records, err := db.GetStressData(ctx, Date(2025, 1, 15), Date(2025, 1, 16))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, at(15, 0, 0), records[0].Timestamp)
	assert.Equal(t, -1, records[1].StressLevel)
	assert.False(t, records[1].Valid())
}

func TestActivities(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	require.NoError(t, db.SaveActivity(ctx, ActivityRecord{
		ID:             "1",
		Name:           "Morning Run",
		Sport:          "running",
		StartTime:      at(15, 7, 0),
		Duration:       45 * time.Minute,
		Distance:       floatVal(8.5),
		AvgHR:          intVal(145),
		TrainingEffect: floatVal(3.2),
	}))
	require.NoError(t, db.SaveActivity(ctx, ActivityRecord{
		ID:           "2",
		Sport:        "trail_running",
		StartTime:    at(16, 7, 0),
		Duration:     time.Hour,
		TrainingLoad: floatVal(120),
	}))
	require.NoError(t, db.SaveActivity(ctx, ActivityRecord{
		ID:        "3",
		Sport:     "cycling",
		StartTime: at(15, 18, 0),
		Duration:  time.Hour,
	}))

	t.Run("all sports ordered by start", func(t *testing.T) {
		records, err := db.GetActivities(ctx, Date(2025, 1, 15), Date(2025, 1, 16), "")
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "1", records[0].ID)
		assert.Equal(t, "3", records[1].ID)
		assert.Equal(t, "2", records[2].ID)
		assert.Equal(t, 45*time.Minute, records[0].Duration)
		assert.Equal(t, at(15, 7, 45), records[0].EndTime())
		assert.Nil(t, records[0].TrainingLoad)
	})

	t.Run("sport filter is a case-insensitive substring match", func(t *testing.T) {
		records, err := db.GetActivities(ctx, Date(2025, 1, 15), Date(2025, 1, 16), "RUNNING")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "running", records[0].Sport)
		assert.Equal(t, "trail_running", records[1].Sport)
	})

	t.Run("falls back to moving time", func(t *testing.T) {
		_, err := db.Exec(`INSERT INTO activities (activity_id, sport, start_time, elapsed_time, moving_time)
			VALUES ('4', 'walking', '2025-01-16 12:00:00', NULL, 1800)`)
		require.NoError(t, err)

		records, err := db.GetActivities(ctx, Date(2025, 1, 16), Date(2025, 1, 16), "walking")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, 30*time.Minute, records[0].Duration)
	})
}

func TestDailySummariesAndDerivedReads(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	sleepAvg := 7 * time.Hour
	require.NoError(t, db.SaveDailySummary(ctx, DailySummaryRecord{
		Date:          Date(2025, 1, 15),
		RestingHR:     intVal(52),
		StressAvg:     intVal(28),
		BBMax:         intVal(95),
		BBMin:         intVal(25),
		BBCharged:     intVal(70),
		Steps:         intVal(8500),
		SleepAvg:      &sleepAvg,
		IntensityMins: intVal(45),
	}))
	require.NoError(t, db.SaveDailySummary(ctx, DailySummaryRecord{
		Date:      Date(2025, 1, 16),
		RestingHR: intVal(0),
	}))

	summaries, err := db.GetDailySummaries(ctx, Date(2025, 1, 15), Date(2025, 1, 16))
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, 52, *summaries[0].RestingHR)
	assert.Equal(t, 45, *summaries[0].IntensityMins)
	assert.Equal(t, 7*time.Hour, *summaries[0].SleepAvg)
	assert.Nil(t, summaries[1].RestingHR, "zero RHR is treated as not measured")

	battery, err := db.GetBodyBatteryData(ctx, Date(2025, 1, 15), Date(2025, 1, 16))
	require.NoError(t, err)
	require.Len(t, battery, 1)
	assert.Equal(t, 95, battery[0].Level)
	assert.Equal(t, 70, *battery[0].Charged)

	resting, err := db.GetHeartRateData(ctx, Date(2025, 1, 15), Date(2025, 1, 16), true)
	require.NoError(t, err)
	require.Len(t, resting, 1)
	assert.Equal(t, 52, resting[0].HeartRate)
	assert.Equal(t, 52, *resting[0].RestingHR)
}

func TestMonitoringHeartRate(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	require.NoError(t, db.SaveHeartRate(ctx, []HeartRateRecord{
		{Timestamp: at(15, 8, 30), HeartRate: 72},
		{Timestamp: at(15, 8, 0), HeartRate: 65},
	}))

	records, err := db.GetHeartRateData(ctx, Date(2025, 1, 15), Date(2025, 1, 15), false)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 65, records[0].HeartRate)
	assert.Nil(t, records[0].RestingHR)
}

func TestImportState(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	value, err := db.GetImportState(ctx, StateLastImport)
	require.NoError(t, err)
	assert.Empty(t, value, "missing key returns empty string")

	require.NoError(t, db.SetImportState(ctx, StateLastImport, "2025-01-12T21:15:00Z"))
	require.NoError(t, db.SetImportState(ctx, StateLastImport, "2025-01-13T07:00:00Z"))

	value, err = db.GetImportState(ctx, StateLastImport)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-13T07:00:00Z", value)
}
