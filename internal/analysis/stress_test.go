package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"health-insights/internal/store"
)

func reading(ts time.Time, level int) store.StressRecord {
	return store.StressRecord{Timestamp: ts, StressLevel: level}
}

func TestCalculateStressLoad(t *testing.T) {
	a := NewStressAnalyzer(store.NewMemory(), DefaultStressConfig())

	t.Run("empty", func(t *testing.T) {
		load := a.CalculateStressLoad(nil, day(1), endOfDay(day(1)))
		assert.Equal(t, StressLoad{}, load)
		assert.Nil(t, load.PeakLoadHour)
	})

	t.Run("one hour at constant stress", func(t *testing.T) {
		var records []store.StressRecord
		for m := 0; m < 60; m++ {
			records = append(records, reading(at(2, 10, m), 50))
		}

		load := a.CalculateStressLoad(records, day(2), endOfDay(day(2)))
		assert.Equal(t, 60, load.PeriodMinutes)
		assert.Equal(t, 50.0, load.TotalLoad)
		assert.Equal(t, 50.0, load.AvgIntensity)
		require.NotNil(t, load.PeakLoadHour)
		assert.Equal(t, 10, *load.PeakLoadHour)
	})

	t.Run("gaps are capped", func(t *testing.T) {
		records := []store.StressRecord{
			reading(at(2, 10, 0), 20),
			reading(at(2, 11, 0), 50),
		}

		// 20 x 15 min + 50 x 1 min over 16 minutes
		load := a.CalculateStressLoad(records, day(2), endOfDay(day(2)))
		assert.Equal(t, 16, load.PeriodMinutes)
		assert.Equal(t, 5.8, load.TotalLoad)
		assert.Equal(t, 21.9, load.AvgIntensity)
		assert.Equal(t, 10, *load.PeakLoadHour)
	})

	t.Run("invalid and out of window readings are skipped", func(t *testing.T) {
		records := []store.StressRecord{
			reading(at(1, 23, 50), 90),
			reading(at(2, 8, 0), -1),
			reading(at(2, 8, 5), 0),
			reading(at(2, 9, 0), 40),
		}

		load := a.CalculateStressLoad(records, day(2), endOfDay(day(2)))
		assert.Equal(t, 1, load.PeriodMinutes)
		assert.Equal(t, 40.0, load.AvgIntensity)
		assert.Equal(t, 9, *load.PeakLoadHour)
	})
}

func TestPersonalBaseline(t *testing.T) {
	a := NewStressAnalyzer(store.NewMemory(), DefaultStressConfig())

	var records []store.StressRecord
	for i := 0; i < 12; i++ {
		records = append(records, reading(at(10, i%6, i), 15+i))
	}
	// Outside resting hours or invalid
	records = append(records,
		reading(at(10, 7, 0), 5),
		reading(at(10, 3, 30), -2),
	)

	// 12 resting readings 15..26, index int(12*0.25) = 3
	assert.Equal(t, 18.0, a.PersonalBaseline(records, day(10)))

	// Readings older than the window are ignored
	assert.Equal(t, 25.0, a.PersonalBaseline(records, day(30)))

	assert.Equal(t, 25.0, a.PersonalBaseline(records[:9], day(10)))
}

func TestRecoveryEfficiency(t *testing.T) {
	a := NewStressAnalyzer(store.NewMemory(), DefaultStressConfig())

	assert.Nil(t, a.RecoveryEfficiency(nil))

	eff := a.RecoveryEfficiency([]PostActivityStress{
		{RecoveryMinutes: intPtr(30)},
		{RecoveryMinutes: nil},
	})
	require.NotNil(t, eff)
	assert.Equal(t, 37.5, *eff)

	eff = a.RecoveryEfficiency([]PostActivityStress{{RecoveryMinutes: intPtr(0)}})
	assert.Equal(t, 100.0, *eff)
}

func TestStressAnalyzePostActivityRecovery(t *testing.T) {
	repo := store.NewMemory()
	repo.AddActivities(store.ActivityRecord{
		ID:        "run-1",
		Sport:     "running",
		StartTime: at(6, 11, 0),
		Duration:  time.Hour,
	})
	repo.AddStress(
		reading(at(6, 11, 40), 40),
		reading(at(6, 12, 0), 70),
		reading(at(6, 12, 20), 50),
		reading(at(6, 12, 45), 28),
		reading(at(6, 13, 30), 25),
	)

	result, err := NewStressAnalyzer(repo, DefaultStressConfig()).Analyze(context.Background(), day(6), day(6))
	require.NoError(t, err)

	assert.Equal(t, 25.0, result.PersonalBaseline)
	require.Len(t, result.PostActivity, 1)

	post := result.PostActivity[0]
	assert.Equal(t, "run-1", post.ActivityID)
	assert.Equal(t, at(6, 12, 0), post.ActivityEnd)
	assert.Equal(t, 40.0, post.PreActivityStress)
	assert.Equal(t, 70.0, post.PeakPostStress)
	require.NotNil(t, post.RecoveryMinutes)
	assert.Equal(t, 45, *post.RecoveryMinutes)

	require.NotNil(t, result.AvgRecoveryMinutes)
	assert.Equal(t, 45.0, *result.AvgRecoveryMinutes)
	require.NotNil(t, result.RecoveryEfficiency)
	assert.Equal(t, 62.5, *result.RecoveryEfficiency)

	require.NotNil(t, result.PeakStressHour)
	assert.Equal(t, 12, *result.PeakStressHour)
	require.NotNil(t, result.LowestStressHour)
	assert.Equal(t, 13, *result.LowestStressHour)

	titles := insightTitles(result.Insights)
	assert.Equal(t, []string{"Work Hours Stress Peak"}, titles)
	assert.Equal(t, "Peak stress at 12:00.", result.Insights[0].Description)
}

func TestStressAnalyzeIncompleteRecovery(t *testing.T) {
	repo := store.NewMemory()
	repo.AddActivities(store.ActivityRecord{
		ID:        "ride-1",
		Sport:     "cycling",
		StartTime: at(6, 18, 0),
		Duration:  time.Hour,
	})
	repo.AddStress(
		reading(at(6, 19, 10), 80),
		reading(at(6, 20, 0), 70),
		reading(at(6, 20, 50), 60),
	)

	result, err := NewStressAnalyzer(repo, DefaultStressConfig()).Analyze(context.Background(), day(6), day(6))
	require.NoError(t, err)

	require.Len(t, result.PostActivity, 1)
	assert.Nil(t, result.PostActivity[0].RecoveryMinutes)
	assert.Equal(t, 25.0, result.PostActivity[0].PreActivityStress)
	assert.Nil(t, result.AvgRecoveryMinutes)
	assert.Equal(t, 0.0, *result.RecoveryEfficiency)

	titles := insightTitles(result.Insights)
	assert.Equal(t, []string{"Poor Stress Recovery", "Incomplete Post-Activity Recovery"}, titles)

	incomplete := result.Insights[1]
	assert.Equal(t, SeverityAlert, incomplete.Severity)
	assert.Equal(t, "1 activities without full recovery.", incomplete.Description)
	assert.Equal(t, map[string]float64{"count": 1}, incomplete.DataPoints)
}

func TestStressAnalyzeDistributionAndPatterns(t *testing.T) {
	repo := store.NewMemory()
	repo.AddStress(
		reading(at(6, 2, 0), 20),  // Monday
		reading(at(6, 22, 0), 40), // Monday
		reading(at(7, 2, 0), 80),  // Tuesday
		reading(at(7, 3, 0), -1),
	)

	result, err := NewStressAnalyzer(repo, DefaultStressConfig()).Analyze(context.Background(), day(6), day(7))
	require.NoError(t, err)

	assert.Equal(t, 33.3, result.LowPercent)
	assert.Equal(t, 33.3, result.MediumPercent)
	assert.Equal(t, 33.3, result.HighPercent)

	assert.Equal(t, "Average Stress", result.AvgStress.Name)
	assert.Equal(t, 46.7, result.AvgStress.CurrentValue)

	require.Len(t, result.HourlyPatterns, 24)
	assert.Equal(t, 50.0, result.HourlyPatterns[2].AvgStress)
	assert.Equal(t, 2, result.HourlyPatterns[2].SampleCount)
	assert.Equal(t, 0, result.HourlyPatterns[5].SampleCount)
	assert.Equal(t, 22, *result.LowestStressHour)

	require.Len(t, result.WeekdayAverages, 7)
	assert.Equal(t, time.Monday, result.WeekdayAverages[0].Day)
	assert.Equal(t, 30.0, result.WeekdayAverages[0].AvgStress)
	assert.Equal(t, 80.0, result.WeekdayAverages[1].AvgStress)
	assert.Equal(t, 0.0, result.WeekdayAverages[6].AvgStress)

	require.Len(t, result.DailyAvgStress, 2)
	assert.Equal(t, 30.0, result.DailyAvgStress[0].Value)

	assert.Empty(t, result.PostActivity)
	assert.Nil(t, result.RecoveryEfficiency)
}

func TestStressAnalyzeOccupationalStress(t *testing.T) {
	repo := store.NewMemory()
	// Monday 6th to Sunday 12th
	for d := 6; d <= 10; d++ {
		repo.AddStress(reading(at(d, 20, 0), 60))
	}
	repo.AddStress(reading(at(11, 20, 0), 30), reading(at(12, 20, 0), 30))

	result, err := NewStressAnalyzer(repo, DefaultStressConfig()).Analyze(context.Background(), day(6), day(12))
	require.NoError(t, err)

	require.Len(t, result.Insights, 1)
	assert.Equal(t, "Occupational Stress Detected", result.Insights[0].Title)
	assert.Equal(t, "Weekday stress (60) > weekend (30).", result.Insights[0].Description)
}

func TestStressAnalyzeEmpty(t *testing.T) {
	result, err := NewStressAnalyzer(store.NewMemory(), DefaultStressConfig()).Analyze(context.Background(), day(1), day(7))
	require.NoError(t, err)

	assert.Equal(t, 25.0, result.PersonalBaseline)
	assert.Equal(t, 0.0, result.AvgStress.CurrentValue)
	assert.Nil(t, result.PeakStressHour)
	assert.NotNil(t, result.Insights)
	assert.Empty(t, result.Insights)
}

func TestStressAnalyzePropagatesErrors(t *testing.T) {
	boom := errors.New("connection reset")
	repo := failingRepo{Memory: store.NewMemory(), err: boom}

	_, err := NewStressAnalyzer(repo, DefaultStressConfig()).Analyze(context.Background(), day(1), day(7))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "loading stress data")
}

func insightTitles(insights []Insight) []string {
	titles := make([]string, len(insights))
	for i, in := range insights {
		titles[i] = in.Title
	}
	return titles
}
