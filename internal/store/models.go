package store

import "time"

// SleepRecord is one night of sleep, keyed by the date the night ended
type SleepRecord struct {
	Date       time.Time     `json:"date"`
	TotalSleep time.Duration `json:"total_sleep"`
	DeepSleep  time.Duration `json:"deep_sleep"`
	LightSleep time.Duration `json:"light_sleep"`
	RemSleep   time.Duration `json:"rem_sleep"`
	AwakeTime  time.Duration `json:"awake_time"`
	SleepScore *int          `json:"sleep_score,omitempty"` // nullable
}

// TotalHours returns the total sleep time in hours
func (r SleepRecord) TotalHours() float64 {
	return r.TotalSleep.Hours()
}

// DeepSleepPercent returns deep sleep as a percentage of total sleep
func (r SleepRecord) DeepSleepPercent() float64 {
	return stagePercent(r.DeepSleep, r.TotalSleep)
}

// RemSleepPercent returns REM sleep as a percentage of total sleep
func (r SleepRecord) RemSleepPercent() float64 {
	return stagePercent(r.RemSleep, r.TotalSleep)
}

func stagePercent(stage, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	return stage.Seconds() / total.Seconds() * 100
}

// HeartRateRecord is a single heart rate sample. For resting queries
// the timestamp is midnight of the day and RestingHR is set.
type HeartRateRecord struct {
	Timestamp time.Time `json:"timestamp"`
	HeartRate int       `json:"heart_rate"`
	RestingHR *int      `json:"resting_hr,omitempty"`
}

// Stress category thresholds on the 0-100 device scale
const (
	StressLowMax    = 25
	StressMediumMax = 50
	StressHighMax   = 75
)

// StressRecord is a single stress reading. Levels <= 0 mean the device
// had no reading (activity, off-wrist).
type StressRecord struct {
	Timestamp   time.Time `json:"timestamp"`
	StressLevel int       `json:"stress_level"`
}

// Valid reports whether the record carries an actual reading
func (r StressRecord) Valid() bool {
	return r.StressLevel > 0
}

// Category returns "low", "medium", "high" or "very_high"
func (r StressRecord) Category() string {
	switch {
	case r.StressLevel <= StressLowMax:
		return "low"
	case r.StressLevel <= StressMediumMax:
		return "medium"
	case r.StressLevel <= StressHighMax:
		return "high"
	default:
		return "very_high"
	}
}

// BodyBatteryRecord is a daily body battery reading
type BodyBatteryRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Level     int       `json:"level"`
	Charged   *int      `json:"charged,omitempty"`
	Drained   *int      `json:"drained,omitempty"`
}

// ActivityRecord is a recorded workout
type ActivityRecord struct {
	ID              string        `json:"activity_id"`
	Name            string        `json:"name"`
	Sport           string        `json:"sport"`
	StartTime       time.Time     `json:"start_time"`
	Duration        time.Duration `json:"duration"`
	Distance        *float64      `json:"distance,omitempty"` // km
	Calories        *int          `json:"calories,omitempty"`
	AvgHR           *int          `json:"avg_hr,omitempty"`
	MaxHR           *int          `json:"max_hr,omitempty"`
	TrainingEffect  *float64      `json:"training_effect,omitempty"`  // aerobic, 0-5
	AnaerobicEffect *float64      `json:"anaerobic_effect,omitempty"` // 0-5
	TrainingLoad    *float64      `json:"training_load,omitempty"`
}

// EndTime returns the start time plus the duration
func (a ActivityRecord) EndTime() time.Time {
	return a.StartTime.Add(a.Duration)
}

// PacePerKm returns minutes per km, or nil without a usable distance
func (a ActivityRecord) PacePerKm() *float64 {
	if a.Distance == nil || *a.Distance <= 0 {
		return nil
	}
	pace := a.Duration.Minutes() / *a.Distance
	return &pace
}

// DailySummaryRecord aggregates one day of monitoring data
type DailySummaryRecord struct {
	Date           time.Time      `json:"date"`
	RestingHR      *int           `json:"resting_hr,omitempty"`
	StressAvg      *int           `json:"stress_avg,omitempty"`
	BBMax          *int           `json:"bb_max,omitempty"`
	BBMin          *int           `json:"bb_min,omitempty"`
	BBCharged      *int           `json:"bb_charged,omitempty"`
	Steps          *int           `json:"steps,omitempty"`
	Floors         *int           `json:"floors,omitempty"`
	Distance       *float64       `json:"distance,omitempty"`
	CaloriesActive *int           `json:"calories_active,omitempty"`
	CaloriesTotal  *int           `json:"calories_total,omitempty"`
	SleepAvg       *time.Duration `json:"sleep_avg,omitempty"`
	IntensityMins  *int           `json:"intensity_mins,omitempty"`
}
