package analysis

import (
	"maps"
	"slices"
	"time"
)

// TrendDirection describes how a metric is moving
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// Icon returns an arrow for the trend
func (t TrendDirection) Icon() string {
	switch t {
	case TrendImproving:
		return "↑"
	case TrendDeclining:
		return "↓"
	default:
		return "→"
	}
}

// Severity ranks an insight
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityPositive Severity = "positive"
	SeverityWarning  Severity = "warning"
	SeverityAlert    Severity = "alert"
)

// Icon returns the emoji used when rendering the severity
func (s Severity) Icon() string {
	switch s {
	case SeverityPositive:
		return "✅"
	case SeverityWarning:
		return "⚠️"
	case SeverityAlert:
		return "🚨"
	default:
		return "ℹ️"
	}
}

// IsKey reports whether insights of this severity belong in a report's key insights
func (s Severity) IsKey() bool {
	return s == SeverityWarning || s == SeverityAlert
}

// Insight categories
const (
	CategorySleep    = "sleep"
	CategoryStress   = "stress"
	CategoryRecovery = "recovery"
	CategoryActivity = "activity"
)

// MetricSummary summarizes one metric over a period
type MetricSummary struct {
	Name          string         `json:"name"`
	CurrentValue  float64        `json:"current_value"`
	Unit          string         `json:"unit"`
	Average7d     *float64       `json:"average_7d,omitempty"`
	Average30d    *float64       `json:"average_30d,omitempty"`
	Min           *float64       `json:"min,omitempty"`
	Max           *float64       `json:"max,omitempty"`
	Trend         TrendDirection `json:"trend"`
	PercentChange *float64       `json:"percent_change,omitempty"`
}

// Insight is a human-readable finding with optional recommendations
type Insight struct {
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Severity        Severity           `json:"severity"`
	Category        string             `json:"category"`
	DataPoints      map[string]float64 `json:"data_points,omitempty"`
	Recommendations []string           `json:"recommendations,omitempty"`
}

// Equal reports whether two insights have the same content
func (i Insight) Equal(other Insight) bool {
	return i.Title == other.Title &&
		i.Description == other.Description &&
		i.Severity == other.Severity &&
		i.Category == other.Category &&
		maps.Equal(i.DataPoints, other.DataPoints) &&
		slices.Equal(i.Recommendations, other.Recommendations)
}

// DailyValue is one point of a per-day series
type DailyValue struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Values returns the series values in order
func Values(series []DailyValue) []float64 {
	out := make([]float64, len(series))
	for i, dv := range series {
		out[i] = dv.Value
	}
	return out
}

// SleepResult is the output of SleepAnalyzer.Analyze
type SleepResult struct {
	PeriodStart      time.Time     `json:"period_start"`
	PeriodEnd        time.Time     `json:"period_end"`
	TotalSleep       MetricSummary `json:"total_sleep"`
	DeepSleep        MetricSummary `json:"deep_sleep"`
	RemSleep         MetricSummary `json:"rem_sleep"`
	ConsistencyScore float64       `json:"consistency_score"`
	BestDay          string        `json:"best_day,omitempty"`
	WorstDay         string        `json:"worst_day,omitempty"`
	Insights         []Insight     `json:"insights"`
	DailyTotalHours  []DailyValue  `json:"daily_total_hours,omitempty"`
	DailyDeepPercent []DailyValue  `json:"daily_deep_percent,omitempty"`
}

// StressLoad is the area under the stress curve for a window
type StressLoad struct {
	PeriodMinutes int     `json:"period_minutes"`
	TotalLoad     float64 `json:"total_load"`
	AvgIntensity  float64 `json:"avg_intensity"`
	PeakLoadHour  *int    `json:"peak_load_hour,omitempty"`
}

// HourlyStressPattern is the stress profile of one hour of the day
type HourlyStressPattern struct {
	Hour         int                `json:"hour"`
	AvgStress    float64            `json:"avg_stress"`
	SampleCount  int                `json:"sample_count"`
	Distribution map[string]float64 `json:"distribution,omitempty"` // low/medium/high %
}

// WeekdayStress is the average stress of one weekday
type WeekdayStress struct {
	Day       time.Weekday `json:"day"`
	AvgStress float64      `json:"avg_stress"`
}

// PostActivityStress describes stress in the window after an activity
type PostActivityStress struct {
	ActivityID        string    `json:"activity_id"`
	Sport             string    `json:"sport"`
	ActivityEnd       time.Time `json:"activity_end"`
	PreActivityStress float64   `json:"pre_activity_stress"`
	PeakPostStress    float64   `json:"peak_post_stress"`
	StressLoad2h      float64   `json:"stress_load_2h"`
	RecoveryMinutes   *int      `json:"recovery_minutes,omitempty"` // nil when never recovered
}

// StressResult is the output of StressAnalyzer.Analyze
type StressResult struct {
	PeriodStart        time.Time             `json:"period_start"`
	PeriodEnd          time.Time             `json:"period_end"`
	AvgStress          MetricSummary         `json:"avg_stress"`
	LowPercent         float64               `json:"low_percent"`
	MediumPercent      float64               `json:"medium_percent"`
	HighPercent        float64               `json:"high_percent"`
	PeakStressHour     *int                  `json:"peak_stress_hour,omitempty"`
	LowestStressHour   *int                  `json:"lowest_stress_hour,omitempty"`
	Load               StressLoad            `json:"load"`
	HourlyPatterns     []HourlyStressPattern `json:"hourly_patterns"`
	WeekdayAverages    []WeekdayStress       `json:"weekday_averages"` // Monday first
	PostActivity       []PostActivityStress  `json:"post_activity,omitempty"`
	AvgRecoveryMinutes *float64              `json:"avg_recovery_minutes,omitempty"`
	RecoveryEfficiency *float64              `json:"recovery_efficiency,omitempty"`
	PersonalBaseline   float64               `json:"personal_baseline"`
	DailyAvgStress     []DailyValue          `json:"daily_avg_stress,omitempty"`
	Insights           []Insight             `json:"insights"`
}

// RecoveryResult is the output of RecoveryAnalyzer.Analyze
type RecoveryResult struct {
	PeriodStart      time.Time      `json:"period_start"`
	PeriodEnd        time.Time      `json:"period_end"`
	RecoveryScore    int            `json:"recovery_score"`
	Trend            TrendDirection `json:"trend"`
	RHR              MetricSummary  `json:"rhr"`
	BodyBattery      MetricSummary  `json:"body_battery"`
	TrainingLoad     MetricSummary  `json:"training_load"`
	RHRBaseline      float64        `json:"rhr_baseline"`
	RHRDeviation     float64        `json:"rhr_deviation"`
	WeeklyTSS        float64        `json:"weekly_tss"`
	ACWR             *float64       `json:"acwr,omitempty"`
	ACWRZone         string         `json:"acwr_zone,omitempty"`
	DaysAnalyzed     int            `json:"days_analyzed"`
	HighRecoveryDays int            `json:"high_recovery_days"`
	LowRecoveryDays  int            `json:"low_recovery_days"`
	Insights         []Insight      `json:"insights"`
}

// DailyReadiness is the output of RecoveryAnalyzer.DailyReadiness
type DailyReadiness struct {
	Date                 time.Time `json:"date"`
	RecoveryScore        int       `json:"recovery_score"`
	ReadinessScore       int       `json:"readiness_score"`
	RHRFactor            float64   `json:"rhr_factor"`
	BodyBatteryFactor    float64   `json:"body_battery_factor"`
	SleepFactor          float64   `json:"sleep_factor"`
	StressFactor         float64   `json:"stress_factor"`
	ActivityFactor       float64   `json:"activity_factor"`
	RecommendedIntensity string    `json:"recommended_intensity"`
	BodyBatteryMorning   *int      `json:"body_battery_morning,omitempty"`
}

// TrainingStress holds the TSB model for a period
type TrainingStress struct {
	ATL             float64  `json:"atl"`
	CTL             float64  `json:"ctl"`
	TSB             float64  `json:"tsb"`
	Monotony        *float64 `json:"monotony,omitempty"`
	Strain          float64  `json:"strain"`
	ConfidenceScore float64  `json:"confidence_score"`
	Form            string   `json:"form"`
}

// SportSummary aggregates the activities of one sport
type SportSummary struct {
	Name               string   `json:"name"`
	Count              int      `json:"count"`
	TotalDistanceKm    float64  `json:"total_distance_km"`
	TotalDurationHours float64  `json:"total_duration_hours"`
	AvgSpeedKmh        *float64 `json:"avg_speed_kmh,omitempty"`
	AvgHR              *float64 `json:"avg_hr,omitempty"`
	MaxTrainingEffect  float64  `json:"max_training_effect"`
	EfficiencyIndex    *float64 `json:"efficiency_index,omitempty"`
}

// IntensityShare is the share of activities in one intensity band
type IntensityShare struct {
	Band    string  `json:"band"`
	Percent float64 `json:"percent"`
}

// IntensityDistribution lists every band in order
type IntensityDistribution []IntensityShare

// Percent returns the share of the named band, 0 if absent
func (d IntensityDistribution) Percent(band string) float64 {
	for _, s := range d {
		if s.Band == band {
			return s.Percent
		}
	}
	return 0
}

// ActivityResult is the output of ActivityAnalyzer.Analyze
type ActivityResult struct {
	PeriodStart           time.Time             `json:"period_start"`
	PeriodEnd             time.Time             `json:"period_end"`
	TotalActivities       int                   `json:"total_activities"`
	TotalDurationHours    float64               `json:"total_duration_hours"`
	TotalDistanceKm       float64               `json:"total_distance_km"`
	TotalCalories         int                   `json:"total_calories"`
	ActivitiesBySport     map[string]int        `json:"activities_by_sport,omitempty"`
	TrainingStress        *TrainingStress       `json:"training_stress,omitempty"`
	DailyLoads            []DailyValue          `json:"daily_loads,omitempty"`
	FitnessTrend          []FitnessMetrics      `json:"fitness_trend,omitempty"`
	Sports                []SportSummary        `json:"sports,omitempty"`
	AvgAerobicEffect      float64               `json:"avg_aerobic_effect"`
	AvgAnaerobicEffect    float64               `json:"avg_anaerobic_effect"`
	IntensityDistribution IntensityDistribution `json:"intensity_distribution,omitempty"`
	WeeklyVolumeTrend     TrendDirection        `json:"weekly_volume_trend"`
	Insights              []Insight             `json:"insights"`
}

// ReportMetadata describes how a report was produced
type ReportMetadata struct {
	Version   string   `json:"version"`
	Analyzers []string `json:"analyzers"`
}

// HealthReport combines every analyzer's result for one period
type HealthReport struct {
	ID          string          `json:"id"`
	GeneratedAt time.Time       `json:"generated_at"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	Sleep       *SleepResult    `json:"sleep,omitempty"`
	Stress      *StressResult   `json:"stress,omitempty"`
	Recovery    *RecoveryResult `json:"recovery,omitempty"`
	Activity    *ActivityResult `json:"activity,omitempty"`
	KeyInsights []Insight       `json:"key_insights"`
	Metadata    ReportMetadata  `json:"metadata"`
}

// Days returns the number of calendar days covered by the report
func (r *HealthReport) Days() int {
	return daysInclusive(r.PeriodStart, r.PeriodEnd)
}
