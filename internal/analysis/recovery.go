package analysis

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"health-insights/internal/store"
)

// RecoveryConfig holds the windows, weights and thresholds used by RecoveryAnalyzer
type RecoveryConfig struct {
	BaselineDays int // RHR baseline window
	AcuteDays    int // ACWR acute window
	ChronicDays  int // ACWR chronic window

	// Recovery score weights
	RHRWeight         float64
	BodyBatteryWeight float64
	SleepWeight       float64
	RHRPenaltyPerBeat float64

	DefaultSleepScore  float64
	DefaultBodyBattery float64
	NeutralScore       int

	// ACWR zones
	ACWRUndertrained float64
	ACWROptimalMax   float64
	ACWRCautionMax   float64

	RHRAlertDeviation    float64
	RHRWarningDeviation  float64
	RHRPositiveDeviation float64
	BodyBatteryLow       float64
	BodyBatteryHigh      float64
	HighRecoveryDay      int // overnight charge at or above
	LowRecoveryDay       int // overnight charge below
	TrendMinDays         int
	TrendThreshold       float64 // bpm

	// Daily readiness
	ReadinessRHRRange      float64 // bpm of deviation that zeroes the RHR factor
	FallbackRHRFactor      float64
	FallbackBatteryFactor  float64
	FallbackSleepFactor    float64
	FallbackStressFraction float64
	RecentLoadDays         int
	RecentLoadCap          float64
}

// DefaultRecoveryConfig returns the standard recovery settings
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		BaselineDays: 60,
		AcuteDays:    7,
		ChronicDays:  28,

		RHRWeight:         0.40,
		BodyBatteryWeight: 0.35,
		SleepWeight:       0.25,
		RHRPenaltyPerBeat: 5,

		DefaultSleepScore:  70,
		DefaultBodyBattery: 50,
		NeutralScore:       50,

		ACWRUndertrained: 0.8,
		ACWROptimalMax:   1.3,
		ACWRCautionMax:   1.5,

		RHRAlertDeviation:    10,
		RHRWarningDeviation:  5,
		RHRPositiveDeviation: -3,
		BodyBatteryLow:       30,
		BodyBatteryHigh:      80,
		HighRecoveryDay:      80,
		LowRecoveryDay:       50,
		TrendMinDays:         7,
		TrendThreshold:       2,

		ReadinessRHRRange:      20,
		FallbackRHRFactor:      0.5,
		FallbackBatteryFactor:  0.5,
		FallbackSleepFactor:    0.7,
		FallbackStressFraction: 0.3,
		RecentLoadDays:         3,
		RecentLoadCap:          300,
	}
}

// Recommended training intensities
const (
	IntensityIntense  = "intense"
	IntensityModerate = "moderate"
	IntensityLight    = "light"
	IntensityRest     = "rest"
)

// ACWR zones
const (
	ACWRZoneUndertrained = "undertrained"
	ACWRZoneOptimal      = "optimal"
	ACWRZoneCaution      = "caution"
	ACWRZoneHighRisk     = "high risk"
)

// RecoveryAnalyzer scores recovery from resting heart rate, body battery,
// sleep and training load
type RecoveryAnalyzer struct {
	repo store.Repository
	cfg  RecoveryConfig
}

// NewRecoveryAnalyzer creates a recovery analyzer
func NewRecoveryAnalyzer(repo store.Repository, cfg RecoveryConfig) *RecoveryAnalyzer {
	return &RecoveryAnalyzer{repo: repo, cfg: cfg}
}

// Analyze runs the recovery analysis for the inclusive period
func (a *RecoveryAnalyzer) Analyze(ctx context.Context, start, end time.Time) (*RecoveryResult, error) {
	start, end = store.Day(start), store.Day(end)
	dataStart := start.AddDate(0, 0, -max(a.cfg.BaselineDays, a.cfg.ChronicDays))

	daily, err := a.repo.GetDailySummaries(ctx, dataStart, end)
	if err != nil {
		return nil, fmt.Errorf("loading daily summaries: %w", err)
	}
	activities, err := a.repo.GetActivities(ctx, dataStart, end, "")
	if err != nil {
		return nil, fmt.Errorf("loading activities: %w", err)
	}
	sleep, err := a.repo.GetSleepData(ctx, dataStart, end)
	if err != nil {
		return nil, fmt.Errorf("loading sleep data: %w", err)
	}

	var period []store.DailySummaryRecord
	for _, d := range daily {
		if store.InRange(d.Date, start, end) {
			period = append(period, d)
		}
	}

	baseline := a.RHRBaseline(daily, end)

	var rhrValues, bbValues []float64
	var highDays, lowDays int
	for _, d := range period {
		if positiveInt(d.RestingHR) {
			rhrValues = append(rhrValues, float64(*d.RestingHR))
		}
		if positiveInt(d.BBCharged) {
			bbValues = append(bbValues, float64(*d.BBCharged))
			if *d.BBCharged >= a.cfg.HighRecoveryDay {
				highDays++
			}
			if *d.BBCharged < a.cfg.LowRecoveryDay {
				lowDays++
			}
		}
	}
	hasRHR := len(rhrValues) > 0
	rhrCurrent := mean(rhrValues)

	var deviation float64
	if hasRHR && baseline != 0 {
		deviation = rhrCurrent - baseline
	}

	bbAvg := a.cfg.DefaultBodyBattery
	if len(bbValues) > 0 {
		bbAvg = mean(bbValues)
	}

	var weeklyTSS float64
	for _, act := range activities {
		if act.TrainingLoad != nil && store.InRange(act.StartTime, start, end) {
			weeklyTSS += *act.TrainingLoad
		}
	}

	var sleepScores []float64
	for _, s := range sleep {
		if positiveInt(s.SleepScore) && store.InRange(s.Date, start, end) {
			sleepScores = append(sleepScores, float64(*s.SleepScore))
		}
	}

	score := a.cfg.NeutralScore
	if hasRHR || len(bbValues) > 0 || len(sleepScores) > 0 {
		score = a.RecoveryScore(deviation, int(bbAvg), meanPtr(sleepScores), hasRHR)
	}

	acwr := a.ACWR(activities, end)

	rhrSummary := MetricSummary{
		Name:         "Resting Heart Rate",
		CurrentValue: rhrCurrent,
		Unit:         "bpm",
		Average7d:    avgLastNDays(daily, 7, restingHR),
		Average30d:   avgLastNDays(daily, 30, restingHR),
		Trend:        TrendStable,
	}
	rhrSummary.Min, rhrSummary.Max = minMax(rhrValues)
	if hasRHR {
		rhrSummary.Trend = a.rhrTrend(deviation)
	}

	bbSummary := MetricSummary{
		Name:         "Body Battery Recharge",
		CurrentValue: bbAvg,
		Unit:         "%",
		Average7d:    avgLastNDays(daily, 7, bodyBatteryCharged),
		Average30d:   avgLastNDays(daily, 30, bodyBatteryCharged),
		Trend:        TrendStable,
	}
	bbSummary.Min, bbSummary.Max = minMax(bbValues)

	tssSummary := MetricSummary{
		Name:         "Training Load",
		CurrentValue: weeklyTSS,
		Unit:         "TSS",
		Average7d:    ptr(weeklyTSS),
		Trend:        TrendStable,
	}

	result := &RecoveryResult{
		PeriodStart:      start,
		PeriodEnd:        end,
		RecoveryScore:    score,
		Trend:            a.trend(period),
		RHR:              rhrSummary,
		BodyBattery:      bbSummary,
		TrainingLoad:     tssSummary,
		RHRBaseline:      baseline,
		RHRDeviation:     deviation,
		WeeklyTSS:        weeklyTSS,
		ACWR:             acwr,
		DaysAnalyzed:     len(period),
		HighRecoveryDays: highDays,
		LowRecoveryDays:  lowDays,
	}
	if acwr != nil {
		result.ACWRZone = a.ACWRZone(*acwr)
	}

	result.Insights = applyRules(recoveryState{
		deviation: deviation,
		baseline:  baseline,
		bbAvg:     bbAvg,
		acwr:      acwr,
		hasRHR:    hasRHR,
		cfg:       a.cfg,
	}, recoveryRules)

	roundSummary(&result.RHR, 1)
	roundSummary(&result.BodyBattery, 1)
	roundSummary(&result.TrainingLoad, 1)
	result.RHRBaseline = round(result.RHRBaseline, 1)
	result.RHRDeviation = round(result.RHRDeviation, 1)
	result.WeeklyTSS = round(result.WeeklyTSS, 1)

	return result, nil
}

// DailyReadiness scores readiness to train on a single day
func (a *RecoveryAnalyzer) DailyReadiness(ctx context.Context, day time.Time) (*DailyReadiness, error) {
	day = store.Day(day)

	daily, err := a.repo.GetDailySummaries(ctx, day.AddDate(0, 0, -a.cfg.BaselineDays), day)
	if err != nil {
		return nil, fmt.Errorf("loading daily summaries: %w", err)
	}
	sleep, err := a.repo.GetSleepData(ctx, day.AddDate(0, 0, -1), day)
	if err != nil {
		return nil, fmt.Errorf("loading sleep data: %w", err)
	}
	activities, err := a.repo.GetActivities(ctx, day.AddDate(0, 0, -a.cfg.ChronicDays), day, "")
	if err != nil {
		return nil, fmt.Errorf("loading activities: %w", err)
	}

	var today *store.DailySummaryRecord
	for i := range daily {
		if store.Day(daily[i].Date).Equal(day) {
			today = &daily[i]
			break
		}
	}
	var lastNight *store.SleepRecord
	for i := range sleep {
		if store.Day(sleep[i].Date).Equal(day) {
			lastNight = &sleep[i]
			break
		}
	}

	baseline := a.RHRBaseline(daily, day)
	rhrFactor := a.cfg.FallbackRHRFactor
	if today != nil && baseline != 0 && positiveInt(today.RestingHR) {
		deviation := float64(*today.RestingHR) - baseline
		rhrFactor = clamp(1-math.Abs(deviation)/a.cfg.ReadinessRHRRange, 0, 1)
	}

	bbFactor := a.cfg.FallbackBatteryFactor
	switch {
	case today != nil && positiveInt(today.BBCharged):
		bbFactor = float64(*today.BBCharged) / 100
	case today != nil && positiveInt(today.BBMax):
		bbFactor = float64(*today.BBMax) / 100
	}

	sleepFactor := a.cfg.FallbackSleepFactor
	if lastNight != nil && positiveInt(lastNight.SleepScore) {
		sleepFactor = float64(*lastNight.SleepScore) / 100
	}

	recentFrom := day.AddDate(0, 0, -a.cfg.RecentLoadDays)
	var recentLoad float64
	for _, act := range activities {
		if positiveFloat(act.TrainingLoad) && !store.Day(act.StartTime).Before(recentFrom) {
			recentLoad += *act.TrainingLoad
		}
	}
	activityFactor := clamp(1-recentLoad/a.cfg.RecentLoadCap, 0, 1)

	stressFraction := a.cfg.FallbackStressFraction
	if today != nil && positiveInt(today.StressAvg) {
		stressFraction = float64(*today.StressAvg) / 100
	}

	recovery := int((rhrFactor*0.3 + bbFactor*0.4 + sleepFactor*0.3) * 100)
	readiness := int(float64(recovery)*0.6 + activityFactor*100*0.4)

	result := &DailyReadiness{
		Date:                 day,
		RecoveryScore:        recovery,
		ReadinessScore:       readiness,
		RHRFactor:            round(rhrFactor, 2),
		BodyBatteryFactor:    round(bbFactor, 2),
		SleepFactor:          round(sleepFactor, 2),
		StressFactor:         round(1-stressFraction, 2),
		ActivityFactor:       round(activityFactor, 2),
		RecommendedIntensity: RecommendedIntensity(readiness),
	}
	if today != nil {
		result.BodyBatteryMorning = today.BBMax
	}
	return result, nil
}

// RecommendedIntensity maps a readiness score to a training intensity
func RecommendedIntensity(readiness int) string {
	switch {
	case readiness >= 80:
		return IntensityIntense
	case readiness >= 60:
		return IntensityModerate
	case readiness >= 40:
		return IntensityLight
	default:
		return IntensityRest
	}
}

// RHRBaseline averages the lowest quarter of resting heart rates in the
// BaselineDays before end. Returns 0 without samples.
func (a *RecoveryAnalyzer) RHRBaseline(daily []store.DailySummaryRecord, end time.Time) float64 {
	from := store.Day(end).AddDate(0, 0, -a.cfg.BaselineDays)

	var values []float64
	for _, d := range daily {
		if positiveInt(d.RestingHR) && store.InRange(d.Date, from, end) {
			values = append(values, float64(*d.RestingHR))
		}
	}
	if len(values) == 0 {
		return 0
	}

	slices.Sort(values)
	n := max(1, len(values)/4)
	return mean(values[:n])
}

// RecoveryScore blends the RHR, body battery and sleep components into a
// 0-100 score. Without RHR data the remaining two weights are renormalized.
func (a *RecoveryAnalyzer) RecoveryScore(rhrDeviation float64, bbCharged int, sleepScore *float64, hasRHR bool) int {
	bbComponent := clamp(float64(bbCharged), 0, 100)

	sleepComponent := a.cfg.DefaultSleepScore
	if sleepScore != nil && *sleepScore != 0 {
		sleepComponent = *sleepScore
	}

	var score float64
	if hasRHR {
		rhrComponent := clamp(100-math.Abs(rhrDeviation)*a.cfg.RHRPenaltyPerBeat, 0, 100)
		score = rhrComponent*a.cfg.RHRWeight +
			bbComponent*a.cfg.BodyBatteryWeight +
			sleepComponent*a.cfg.SleepWeight
	} else {
		total := a.cfg.BodyBatteryWeight + a.cfg.SleepWeight
		score = bbComponent*(a.cfg.BodyBatteryWeight/total) +
			sleepComponent*(a.cfg.SleepWeight/total)
	}

	return int(clamp(score, 0, 100))
}

// ACWR returns the acute:chronic workload ratio at end, rounded to two
// decimals. It is nil without load in the chronic window.
func (a *RecoveryAnalyzer) ACWR(activities []store.ActivityRecord, end time.Time) *float64 {
	acuteFrom := store.Day(end).AddDate(0, 0, -a.cfg.AcuteDays)
	chronicFrom := store.Day(end).AddDate(0, 0, -a.cfg.ChronicDays)

	var acute, chronic float64
	var chronicCount int
	for _, act := range activities {
		if !positiveFloat(act.TrainingLoad) {
			continue
		}
		if store.InRange(act.StartTime, acuteFrom, end) {
			acute += *act.TrainingLoad
		}
		if store.InRange(act.StartTime, chronicFrom, end) {
			chronic += *act.TrainingLoad
			chronicCount++
		}
	}
	if chronicCount == 0 {
		return nil
	}

	atl := acute / float64(a.cfg.AcuteDays)
	ctl := chronic / float64(a.cfg.ChronicDays)
	if ctl == 0 {
		return nil
	}
	return ptr(round(atl/ctl, 2))
}

// ACWRZone names the injury-risk zone of a workload ratio
func (a *RecoveryAnalyzer) ACWRZone(acwr float64) string {
	switch {
	case acwr > a.cfg.ACWRCautionMax:
		return ACWRZoneHighRisk
	case acwr > a.cfg.ACWROptimalMax:
		return ACWRZoneCaution
	case acwr < a.cfg.ACWRUndertrained:
		return ACWRZoneUndertrained
	default:
		return ACWRZoneOptimal
	}
}

// trend compares mean RHR in the first and second half of the period.
// A falling RHR is improving.
func (a *RecoveryAnalyzer) trend(period []store.DailySummaryRecord) TrendDirection {
	if len(period) < a.cfg.TrendMinDays {
		return TrendStable
	}

	mid := len(period) / 2
	first := restingValues(period[:mid])
	second := restingValues(period[mid:])
	if len(first) == 0 || len(second) == 0 {
		return TrendStable
	}

	avgFirst, avgSecond := mean(first), mean(second)
	switch {
	case avgSecond < avgFirst-a.cfg.TrendThreshold:
		return TrendImproving
	case avgSecond > avgFirst+a.cfg.TrendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func (a *RecoveryAnalyzer) rhrTrend(deviation float64) TrendDirection {
	switch {
	case deviation < -a.cfg.TrendThreshold:
		return TrendImproving
	case deviation > a.cfg.TrendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func restingValues(days []store.DailySummaryRecord) []float64 {
	var out []float64
	for _, d := range days {
		if positiveInt(d.RestingHR) {
			out = append(out, float64(*d.RestingHR))
		}
	}
	return out
}

func restingHR(d store.DailySummaryRecord) *int          { return d.RestingHR }
func bodyBatteryCharged(d store.DailySummaryRecord) *int { return d.BBCharged }

// avgLastNDays averages the non-nil field over the n most recent summaries
func avgLastNDays(daily []store.DailySummaryRecord, n int, field func(store.DailySummaryRecord) *int) *float64 {
	if len(daily) == 0 {
		return nil
	}

	recent := slices.Clone(daily)
	slices.SortStableFunc(recent, func(x, y store.DailySummaryRecord) int {
		return y.Date.Compare(x.Date)
	})
	if len(recent) > n {
		recent = recent[:n]
	}

	var values []float64
	for _, d := range recent {
		if v := field(d); v != nil {
			values = append(values, float64(*v))
		}
	}
	return meanPtr(values)
}

type recoveryState struct {
	deviation float64
	baseline  float64
	bbAvg     float64
	acwr      *float64
	hasRHR    bool
	cfg       RecoveryConfig
}

var recoveryRules = []rule[recoveryState]{
	rhrDeviationRule,
	bodyBatteryRule,
	acwrRule,
}

func rhrDeviationRule(s recoveryState) (Insight, bool) {
	if !s.hasRHR {
		return Insight{}, false
	}
	switch {
	case s.deviation > s.cfg.RHRAlertDeviation:
		return Insight{
			Title: "Significantly Elevated RHR",
			Description: fmt.Sprintf("Your resting heart rate is %.0f bpm above your baseline of %.0f bpm. "+
				"This suggests incomplete recovery.", s.deviation, s.baseline),
			Severity: SeverityAlert,
			Category: CategoryRecovery,
			DataPoints: map[string]float64{
				"rhr_deviation": s.deviation,
				"rhr_baseline":  s.baseline,
			},
			Recommendations: []string{
				"Consider taking a rest day",
				"Prioritize sleep quality",
				"Check for signs of illness or overtraining",
			},
		}, true
	case s.deviation > s.cfg.RHRWarningDeviation:
		return Insight{
			Title:       "Elevated RHR",
			Description: fmt.Sprintf("Your RHR is %.0f bpm above baseline. Monitor your recovery carefully.", s.deviation),
			Severity:    SeverityWarning,
			Category:    CategoryRecovery,
			DataPoints:  map[string]float64{"rhr_deviation": s.deviation},
			Recommendations: []string{
				"Consider reducing training intensity",
				"Ensure adequate sleep",
			},
		}, true
	case s.deviation < s.cfg.RHRPositiveDeviation:
		return Insight{
			Title:       "Excellent RHR Recovery",
			Description: fmt.Sprintf("Your RHR is %.0f bpm below baseline. You're well recovered!", math.Abs(s.deviation)),
			Severity:    SeverityPositive,
			Category:    CategoryRecovery,
		}, true
	}
	return Insight{}, false
}

func bodyBatteryRule(s recoveryState) (Insight, bool) {
	switch {
	case s.bbAvg < s.cfg.BodyBatteryLow:
		return Insight{
			Title: "Low Overnight Recharge",
			Description: fmt.Sprintf("Average overnight recharge is only %.0f%%. "+
				"Your body isn't recovering fully during sleep.", s.bbAvg),
			Severity:   SeverityWarning,
			Category:   CategoryRecovery,
			DataPoints: map[string]float64{"bb_charged_avg": s.bbAvg},
			Recommendations: []string{
				"Improve sleep hygiene",
				"Reduce evening stress",
				"Avoid late workouts",
			},
		}, true
	case s.bbAvg >= s.cfg.BodyBatteryHigh:
		return Insight{
			Title:       "Excellent Recovery",
			Description: fmt.Sprintf("Average overnight recharge of %.0f%% indicates great recovery capacity.", s.bbAvg),
			Severity:    SeverityPositive,
			Category:    CategoryRecovery,
		}, true
	}
	return Insight{}, false
}

// acwrRule reports every zone except optimal
func acwrRule(s recoveryState) (Insight, bool) {
	if s.acwr == nil {
		return Insight{}, false
	}
	acwr := *s.acwr
	switch {
	case acwr > s.cfg.ACWRCautionMax:
		return Insight{
			Title: "High Injury Risk",
			Description: fmt.Sprintf("Your ACWR of %.2f indicates rapid training load increase. "+
				"This is associated with higher injury risk.", acwr),
			Severity:   SeverityAlert,
			Category:   CategoryRecovery,
			DataPoints: map[string]float64{"acwr": acwr},
			Recommendations: []string{
				"Reduce training volume by 20-30%",
				"Focus on recovery activities",
				"Gradual load progression (10% rule)",
			},
		}, true
	case acwr > s.cfg.ACWROptimalMax:
		return Insight{
			Title:       "Training Load Caution",
			Description: fmt.Sprintf("ACWR of %.2f is elevated. Be mindful of recovery between sessions.", acwr),
			Severity:    SeverityWarning,
			Category:    CategoryRecovery,
			DataPoints:  map[string]float64{"acwr": acwr},
		}, true
	case acwr < s.cfg.ACWRUndertrained:
		return Insight{
			Title:       "Training Load Below Optimal",
			Description: fmt.Sprintf("ACWR of %.2f suggests training load may be too low for optimal adaptation.", acwr),
			Severity:    SeverityInfo,
			Category:    CategoryRecovery,
			DataPoints:  map[string]float64{"acwr": acwr},
			Recommendations: []string{
				"Gradually increase training volume",
				"Add intensity or duration progressively",
			},
		}, true
	}
	return Insight{}, false
}
