package analysis

import (
	"context"
	"fmt"
	"slices"
	"time"

	"health-insights/internal/store"
)

// StressConfig holds the windows and thresholds used by StressAnalyzer
type StressConfig struct {
	BaselineDays       int     // rolling window for the personal baseline
	BaselinePercentile float64 // nearest-rank percentile of resting readings
	BaselineStartHour  int     // resting hours are [start, end)
	BaselineEndHour    int
	BaselineMinSamples int
	DefaultBaseline    float64 // used when there are too few resting readings

	LowMax         int // readings <= LowMax are low stress
	MediumMax      int // readings <= MediumMax are medium, above are high
	TrendThreshold float64

	GapCap            time.Duration // longest gap credited to a single reading
	PreActivityWindow time.Duration
	RecoveryWindow    time.Duration
	RecoveryBuffer    float64 // recovered once stress <= baseline + buffer

	HighDailyLoad       float64
	PoorEfficiency      float64
	ExcellentEfficiency float64
	OccupationalRatio   float64 // weekday mean / weekend mean
	WorkStartHour       int     // inclusive
	WorkEndHour         int     // inclusive
	SlowRecoveryMinutes float64
}

// DefaultStressConfig returns the standard stress thresholds
func DefaultStressConfig() StressConfig {
	return StressConfig{
		BaselineDays:       14,
		BaselinePercentile: 25,
		BaselineStartHour:  0,
		BaselineEndHour:    6,
		BaselineMinSamples: 10,
		DefaultBaseline:    25.0,

		LowMax:         store.StressLowMax,
		MediumMax:      store.StressMediumMax,
		TrendThreshold: 3,

		GapCap:            15 * time.Minute,
		PreActivityWindow: 30 * time.Minute,
		RecoveryWindow:    2 * time.Hour,
		RecoveryBuffer:    5,

		HighDailyLoad:       500,
		PoorEfficiency:      50,
		ExcellentEfficiency: 80,
		OccupationalRatio:   1.45,
		WorkStartHour:       9,
		WorkEndHour:         17,
		SlowRecoveryMinutes: 90,
	}
}

// trailingSampleMinutes is the duration credited to the last reading of a window
const trailingSampleMinutes = 1.0

// StressAnalyzer computes stress load, daily patterns and post-activity recovery
type StressAnalyzer struct {
	repo store.Repository
	cfg  StressConfig
}

// NewStressAnalyzer creates a stress analyzer
func NewStressAnalyzer(repo store.Repository, cfg StressConfig) *StressAnalyzer {
	return &StressAnalyzer{repo: repo, cfg: cfg}
}

// Analyze runs the stress analysis for the inclusive period. Stress data is
// loaded from BaselineDays before start so the baseline has history.
func (a *StressAnalyzer) Analyze(ctx context.Context, start, end time.Time) (*StressResult, error) {
	start, end = store.Day(start), store.Day(end)

	records, err := a.repo.GetStressData(ctx, start.AddDate(0, 0, -a.cfg.BaselineDays), end)
	if err != nil {
		return nil, fmt.Errorf("loading stress data: %w", err)
	}
	activities, err := a.repo.GetActivities(ctx, start, end, "")
	if err != nil {
		return nil, fmt.Errorf("loading activities: %w", err)
	}

	var period []store.StressRecord
	for _, r := range records {
		if store.InRange(r.Timestamp, start, end) {
			period = append(period, r)
		}
	}

	baseline := a.PersonalBaseline(records, end)
	result := &StressResult{
		PeriodStart:      start,
		PeriodEnd:        end,
		PersonalBaseline: baseline,
	}

	valid := validLevels(period)
	result.LowPercent, result.MediumPercent, result.HighPercent = a.distribution(valid)
	result.AvgStress = a.averageSummary(period, valid, end)

	result.Load = a.CalculateStressLoad(period, start, endOfDay(end))
	result.HourlyPatterns = a.hourlyPatterns(period)
	result.WeekdayAverages = weekdayAverages(period)
	result.PeakStressHour, result.LowestStressHour = peakAndLowestHour(result.HourlyPatterns)

	result.PostActivity = a.postActivityRecovery(activities, records, baseline)
	result.RecoveryEfficiency = a.RecoveryEfficiency(result.PostActivity)

	var recoveryTimes []float64
	for _, p := range result.PostActivity {
		if p.RecoveryMinutes != nil {
			recoveryTimes = append(recoveryTimes, float64(*p.RecoveryMinutes))
		}
	}
	result.AvgRecoveryMinutes = meanPtr(recoveryTimes)

	eachDay(start, end, func(day time.Time) {
		var levels []float64
		for _, r := range period {
			if r.Valid() && store.Day(r.Timestamp).Equal(day) {
				levels = append(levels, float64(r.StressLevel))
			}
		}
		if len(levels) > 0 {
			result.DailyAvgStress = append(result.DailyAvgStress, DailyValue{Date: day, Value: round(mean(levels), 1)})
		}
	})

	result.Insights = applyRules(stressState{
		result: result,
		days:   daysInclusive(start, end),
		cfg:    a.cfg,
	}, stressRules)

	result.AvgRecoveryMinutes = roundPtr(result.AvgRecoveryMinutes, 1)

	return result, nil
}

// PersonalBaseline returns the nearest-rank percentile of valid readings
// taken during resting hours in the BaselineDays before end. With fewer than
// BaselineMinSamples readings it returns DefaultBaseline.
func (a *StressAnalyzer) PersonalBaseline(records []store.StressRecord, end time.Time) float64 {
	from := store.Day(end).AddDate(0, 0, -a.cfg.BaselineDays)

	var resting []float64
	for _, r := range records {
		hour := r.Timestamp.Hour()
		if !r.Valid() || !store.InRange(r.Timestamp, from, end) {
			continue
		}
		if hour < a.cfg.BaselineStartHour || hour >= a.cfg.BaselineEndHour {
			continue
		}
		resting = append(resting, float64(r.StressLevel))
	}

	if len(resting) < a.cfg.BaselineMinSamples {
		return a.cfg.DefaultBaseline
	}

	slices.Sort(resting)
	return nearestRank(resting, a.cfg.BaselinePercentile)
}

// CalculateStressLoad integrates valid readings in [from, to] over time.
// Each reading lasts until the next one, capped at GapCap; the last reading
// lasts one minute. Load is the level-minute sum divided by 60.
func (a *StressAnalyzer) CalculateStressLoad(records []store.StressRecord, from, to time.Time) StressLoad {
	var valid []store.StressRecord
	for _, r := range records {
		if r.Valid() && !r.Timestamp.Before(from) && !r.Timestamp.After(to) {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return StressLoad{}
	}

	slices.SortStableFunc(valid, func(x, y store.StressRecord) int {
		return x.Timestamp.Compare(y.Timestamp)
	})

	capMinutes := a.cfg.GapCap.Minutes()
	var weighted, minutes float64
	var hours []int
	hourly := make(map[int]float64)

	for i, r := range valid {
		duration := trailingSampleMinutes
		if i < len(valid)-1 {
			duration = min(valid[i+1].Timestamp.Sub(r.Timestamp).Minutes(), capMinutes)
		}

		contribution := float64(r.StressLevel) * duration
		weighted += contribution
		minutes += duration

		hour := r.Timestamp.Hour()
		if _, seen := hourly[hour]; !seen {
			hours = append(hours, hour)
		}
		hourly[hour] += contribution
	}

	var intensity float64
	if minutes > 0 {
		intensity = weighted / minutes
	}

	peak := hours[0]
	for _, h := range hours[1:] {
		if hourly[h] > hourly[peak] {
			peak = h
		}
	}

	return StressLoad{
		PeriodMinutes: int(minutes),
		TotalLoad:     round(weighted/60, 1),
		AvgIntensity:  round(intensity, 1),
		PeakLoadHour:  &peak,
	}
}

// RecoveryEfficiency scores how quickly stress returned to baseline after
// activities, 0-100. Activities that never recovered count as the full
// recovery window. Returns nil without patterns.
func (a *StressAnalyzer) RecoveryEfficiency(patterns []PostActivityStress) *float64 {
	if len(patterns) == 0 {
		return nil
	}

	window := a.cfg.RecoveryWindow.Minutes()
	times := make([]float64, len(patterns))
	for i, p := range patterns {
		times[i] = window
		if p.RecoveryMinutes != nil {
			times[i] = float64(*p.RecoveryMinutes)
		}
	}

	efficiency := 100 - mean(times)/window*100
	return ptr(round(clamp(efficiency, 0, 100), 1))
}

func (a *StressAnalyzer) distribution(levels []float64) (low, medium, high float64) {
	if len(levels) == 0 {
		return 0, 0, 0
	}
	var l, m, h int
	for _, v := range levels {
		switch {
		case v <= float64(a.cfg.LowMax):
			l++
		case v <= float64(a.cfg.MediumMax):
			m++
		default:
			h++
		}
	}
	total := float64(len(levels))
	return round(float64(l)/total*100, 1), round(float64(m)/total*100, 1), round(float64(h)/total*100, 1)
}

// averageSummary compares the last 7 days with the last 30 days of the
// period. Higher recent stress is a declining trend.
func (a *StressAnalyzer) averageSummary(period []store.StressRecord, valid []float64, end time.Time) MetricSummary {
	var recent7, recent30 []float64
	for _, r := range period {
		if !r.Valid() {
			continue
		}
		day := store.Day(r.Timestamp)
		if day.After(end.AddDate(0, 0, -7)) {
			recent7 = append(recent7, float64(r.StressLevel))
		}
		if day.After(end.AddDate(0, 0, -30)) {
			recent30 = append(recent30, float64(r.StressLevel))
		}
	}
	avg7, avg30 := meanPtr(recent7), meanPtr(recent30)

	trend := TrendStable
	if avg7 != nil && avg30 != nil {
		diff := *avg7 - *avg30
		switch {
		case diff > a.cfg.TrendThreshold:
			trend = TrendDeclining
		case diff < -a.cfg.TrendThreshold:
			trend = TrendImproving
		}
	}

	lo, hi := minMax(valid)
	return MetricSummary{
		Name:         "Average Stress",
		CurrentValue: round(mean(valid), 1),
		Average7d:    roundPtr(avg7, 1),
		Average30d:   roundPtr(avg30, 1),
		Min:          lo,
		Max:          hi,
		Trend:        trend,
	}
}

// hourlyPatterns always returns 24 entries, one per hour of the day
func (a *StressAnalyzer) hourlyPatterns(records []store.StressRecord) []HourlyStressPattern {
	var byHour [24][]float64
	for _, r := range records {
		if r.Valid() {
			h := r.Timestamp.Hour()
			byHour[h] = append(byHour[h], float64(r.StressLevel))
		}
	}

	patterns := make([]HourlyStressPattern, 24)
	for hour, levels := range byHour {
		patterns[hour] = HourlyStressPattern{Hour: hour}
		if len(levels) == 0 {
			continue
		}
		low, medium, high := a.distribution(levels)
		patterns[hour].AvgStress = round(mean(levels), 1)
		patterns[hour].SampleCount = len(levels)
		patterns[hour].Distribution = map[string]float64{
			"low":    low,
			"medium": medium,
			"high":   high,
		}
	}
	return patterns
}

var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// weekdayAverages returns all seven weekdays, Monday first, 0 without data
func weekdayAverages(records []store.StressRecord) []WeekdayStress {
	byDay := make(map[time.Weekday][]float64)
	for _, r := range records {
		if r.Valid() {
			wd := r.Timestamp.Weekday()
			byDay[wd] = append(byDay[wd], float64(r.StressLevel))
		}
	}

	out := make([]WeekdayStress, 0, len(weekdayOrder))
	for _, wd := range weekdayOrder {
		out = append(out, WeekdayStress{Day: wd, AvgStress: round(mean(byDay[wd]), 1)})
	}
	return out
}

// peakAndLowestHour picks the hours with the highest and lowest average
// among hours that have readings. The earliest hour wins ties.
func peakAndLowestHour(patterns []HourlyStressPattern) (*int, *int) {
	var peak, lowest *HourlyStressPattern
	for i := range patterns {
		p := &patterns[i]
		if p.SampleCount == 0 {
			continue
		}
		if peak == nil || p.AvgStress > peak.AvgStress {
			peak = p
		}
		if lowest == nil || p.AvgStress < lowest.AvgStress {
			lowest = p
		}
	}
	if peak == nil {
		return nil, nil
	}
	return ptr(peak.Hour), ptr(lowest.Hour)
}

// postActivityRecovery measures how long stress takes to fall back to
// baseline + RecoveryBuffer after each activity ends
func (a *StressAnalyzer) postActivityRecovery(activities []store.ActivityRecord, records []store.StressRecord, baseline float64) []PostActivityStress {
	if len(activities) == 0 || len(records) == 0 {
		return nil
	}

	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(x, y store.StressRecord) int {
		return x.Timestamp.Compare(y.Timestamp)
	})
	target := baseline + a.cfg.RecoveryBuffer

	var patterns []PostActivityStress
	for _, act := range activities {
		end := act.EndTime()
		preStart := end.Add(-a.cfg.PreActivityWindow)
		postEnd := end.Add(a.cfg.RecoveryWindow)

		var pre []float64
		var post []store.StressRecord
		for _, r := range sorted {
			if !r.Valid() {
				continue
			}
			ts := r.Timestamp
			if !ts.Before(preStart) && ts.Before(end) {
				pre = append(pre, float64(r.StressLevel))
			}
			if !ts.Before(end) && !ts.After(postEnd) {
				post = append(post, r)
			}
		}
		if len(post) == 0 {
			continue
		}

		preStress := baseline
		if len(pre) > 0 {
			preStress = mean(pre)
		}

		peak := post[0].StressLevel
		var recovery *int
		for _, r := range post {
			peak = max(peak, r.StressLevel)
			if recovery == nil && float64(r.StressLevel) <= target {
				recovery = ptr(int(r.Timestamp.Sub(end).Minutes()))
			}
		}

		id, sport := act.ID, act.Sport
		if id == "" {
			id = "unknown"
		}
		if sport == "" {
			sport = "unknown"
		}

		patterns = append(patterns, PostActivityStress{
			ActivityID:        id,
			Sport:             sport,
			ActivityEnd:       end,
			PreActivityStress: round(preStress, 1),
			PeakPostStress:    float64(peak),
			StressLoad2h:      a.CalculateStressLoad(post, end, postEnd).TotalLoad,
			RecoveryMinutes:   recovery,
		})
	}
	return patterns
}

func validLevels(records []store.StressRecord) []float64 {
	var levels []float64
	for _, r := range records {
		if r.Valid() {
			levels = append(levels, float64(r.StressLevel))
		}
	}
	return levels
}

// endOfDay returns the last instant of the day
func endOfDay(day time.Time) time.Time {
	return store.Day(day).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

type stressState struct {
	result *StressResult
	days   int
	cfg    StressConfig
}

var stressRules = []rule[stressState]{
	stressLoadRule,
	stressEfficiencyRule,
	occupationalStressRule,
	workHoursPeakRule,
	slowRecoveryRule,
	incompleteRecoveryRule,
}

func stressLoadRule(s stressState) (Insight, bool) {
	load := s.result.Load.TotalLoad
	if load <= 0 {
		return Insight{}, false
	}
	daily := load / float64(s.days)
	if daily <= s.cfg.HighDailyLoad {
		return Insight{}, false
	}
	return Insight{
		Title:       "High Cumulative Stress",
		Description: fmt.Sprintf("Average daily stress load of %.0f points is elevated.", daily),
		Severity:    SeverityWarning,
		Category:    CategoryStress,
		DataPoints:  map[string]float64{"daily_avg_load": daily},
		Recommendations: []string{
			"Schedule regular breaks during high-stress hours",
			"Practice breathing exercises",
			"Consider reducing commitments if possible",
		},
	}, true
}

func stressEfficiencyRule(s stressState) (Insight, bool) {
	if s.result.RecoveryEfficiency == nil {
		return Insight{}, false
	}
	eff := *s.result.RecoveryEfficiency
	switch {
	case eff < s.cfg.PoorEfficiency:
		return Insight{
			Title:       "Poor Stress Recovery",
			Description: fmt.Sprintf("Recovery efficiency of %.0f%% is low.", eff),
			Severity:    SeverityWarning,
			Category:    CategoryStress,
			DataPoints:  map[string]float64{"efficiency": eff},
			Recommendations: []string{
				"Ensure adequate sleep before activities",
				"Consider reducing training intensity",
				"Allow more rest between sessions",
			},
		}, true
	case eff >= s.cfg.ExcellentEfficiency:
		return Insight{
			Title:       "Excellent Stress Resilience",
			Description: fmt.Sprintf("Recovery efficiency: %.0f%%.", eff),
			Severity:    SeverityPositive,
			Category:    CategoryStress,
			DataPoints:  map[string]float64{"efficiency": eff},
		}, true
	}
	return Insight{}, false
}

func occupationalStressRule(s stressState) (Insight, bool) {
	var workdays, weekend []float64
	for _, w := range s.result.WeekdayAverages {
		if w.AvgStress <= 0 {
			continue
		}
		if w.Day == time.Saturday || w.Day == time.Sunday {
			weekend = append(weekend, w.AvgStress)
		} else {
			workdays = append(workdays, w.AvgStress)
		}
	}
	if len(workdays) == 0 || len(weekend) == 0 {
		return Insight{}, false
	}

	workdayAvg, weekendAvg := mean(workdays), mean(weekend)
	if weekendAvg <= 0 || workdayAvg <= weekendAvg*s.cfg.OccupationalRatio {
		return Insight{}, false
	}
	return Insight{
		Title:       "Occupational Stress Detected",
		Description: fmt.Sprintf("Weekday stress (%.0f) > weekend (%.0f).", workdayAvg, weekendAvg),
		Severity:    SeverityInfo,
		Category:    CategoryStress,
		DataPoints: map[string]float64{
			"workday_avg": workdayAvg,
			"weekend_avg": weekendAvg,
		},
		Recommendations: []string{
			"Review work-life balance",
			"Take micro-breaks during work hours",
		},
	}, true
}

func workHoursPeakRule(s stressState) (Insight, bool) {
	if s.result.PeakStressHour == nil {
		return Insight{}, false
	}
	hour := *s.result.PeakStressHour
	if hour < s.cfg.WorkStartHour || hour > s.cfg.WorkEndHour {
		return Insight{}, false
	}
	return Insight{
		Title:       "Work Hours Stress Peak",
		Description: fmt.Sprintf("Peak stress at %02d:00.", hour),
		Severity:    SeverityInfo,
		Category:    CategoryStress,
		DataPoints:  map[string]float64{"peak_hour": float64(hour)},
		Recommendations: []string{
			"Schedule demanding tasks during lower-stress periods",
			"Take a walk during peak stress hours",
		},
	}, true
}

func slowRecoveryRule(s stressState) (Insight, bool) {
	avg := s.result.AvgRecoveryMinutes
	if avg == nil || *avg <= s.cfg.SlowRecoveryMinutes {
		return Insight{}, false
	}
	return Insight{
		Title:       "Slow Autonomic Recovery",
		Description: fmt.Sprintf("Average recovery time: %.0f min.", *avg),
		Severity:    SeverityWarning,
		Category:    CategoryStress,
		DataPoints:  map[string]float64{"avg_recovery_min": *avg},
		Recommendations: []string{
			"Prioritize sleep quality",
			"Consider recovery-focused activities (yoga, meditation)",
			"Reduce training load temporarily",
		},
	}, true
}

func incompleteRecoveryRule(s stressState) (Insight, bool) {
	var count int
	for _, p := range s.result.PostActivity {
		if p.RecoveryMinutes == nil {
			count++
		}
	}
	if count == 0 {
		return Insight{}, false
	}
	return Insight{
		Title:       "Incomplete Post-Activity Recovery",
		Description: fmt.Sprintf("%d activities without full recovery.", count),
		Severity:    SeverityAlert,
		Category:    CategoryStress,
		DataPoints:  map[string]float64{"count": float64(count)},
		Recommendations: []string{
			"Monitor for signs of overtraining",
			"Ensure adequate nutrition post-activity",
			"Consider longer cool-down periods",
		},
	}, true
}
