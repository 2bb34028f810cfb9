package analysis

import (
	"context"
	"fmt"
	"math"
	"time"

	"health-insights/internal/store"
)

// SleepConfig holds the thresholds used by SleepAnalyzer
type SleepConfig struct {
	MinHours              float64 // recommended range, hours
	MaxHours              float64
	DeepPercent           float64 // minimum recommended deep sleep share
	RemPercent            float64 // minimum recommended REM share
	TrendMinSamples       int     // nights needed to compare two windows
	TrendThresholdPct     float64
	ConsistencyMinSamples int
	ConsistencyPenalty    float64 // points lost per hour of standard deviation
	NeutralConsistency    float64
}

// DefaultSleepConfig returns the standard sleep thresholds
func DefaultSleepConfig() SleepConfig {
	return SleepConfig{
		MinHours:              7.0,
		MaxHours:              9.0,
		DeepPercent:           15.0,
		RemPercent:            20.0,
		TrendMinSamples:       14,
		TrendThresholdPct:     5,
		ConsistencyMinSamples: 3,
		ConsistencyPenalty:    25,
		NeutralConsistency:    50.0,
	}
}

// SleepAnalyzer summarizes nightly sleep quality and its trend
type SleepAnalyzer struct {
	repo store.Repository
	cfg  SleepConfig
}

// NewSleepAnalyzer creates a sleep analyzer
func NewSleepAnalyzer(repo store.Repository, cfg SleepConfig) *SleepAnalyzer {
	return &SleepAnalyzer{repo: repo, cfg: cfg}
}

// Analyze runs the sleep analysis for the inclusive period
func (a *SleepAnalyzer) Analyze(ctx context.Context, start, end time.Time) (*SleepResult, error) {
	records, err := a.repo.GetSleepData(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("loading sleep data: %w", err)
	}

	result := &SleepResult{
		PeriodStart: store.Day(start),
		PeriodEnd:   store.Day(end),
		TotalSleep:  MetricSummary{Name: "Total Sleep", Unit: "hours", Trend: TrendStable},
		DeepSleep:   MetricSummary{Name: "Deep Sleep", Unit: "%", Trend: TrendStable},
		RemSleep:    MetricSummary{Name: "REM Sleep", Unit: "%", Trend: TrendStable},
		Insights:    []Insight{},
	}
	if len(records) == 0 {
		return result, nil
	}

	hours := make([]float64, len(records))
	deep := make([]float64, len(records))
	rem := make([]float64, len(records))
	for i, r := range records {
		hours[i] = r.TotalHours()
		deep[i] = r.DeepSleepPercent()
		rem[i] = r.RemSleepPercent()
		result.DailyTotalHours = append(result.DailyTotalHours, DailyValue{Date: r.Date, Value: round(hours[i], 1)})
		result.DailyDeepPercent = append(result.DailyDeepPercent, DailyValue{Date: r.Date, Value: round(deep[i], 1)})
	}

	result.TotalSleep = a.summarize("Total Sleep", "hours", hours)
	result.DeepSleep = a.summarize("Deep Sleep", "%", deep)
	result.RemSleep = a.summarize("REM Sleep", "%", rem)
	result.ConsistencyScore = a.consistency(hours)
	result.BestDay, result.WorstDay = bestWorstWeekday(records)

	result.Insights = applyRules(sleepState{
		hours:      recentOrCurrent(result.TotalSleep),
		deep:       recentOrCurrent(result.DeepSleep),
		rem:        recentOrCurrent(result.RemSleep),
		totalTrend: result.TotalSleep.Trend,
		cfg:        a.cfg,
	}, sleepRules)

	roundSummary(&result.TotalSleep, 1)
	roundSummary(&result.DeepSleep, 1)
	roundSummary(&result.RemSleep, 1)

	return result, nil
}

// summarize builds a MetricSummary from values in date order
func (a *SleepAnalyzer) summarize(name, unit string, values []float64) MetricSummary {
	avgAll := mean(values)
	avg7 := avgAll
	if len(values) >= 7 {
		avg7 = mean(lastN(values, 7))
	}
	lo, hi := minMax(values)

	summary := MetricSummary{
		Name:         name,
		CurrentValue: values[len(values)-1],
		Unit:         unit,
		Average7d:    &avg7,
		Average30d:   &avgAll,
		Min:          lo,
		Max:          hi,
		Trend:        TrendStable,
	}

	if len(values) >= a.cfg.TrendMinSamples {
		half := a.cfg.TrendMinSamples / 2
		n := len(values)
		recent := mean(values[n-half:])
		previous := mean(values[n-2*half : n-half])

		var change float64
		if previous != 0 {
			change = (recent - previous) / previous * 100
		}
		switch {
		case change > a.cfg.TrendThresholdPct:
			summary.Trend = TrendImproving
		case change < -a.cfg.TrendThresholdPct:
			summary.Trend = TrendDeclining
		}
		summary.PercentChange = &change
	}

	return summary
}

// consistency scores night-to-night variation in total sleep, 0-100
func (a *SleepAnalyzer) consistency(hours []float64) float64 {
	if len(hours) < a.cfg.ConsistencyMinSamples {
		return a.cfg.NeutralConsistency
	}
	score := math.Max(0, 100-sampleStdev(hours)*a.cfg.ConsistencyPenalty)
	return round(score, 1)
}

// bestWorstWeekday finds the weekdays with the highest and lowest mean
// sleep. Ties go to the weekday seen first.
func bestWorstWeekday(records []store.SleepRecord) (string, string) {
	var order []time.Weekday
	byDay := make(map[time.Weekday][]float64)
	for _, r := range records {
		wd := r.Date.Weekday()
		if _, seen := byDay[wd]; !seen {
			order = append(order, wd)
		}
		byDay[wd] = append(byDay[wd], r.TotalHours())
	}
	if len(order) == 0 {
		return "", ""
	}

	best, worst := order[0], order[0]
	bestAvg, worstAvg := mean(byDay[best]), mean(byDay[worst])
	for _, wd := range order[1:] {
		avg := mean(byDay[wd])
		if avg > bestAvg {
			best, bestAvg = wd, avg
		}
		if avg < worstAvg {
			worst, worstAvg = wd, avg
		}
	}
	return best.String(), worst.String()
}

// recentOrCurrent prefers the 7-day average, falling back to the last value
func recentOrCurrent(m MetricSummary) float64 {
	if m.Average7d != nil && *m.Average7d != 0 {
		return *m.Average7d
	}
	return m.CurrentValue
}

func roundSummary(m *MetricSummary, places int32) {
	m.CurrentValue = round(m.CurrentValue, places)
	m.Average7d = roundPtr(m.Average7d, places)
	m.Average30d = roundPtr(m.Average30d, places)
	m.Min = roundPtr(m.Min, places)
	m.Max = roundPtr(m.Max, places)
	m.PercentChange = roundPtr(m.PercentChange, 1)
}

type sleepState struct {
	hours      float64
	deep       float64
	rem        float64
	totalTrend TrendDirection
	cfg        SleepConfig
}

var sleepRules = []rule[sleepState]{
	sleepDurationRule,
	deepSleepRule,
	remSleepRule,
	sleepTrendRule,
}

func sleepDurationRule(s sleepState) (Insight, bool) {
	switch {
	case s.hours < s.cfg.MinHours:
		return Insight{
			Title: "Sleep Debt Detected",
			Description: fmt.Sprintf("Average sleep of %.1fh is below the recommended %.1f-%.1fh range.",
				s.hours, s.cfg.MinHours, s.cfg.MaxHours),
			Severity: SeverityWarning,
			Category: CategorySleep,
			DataPoints: map[string]float64{
				"avg_sleep":       s.hours,
				"recommended_min": s.cfg.MinHours,
			},
			Recommendations: []string{
				"Try going to bed 30 minutes earlier",
				"Limit caffeine after 2pm",
				"Reduce screen time 1 hour before bed",
			},
		}, true
	case s.hours > s.cfg.MaxHours:
		return Insight{
			Title:       "Oversleeping Pattern",
			Description: fmt.Sprintf("Average sleep of %.1fh exceeds the recommended range.", s.hours),
			Severity:    SeverityInfo,
			Category:    CategorySleep,
			Recommendations: []string{
				"Consider a consistent wake time",
				"Evaluate sleep quality vs quantity",
			},
		}, true
	default:
		return Insight{
			Title:       "Healthy Sleep Duration",
			Description: fmt.Sprintf("Average sleep of %.1fh is within the recommended range.", s.hours),
			Severity:    SeverityPositive,
			Category:    CategorySleep,
		}, true
	}
}

func deepSleepRule(s sleepState) (Insight, bool) {
	if s.deep >= s.cfg.DeepPercent {
		return Insight{}, false
	}
	return Insight{
		Title:       "Low Deep Sleep",
		Description: fmt.Sprintf("Deep sleep of %.1f%% is below the recommended %.1f%%.", s.deep, s.cfg.DeepPercent),
		Severity:    SeverityWarning,
		Category:    CategorySleep,
		Recommendations: []string{
			"Exercise regularly but not close to bedtime",
			"Maintain a cool bedroom temperature",
			"Limit alcohol which disrupts deep sleep",
		},
	}, true
}

func remSleepRule(s sleepState) (Insight, bool) {
	if s.rem >= s.cfg.RemPercent {
		return Insight{}, false
	}
	return Insight{
		Title:       "Low REM Sleep",
		Description: fmt.Sprintf("REM sleep of %.1f%% is below the recommended %.1f%%.", s.rem, s.cfg.RemPercent),
		Severity:    SeverityInfo,
		Category:    CategorySleep,
		Recommendations: []string{
			"Maintain consistent sleep schedule",
			"Avoid alcohol before bed",
		},
	}, true
}

func sleepTrendRule(s sleepState) (Insight, bool) {
	if s.totalTrend != TrendDeclining {
		return Insight{}, false
	}
	return Insight{
		Title:       "Declining Sleep Trend",
		Description: "Your sleep duration has been decreasing over the past 2 weeks.",
		Severity:    SeverityWarning,
		Category:    CategorySleep,
		Recommendations: []string{
			"Review recent schedule changes",
			"Consider sleep environment adjustments",
		},
	}, true
}
