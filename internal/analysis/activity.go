package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"health-insights/internal/store"
)

// Intensity bands by aerobic training effect
const (
	BandRecovery        = "Recovery"
	BandBase            = "Base"
	BandImproving       = "Improving"
	BandHighlyImproving = "Highly Improving"
	BandOverreaching    = "Overreaching"
)

type intensityBand struct {
	name   string
	lo, hi float64
}

var intensityBands = []intensityBand{
	{BandRecovery, 0.0, 1.9},
	{BandBase, 2.0, 2.9},
	{BandImproving, 3.0, 3.9},
	{BandHighlyImproving, 4.0, 4.4},
	{BandOverreaching, 4.5, 5.0},
}

// ActivityConfig holds the load model and insight thresholds used by ActivityAnalyzer
type ActivityConfig struct {
	// Load per minute by lowercased sport when no device load is recorded
	LoadFactors       map[string]float64
	DefaultLoadFactor float64

	MinMonotonyDays  int
	MaxMonotony      float64 // used when every day has the same load
	VolumeTrendPct   float64
	VolumeSpikePct   float64
	HighIntensityPct float64
	LowIntensityPct  float64
	MinConfidence    float64
	FreshTSB         float64
	FatiguedTSB      float64
}

// DefaultActivityConfig returns the standard activity settings
func DefaultActivityConfig() ActivityConfig {
	return ActivityConfig{
		LoadFactors: map[string]float64{
			"running":           0.8,
			"cycling":           0.6,
			"walking":           0.3,
			"swimming":          0.9,
			"strength_training": 0.5,
			"hiking":            0.5,
			"yoga":              0.2,
		},
		DefaultLoadFactor: 0.5,

		MinMonotonyDays:  7,
		MaxMonotony:      10.0,
		VolumeTrendPct:   10,
		VolumeSpikePct:   20,
		HighIntensityPct: 30,
		LowIntensityPct:  50,
		MinConfidence:    0.7,
		FreshTSB:         25,
		FatiguedTSB:      -30,
	}
}

// ActivityAnalyzer computes training load, intensity and per-sport summaries
type ActivityAnalyzer struct {
	repo store.Repository
	cfg  ActivityConfig
}

// NewActivityAnalyzer creates an activity analyzer
func NewActivityAnalyzer(repo store.Repository, cfg ActivityConfig) *ActivityAnalyzer {
	return &ActivityAnalyzer{repo: repo, cfg: cfg}
}

// Analyze runs the activity analysis for the inclusive period. Activities
// from CTLWindow days before start feed the fitness model.
func (a *ActivityAnalyzer) Analyze(ctx context.Context, start, end time.Time) (*ActivityResult, error) {
	start, end = store.Day(start), store.Day(end)
	lookback := start.AddDate(0, 0, -CTLWindow)

	all, err := a.repo.GetActivities(ctx, lookback, end, "")
	if err != nil {
		return nil, fmt.Errorf("loading activities: %w", err)
	}

	var period []store.ActivityRecord
	for _, act := range all {
		if store.InRange(act.StartTime, start, end) {
			period = append(period, act)
		}
	}

	result := &ActivityResult{
		PeriodStart:       start,
		PeriodEnd:         end,
		WeeklyVolumeTrend: TrendStable,
		Insights:          []Insight{},
	}
	if len(period) == 0 {
		return result, nil
	}

	loads, confidence := a.dailyLoads(all, lookback, end)
	trend := CalculateFitnessTrend(loads)
	result.TrainingStress = a.trainingStress(trend, loads, start, end, confidence)

	for _, m := range trend {
		if store.InRange(m.Date, start, end) {
			result.FitnessTrend = append(result.FitnessTrend, FitnessMetrics{
				Date: m.Date,
				CTL:  round(m.CTL, 1),
				ATL:  round(m.ATL, 1),
				TSB:  round(m.TSB, 1),
			})
		}
	}
	for _, dl := range loads {
		if store.InRange(dl.Date, start, end) {
			result.DailyLoads = append(result.DailyLoads, DailyValue{Date: dl.Date, Value: round(dl.Load, 1)})
		}
	}

	result.Sports = sportSummaries(period)
	result.ActivitiesBySport = make(map[string]int, len(result.Sports))
	for _, s := range result.Sports {
		result.ActivitiesBySport[s.Name] = s.Count
	}
	result.IntensityDistribution = intensityDistribution(period)
	result.AvgAerobicEffect, result.AvgAnaerobicEffect = averageEffects(period)

	var hours, km float64
	for _, act := range period {
		hours += act.Duration.Hours()
		km += deref(act.Distance)
		if act.Calories != nil {
			result.TotalCalories += *act.Calories
		}
	}
	result.TotalActivities = len(period)
	result.TotalDurationHours = round(hours, 1)
	result.TotalDistanceKm = round(km, 1)

	current, previous := weekLoads(loads, end)
	result.WeeklyVolumeTrend = a.volumeTrend(current, previous)

	result.Insights = applyRules(activityState{
		currentWeek:  current,
		previousWeek: previous,
		intensity:    result.IntensityDistribution,
		stress:       result.TrainingStress,
		cfg:          a.cfg,
	}, activityRules)

	return result, nil
}

// EstimateLoad returns the device training load when present, otherwise
// duration in minutes times the sport's load factor. The flag reports
// whether the value was estimated.
func (a *ActivityAnalyzer) EstimateLoad(act store.ActivityRecord) (float64, bool) {
	if positiveFloat(act.TrainingLoad) {
		return *act.TrainingLoad, false
	}

	factor, ok := a.cfg.LoadFactors[strings.ToLower(act.Sport)]
	if !ok {
		factor = a.cfg.DefaultLoadFactor
	}
	return act.Duration.Minutes() * factor, true
}

// dailyLoads builds a zero-filled load series for [from, to] and the share
// of load that came from the device (1.0 when there is no load at all)
func (a *ActivityAnalyzer) dailyLoads(activities []store.ActivityRecord, from, to time.Time) ([]DailyLoad, float64) {
	var loads []DailyLoad
	index := make(map[time.Time]int)
	eachDay(from, to, func(day time.Time) {
		index[day] = len(loads)
		loads = append(loads, DailyLoad{Date: day})
	})

	var total, measured float64
	for _, act := range activities {
		i, ok := index[store.Day(act.StartTime)]
		if !ok {
			continue
		}
		load, estimated := a.EstimateLoad(act)
		loads[i].Load += load
		total += load
		if !estimated {
			measured += load
		}
	}

	confidence := 1.0
	if total > 0 {
		confidence = measured / total
	}
	return loads, confidence
}

func (a *ActivityAnalyzer) trainingStress(trend []FitnessMetrics, loads []DailyLoad, start, end time.Time, confidence float64) *TrainingStress {
	var current FitnessMetrics
	if len(trend) > 0 {
		current = trend[len(trend)-1]
	}

	var periodLoads []float64
	for _, dl := range loads {
		if store.InRange(dl.Date, start, end) {
			periodLoads = append(periodLoads, dl.Load)
		}
	}

	monotony := a.Monotony(periodLoads)
	var strain float64
	if monotony != nil {
		strain = sum(lastN(periodLoads, 7)) * *monotony
	}

	tsb := round(current.TSB, 1)
	return &TrainingStress{
		ATL:             round(current.ATL, 1),
		CTL:             round(current.CTL, 1),
		TSB:             tsb,
		Monotony:        roundPtr(monotony, 2),
		Strain:          round(strain, 0),
		ConfidenceScore: round(confidence, 2),
		Form:            FormDescription(tsb),
	}
}

// Monotony is mean daily load over its population standard deviation. It is
// nil with fewer than MinMonotonyDays days and MaxMonotony when every day
// carries the same non-zero load.
func (a *ActivityAnalyzer) Monotony(daily []float64) *float64 {
	if len(daily) < a.cfg.MinMonotonyDays {
		return nil
	}
	m := mean(daily)
	if m == 0 {
		return ptr(0.0)
	}
	sd := populationStdev(daily)
	if sd == 0 {
		return ptr(a.cfg.MaxMonotony)
	}
	return ptr(m / sd)
}

// IntensityBand names the band an aerobic training effect falls into.
// Values outside every band count as Base.
func IntensityBand(trainingEffect float64) string {
	for _, b := range intensityBands {
		if trainingEffect >= b.lo && trainingEffect <= b.hi {
			return b.name
		}
	}
	return BandBase
}

func intensityDistribution(activities []store.ActivityRecord) IntensityDistribution {
	counts := make(map[string]int)
	var total int
	for _, act := range activities {
		if act.TrainingEffect == nil {
			continue
		}
		counts[IntensityBand(*act.TrainingEffect)]++
		total++
	}

	dist := make(IntensityDistribution, 0, len(intensityBands))
	for _, b := range intensityBands {
		var pct float64
		if total > 0 {
			pct = round(float64(counts[b.name])/float64(total)*100, 1)
		}
		dist = append(dist, IntensityShare{Band: b.name, Percent: pct})
	}
	return dist
}

func averageEffects(activities []store.ActivityRecord) (float64, float64) {
	var aerobic, anaerobic []float64
	for _, act := range activities {
		if act.TrainingEffect != nil {
			aerobic = append(aerobic, *act.TrainingEffect)
		}
		if act.AnaerobicEffect != nil {
			anaerobic = append(anaerobic, *act.AnaerobicEffect)
		}
	}
	return round(mean(aerobic), 1), round(mean(anaerobic), 1)
}

// sportSummaries groups activities by sport in first-seen order
func sportSummaries(activities []store.ActivityRecord) []SportSummary {
	var order []string
	bySport := make(map[string][]store.ActivityRecord)
	for _, act := range activities {
		sport := act.Sport
		if sport == "" {
			sport = "Unknown"
		}
		if _, seen := bySport[sport]; !seen {
			order = append(order, sport)
		}
		bySport[sport] = append(bySport[sport], act)
	}

	summaries := make([]SportSummary, 0, len(order))
	for _, sport := range order {
		acts := bySport[sport]

		var km, hours, maxTE float64
		var hrs []float64
		for _, act := range acts {
			km += deref(act.Distance)
			hours += act.Duration.Hours()
			if positiveInt(act.AvgHR) {
				hrs = append(hrs, float64(*act.AvgHR))
			}
			if positiveFloat(act.TrainingEffect) {
				maxTE = math.Max(maxTE, *act.TrainingEffect)
			}
		}

		var speed *float64
		if hours > 0 && km > 0 {
			speed = ptr(km / hours)
		}
		avgHR := meanPtr(hrs)

		var efficiency *float64
		if speed != nil && avgHR != nil && *avgHR > 0 {
			efficiency = ptr(*speed / *avgHR * 100)
		}

		summaries = append(summaries, SportSummary{
			Name:               sport,
			Count:              len(acts),
			TotalDistanceKm:    round(km, 1),
			TotalDurationHours: round(hours, 1),
			AvgSpeedKmh:        roundPtr(speed, 1),
			AvgHR:              roundPtr(avgHR, 0),
			MaxTrainingEffect:  round(maxTE, 1),
			EfficiencyIndex:    roundPtr(efficiency, 2),
		})
	}
	return summaries
}

// weekLoads sums the 7 days ending at end and the 7 days before them
func weekLoads(loads []DailyLoad, end time.Time) (float64, float64) {
	currentFrom := store.Day(end).AddDate(0, 0, -6)
	previousFrom := currentFrom.AddDate(0, 0, -7)
	previousTo := currentFrom.AddDate(0, 0, -1)

	var current, previous float64
	for _, dl := range loads {
		switch {
		case store.InRange(dl.Date, currentFrom, end):
			current += dl.Load
		case store.InRange(dl.Date, previousFrom, previousTo):
			previous += dl.Load
		}
	}
	return current, previous
}

func (a *ActivityAnalyzer) volumeTrend(current, previous float64) TrendDirection {
	if previous == 0 {
		return TrendStable
	}
	change := (current - previous) / previous * 100
	switch {
	case change > a.cfg.VolumeTrendPct:
		return TrendImproving
	case change < -a.cfg.VolumeTrendPct:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

type activityState struct {
	currentWeek  float64
	previousWeek float64
	intensity    IntensityDistribution
	stress       *TrainingStress
	cfg          ActivityConfig
}

var activityRules = []rule[activityState]{
	volumeSpikeRule,
	intensityBalanceRule,
	loadConfidenceRule,
	formRule,
}

func volumeSpikeRule(s activityState) (Insight, bool) {
	if s.previousWeek == 0 {
		return Insight{}, false
	}
	change := math.Abs(s.currentWeek-s.previousWeek) / s.previousWeek * 100
	if change <= s.cfg.VolumeSpikePct {
		return Insight{}, false
	}

	direction := "decreased"
	if s.currentWeek > s.previousWeek {
		direction = "increased"
	}
	return Insight{
		Title: "Training Volume Spike",
		Description: fmt.Sprintf("Weekly training load %s by %.0f%%. "+
			"Rapid changes above 20%% increase injury risk.", direction, change),
		Severity: SeverityWarning,
		Category: CategoryActivity,
		DataPoints: map[string]float64{
			"percent_change":     change,
			"current_week_load":  s.currentWeek,
			"previous_week_load": s.previousWeek,
		},
		Recommendations: []string{
			"Limit weekly load increases to 10% or less",
			"Include rest days between high-intensity sessions",
		},
	}, true
}

// intensityBalanceRule follows a polarized training model
func intensityBalanceRule(s activityState) (Insight, bool) {
	high := s.intensity.Percent(BandHighlyImproving) + s.intensity.Percent(BandOverreaching)
	low := s.intensity.Percent(BandRecovery) + s.intensity.Percent(BandBase)
	moderate := s.intensity.Percent(BandImproving)

	if high > s.cfg.HighIntensityPct {
		return Insight{
			Title: "High Intensity Imbalance",
			Description: fmt.Sprintf("%.0f%% of your training is at maximum intensity. "+
				"This significantly increases injury and overtraining risk.", high),
			Severity:   SeverityAlert,
			Category:   CategoryActivity,
			DataPoints: map[string]float64{"high_intensity_percent": high},
			Recommendations: []string{
				"Reduce the number of anaerobic or threshold sessions",
				"Replace one hard session with a very easy recovery run",
				"Monitor HRV and resting HR closely",
			},
		}, true
	}

	if low < s.cfg.LowIntensityPct && high+moderate > s.cfg.LowIntensityPct {
		return Insight{
			Title: "Lack of Base Training",
			Description: fmt.Sprintf("Only %.0f%% of your training is low-intensity. "+
				"You are spending too much time in the 'moderate' zone, which "+
				"can lead to stagnation without building a strong aerobic base.", low),
			Severity:   SeverityWarning,
			Category:   CategoryActivity,
			DataPoints: map[string]float64{"low_intensity_percent": low},
			Recommendations: []string{
				"Increase the proportion of easy (Zone 2) sessions",
				"Focus on consistency over intensity for a few weeks",
				"Target an 80/20 intensity distribution",
			},
		}, true
	}
	return Insight{}, false
}

func loadConfidenceRule(s activityState) (Insight, bool) {
	if s.stress == nil || s.stress.ConfidenceScore >= s.cfg.MinConfidence {
		return Insight{}, false
	}
	return Insight{
		Title: "Limited Training Load Data",
		Description: fmt.Sprintf("Only %.0f%% of training load data is from actual device measurements. "+
			"TSB metrics may be less accurate.", s.stress.ConfidenceScore*100),
		Severity:   SeverityInfo,
		Category:   CategoryActivity,
		DataPoints: map[string]float64{"confidence_score": s.stress.ConfidenceScore},
		Recommendations: []string{
			"Ensure activities sync properly with Garmin Connect",
			"Check that training load is enabled on your device",
		},
	}, true
}

func formRule(s activityState) (Insight, bool) {
	if s.stress == nil {
		return Insight{}, false
	}
	tsb := s.stress.TSB
	switch {
	case tsb > s.cfg.FreshTSB:
		return Insight{
			Title: "Peak Freshness",
			Description: fmt.Sprintf("TSB of %.0f indicates you're well-rested. "+
				"Great time for a key workout or race.", tsb),
			Severity:   SeverityPositive,
			Category:   CategoryActivity,
			DataPoints: map[string]float64{"tsb": tsb},
		}, true
	case tsb < s.cfg.FatiguedTSB:
		return Insight{
			Title: "High Fatigue Load",
			Description: fmt.Sprintf("TSB of %.0f indicates significant fatigue. "+
				"Consider reducing training volume.", tsb),
			Severity:   SeverityWarning,
			Category:   CategoryActivity,
			DataPoints: map[string]float64{"tsb": tsb},
			Recommendations: []string{
				"Plan a recovery day or easy session",
				"Prioritize sleep and nutrition",
			},
		}, true
	}
	return Insight{}, false
}
