package analysis

import (
	"slices"
	"time"

	"health-insights/internal/store"
)

// Training load windows
const (
	ATLWindow = 7  // Acute Training Load - "Fatigue"
	CTLWindow = 42 // Chronic Training Load - "Fitness"
)

// DailyLoad represents training load for a single day
type DailyLoad struct {
	Date time.Time
	Load float64
}

// FitnessMetrics represents CTL/ATL/TSB for a day
type FitnessMetrics struct {
	Date time.Time `json:"date"`
	CTL  float64   `json:"ctl"` // 42-day EMA
	ATL  float64   `json:"atl"` // 7-day EMA
	TSB  float64   `json:"tsb"` // CTL - ATL
}

// CalculateFitnessTrend computes CTL/ATL/TSB for every day from the first to
// the last load. Missing days count as rest; both averages are seeded with
// the first day's load.
func CalculateFitnessTrend(dailyLoads []DailyLoad) []FitnessMetrics {
	if len(dailyLoads) == 0 {
		return nil
	}

	sorted := slices.Clone(dailyLoads)
	slices.SortStableFunc(sorted, func(a, b DailyLoad) int {
		return a.Date.Compare(b.Date)
	})

	ctlDecay := 2.0 / (CTLWindow + 1.0)
	atlDecay := 2.0 / (ATLWindow + 1.0)

	// Sum multiple activities on the same day
	loadMap := make(map[string]float64)
	for _, dl := range sorted {
		loadMap[store.FormatDate(dl.Date)] += dl.Load
	}

	startDate := store.Day(sorted[0].Date)
	endDate := store.Day(sorted[len(sorted)-1].Date)

	var metrics []FitnessMetrics
	var ctl, atl float64
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		load := loadMap[store.FormatDate(d)]

		if d.Equal(startDate) {
			ctl, atl = load, load
		} else {
			ctl = ctl + ctlDecay*(load-ctl)
			atl = atl + atlDecay*(load-atl)
		}

		metrics = append(metrics, FitnessMetrics{
			Date: d,
			CTL:  ctl,
			ATL:  atl,
			TSB:  ctl - atl,
		})
	}

	return metrics
}

// GetCurrentFitness returns the most recent CTL/ATL/TSB values
func GetCurrentFitness(dailyLoads []DailyLoad) FitnessMetrics {
	metrics := CalculateFitnessTrend(dailyLoads)
	if len(metrics) == 0 {
		return FitnessMetrics{}
	}
	return metrics[len(metrics)-1]
}

// FormDescription returns a human-readable description of TSB
func FormDescription(tsb float64) string {
	switch {
	case tsb > 25:
		return "Very fresh (possibly detrained)"
	case tsb > 10:
		return "Fresh and ready to race"
	case tsb > 0:
		return "Neutral - good for training"
	case tsb > -10:
		return "Slightly fatigued"
	case tsb > -25:
		return "Tired but building fitness"
	default:
		return "Very fatigued - rest needed"
	}
}

// ConfidenceDescription returns a human-readable assessment of the share of
// training load that came from device measurements
func ConfidenceDescription(score float64) string {
	switch {
	case score >= 0.95:
		return "Excellent"
	case score >= 0.85:
		return "Good"
	case score >= 0.70:
		return "Fair"
	case score >= 0.50:
		return "Poor"
	default:
		return "Very Poor"
	}
}
