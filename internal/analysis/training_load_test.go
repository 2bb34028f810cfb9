package analysis

import (
	"math"
	"testing"
	"time"
)

func TestCalculateFitnessTrend(t *testing.T) {
	baseDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		dailyLoads []DailyLoad
		checkFn    func(t *testing.T, metrics []FitnessMetrics)
	}{
		{
			name:       "empty daily loads",
			dailyLoads: []DailyLoad{},
			checkFn: func(t *testing.T, metrics []FitnessMetrics) {
				if metrics != nil {
					t.Errorf("expected nil, got %v", metrics)
				}
			},
		},
		{
			name: "single day load seeds both averages",
			dailyLoads: []DailyLoad{
				{Date: baseDate, Load: 100},
			},
			checkFn: func(t *testing.T, metrics []FitnessMetrics) {
				if len(metrics) != 1 {
					t.Fatalf("expected 1 metric, got %d", len(metrics))
				}
				if metrics[0].CTL != 100 || metrics[0].ATL != 100 {
					t.Errorf("CTL/ATL = %v/%v, want 100/100", metrics[0].CTL, metrics[0].ATL)
				}
				if metrics[0].TSB != 0 {
					t.Errorf("TSB = %v, want 0", metrics[0].TSB)
				}
			},
		},
		{
			name: "rest days decay the acute load",
			dailyLoads: []DailyLoad{
				{Date: baseDate, Load: 100},
				{Date: baseDate.AddDate(0, 0, 2), Load: 0},
			},
			checkFn: func(t *testing.T, metrics []FitnessMetrics) {
				if len(metrics) != 3 {
					t.Fatalf("expected 3 metrics, got %d", len(metrics))
				}
				// alpha = 2/(7+1) = 0.25
				wantATL := []float64{100, 75, 56.25}
				for i, want := range wantATL {
					if math.Abs(metrics[i].ATL-want) > 1e-9 {
						t.Errorf("day %d ATL = %v, want %v", i, metrics[i].ATL, want)
					}
				}
				// alpha = 2/43
				if math.Abs(metrics[1].CTL-100*41.0/43.0) > 1e-9 {
					t.Errorf("day 1 CTL = %v, want %v", metrics[1].CTL, 100*41.0/43.0)
				}
				// Fitness decays slower than fatigue, so form turns positive
				if metrics[2].TSB <= 0 {
					t.Errorf("TSB after rest = %v, want > 0", metrics[2].TSB)
				}
			},
		},
		{
			name: "consecutive increasing loads - builds fitness",
			dailyLoads: func() []DailyLoad {
				loads := make([]DailyLoad, 14)
				for i := range loads {
					loads[i] = DailyLoad{
						Date: baseDate.AddDate(0, 0, i),
						Load: float64(50 + i*10),
					}
				}
				return loads
			}(),
			checkFn: func(t *testing.T, metrics []FitnessMetrics) {
				if len(metrics) != 14 {
					t.Fatalf("expected 14 metrics, got %d", len(metrics))
				}
				for i := 1; i < len(metrics); i++ {
					if metrics[i].CTL <= metrics[i-1].CTL {
						t.Errorf("CTL should increase: day %d CTL=%v, day %d CTL=%v",
							i-1, metrics[i-1].CTL, i, metrics[i].CTL)
					}
				}
				// ATL responds faster than CTL
				if metrics[6].ATL <= metrics[6].CTL {
					t.Errorf("ATL should exceed CTL while load rises: ATL=%v, CTL=%v",
						metrics[6].ATL, metrics[6].CTL)
				}
			},
		},
		{
			name: "gap in training - fills missing days",
			dailyLoads: []DailyLoad{
				{Date: baseDate, Load: 100},
				{Date: baseDate.AddDate(0, 0, 5), Load: 100},
			},
			checkFn: func(t *testing.T, metrics []FitnessMetrics) {
				if len(metrics) != 6 {
					t.Fatalf("expected 6 metrics (filling gaps), got %d", len(metrics))
				}
				for i := range metrics {
					expected := baseDate.AddDate(0, 0, i)
					if !metrics[i].Date.Equal(expected) {
						t.Errorf("metric %d date = %v, want %v", i, metrics[i].Date, expected)
					}
				}
				if metrics[4].CTL >= metrics[0].CTL {
					t.Errorf("CTL should decay during rest: day 0 CTL=%v, day 4 CTL=%v",
						metrics[0].CTL, metrics[4].CTL)
				}
			},
		},
		{
			name: "multiple activities same day - sums load",
			dailyLoads: []DailyLoad{
				{Date: baseDate, Load: 50},
				{Date: baseDate.Add(6 * time.Hour), Load: 50},
			},
			checkFn: func(t *testing.T, metrics []FitnessMetrics) {
				if len(metrics) != 1 {
					t.Fatalf("expected 1 metric, got %d", len(metrics))
				}
				if metrics[0].ATL != 100 {
					t.Errorf("ATL = %v, want 100", metrics[0].ATL)
				}
			},
		},
		{
			name: "unsorted input",
			dailyLoads: []DailyLoad{
				{Date: baseDate.AddDate(0, 0, 1), Load: 0},
				{Date: baseDate, Load: 80},
			},
			checkFn: func(t *testing.T, metrics []FitnessMetrics) {
				if len(metrics) != 2 {
					t.Fatalf("expected 2 metrics, got %d", len(metrics))
				}
				if !metrics[0].Date.Equal(baseDate) || metrics[0].ATL != 80 {
					t.Errorf("first metric = %+v, want seeded at 80 on %v", metrics[0], baseDate)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := CalculateFitnessTrend(tt.dailyLoads)
			tt.checkFn(t, metrics)
		})
	}
}

func TestCalculateFitnessTrendMatchesEMA(t *testing.T) {
	baseDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	values := []float64{40, 0, 65, 0, 0, 120, 30, 0, 90}

	loads := make([]DailyLoad, len(values))
	for i, v := range values {
		loads[i] = DailyLoad{Date: baseDate.AddDate(0, 0, i), Load: v}
	}

	current := GetCurrentFitness(loads)
	if math.Abs(current.ATL-EMA(values, ATLWindow)) > 1e-9 {
		t.Errorf("ATL = %v, want EMA %v", current.ATL, EMA(values, ATLWindow))
	}
	if math.Abs(current.CTL-EMA(values, CTLWindow)) > 1e-9 {
		t.Errorf("CTL = %v, want EMA %v", current.CTL, EMA(values, CTLWindow))
	}
}

func TestGetCurrentFitness(t *testing.T) {
	if got := GetCurrentFitness(nil); got != (FitnessMetrics{}) {
		t.Errorf("GetCurrentFitness(nil) = %+v, want zero value", got)
	}

	baseDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	loads := []DailyLoad{
		{Date: baseDate, Load: 100},
		{Date: baseDate.AddDate(0, 0, 3), Load: 100},
	}
	current := GetCurrentFitness(loads)
	if !current.Date.Equal(baseDate.AddDate(0, 0, 3)) {
		t.Errorf("Date = %v, want %v", current.Date, baseDate.AddDate(0, 0, 3))
	}
}

func TestFormDescription(t *testing.T) {
	tests := []struct {
		tsb      float64
		expected string
	}{
		{30, "Very fresh (possibly detrained)"},
		{15, "Fresh and ready to race"},
		{5, "Neutral - good for training"},
		{0, "Slightly fatigued"},
		{-5, "Slightly fatigued"},
		{-15, "Tired but building fitness"},
		{-25, "Very fatigued - rest needed"},
		{-40, "Very fatigued - rest needed"},
	}

	for _, tt := range tests {
		result := FormDescription(tt.tsb)
		if result != tt.expected {
			t.Errorf("FormDescription(%v) = %q, want %q", tt.tsb, result, tt.expected)
		}
	}
}

func TestConfidenceDescription(t *testing.T) {
	tests := []struct {
		score    float64
		expected string
	}{
		{1.0, "Excellent"},
		{0.95, "Excellent"},
		{0.9, "Good"},
		{0.7, "Fair"},
		{0.68, "Poor"},
		{0.2, "Very Poor"},
	}

	for _, tt := range tests {
		result := ConfidenceDescription(tt.score)
		if result != tt.expected {
			t.Errorf("ConfidenceDescription(%v) = %q, want %q", tt.score, result, tt.expected)
		}
	}
}
