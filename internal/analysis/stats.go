package analysis

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"health-insights/internal/store"
)

// round rounds half away from zero to the given number of decimal places
func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func roundPtr(v *float64, places int32) *float64 {
	if v == nil {
		return nil
	}
	r := round(*v, places)
	return &r
}

func ptr[T any](v T) *T {
	return &v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func meanPtr(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	m := mean(values)
	return &m
}

func sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}

// sampleStdev uses the n-1 denominator; 0 with fewer than two values
func sampleStdev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

// populationStdev uses the n denominator
func populationStdev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)))
}

// minMax returns pointers to the smallest and largest value, nil when empty
func minMax(values []float64) (*float64, *float64) {
	if len(values) == 0 {
		return nil, nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return &lo, &hi
}

// lastN returns the last n values, or all of them when there are fewer
func lastN(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

// nearestRank returns sorted[floor(n*pct/100)], clamped to the slice
func nearestRank(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)) * pct / 100)
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}

// EMA returns the exponential moving average of values, oldest first.
// The average is seeded with the first value and alpha = 2/(window+1).
func EMA(values []float64, window int) float64 {
	if len(values) == 0 {
		return 0
	}
	alpha := 2.0 / float64(window+1)
	ema := values[0]
	for _, v := range values[1:] {
		ema = alpha*v + (1-alpha)*ema
	}
	return ema
}

// daysInclusive counts calendar days in [start, end]
func daysInclusive(start, end time.Time) int {
	return int(store.Day(end).Sub(store.Day(start)).Hours()/24) + 1
}

// eachDay calls fn for every calendar day in [start, end]
func eachDay(start, end time.Time, fn func(day time.Time)) {
	for d := store.Day(start); !d.After(store.Day(end)); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// positiveInt reports whether an optional reading is present and non-zero
func positiveInt(v *int) bool {
	return v != nil && *v > 0
}

func positiveFloat(v *float64) bool {
	return v != nil && *v > 0
}
