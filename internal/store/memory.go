package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-memory Repository. Records may be added in any order;
// reads return them sorted.
type Memory struct {
	mu sync.RWMutex

	sleep     []SleepRecord
	heartRate []HeartRateRecord
	stress    []StressRecord
	activity  []ActivityRecord
	daily     []DailySummaryRecord
}

var _ Repository = (*Memory)(nil)

// NewMemory creates an empty in-memory repository
func NewMemory() *Memory {
	return &Memory{}
}

// AddSleep appends sleep records
func (m *Memory) AddSleep(records ...SleepRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sleep = append(m.sleep, records...)
}

// AddHeartRate appends heart rate samples
func (m *Memory) AddHeartRate(records ...HeartRateRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heartRate = append(m.heartRate, records...)
}

// AddStress appends stress samples
func (m *Memory) AddStress(records ...StressRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stress = append(m.stress, records...)
}

// AddActivities appends activities
func (m *Memory) AddActivities(records ...ActivityRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activity = append(m.activity, records...)
}

// AddDailySummaries appends daily summaries
func (m *Memory) AddDailySummaries(records ...DailySummaryRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.daily = append(m.daily, records...)
}

func (m *Memory) GetSleepData(_ context.Context, start, end time.Time) ([]SleepRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []SleepRecord
	for _, r := range m.sleep {
		if InRange(r.Date, start, end) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) GetHeartRateData(_ context.Context, start, end time.Time, restingOnly bool) ([]HeartRateRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []HeartRateRecord
	if restingOnly {
		for _, d := range m.daily {
			if d.RestingHR == nil || *d.RestingHR <= 0 || !InRange(d.Date, start, end) {
				continue
			}
			rhr := *d.RestingHR
			out = append(out, HeartRateRecord{Timestamp: Day(d.Date), HeartRate: rhr, RestingHR: &rhr})
		}
	} else {
		for _, r := range m.heartRate {
			if InRange(r.Timestamp, start, end) {
				out = append(out, r)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (m *Memory) GetStressData(_ context.Context, start, end time.Time) ([]StressRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []StressRecord
	for _, r := range m.stress {
		if InRange(r.Timestamp, start, end) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (m *Memory) GetBodyBatteryData(_ context.Context, start, end time.Time) ([]BodyBatteryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []BodyBatteryRecord
	for _, d := range m.daily {
		if d.BBMax == nil || !InRange(d.Date, start, end) {
			continue
		}
		out = append(out, BodyBatteryRecord{Timestamp: Day(d.Date), Level: *d.BBMax, Charged: d.BBCharged})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (m *Memory) GetActivities(_ context.Context, start, end time.Time, sport string) ([]ActivityRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ActivityRecord
	for _, a := range m.activity {
		if !InRange(a.StartTime, start, end) {
			continue
		}
		if sport != "" && !strings.Contains(strings.ToLower(a.Sport), strings.ToLower(sport)) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *Memory) GetDailySummaries(_ context.Context, start, end time.Time) ([]DailySummaryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []DailySummaryRecord
	for _, d := range m.daily {
		if InRange(d.Date, start, end) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
