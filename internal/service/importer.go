package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"go.uber.org/zap"

	"health-insights/internal/store"
)

// Invalidator drops cached reads after new data is written
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Export is the JSON document accepted by ImportService. Sleep and
// activity durations are in seconds; daily summaries use the store's
// record encoding.
type Export struct {
	Sleep          []SleepEntry               `json:"sleep"`
	Stress         []store.StressRecord       `json:"stress"`
	HeartRate      []store.HeartRateRecord    `json:"heart_rate"`
	Activities     []ActivityEntry            `json:"activities"`
	DailySummaries []store.DailySummaryRecord `json:"daily_summaries"`
}

// SleepEntry is one night of sleep in an export
type SleepEntry struct {
	Date         string `json:"date"` // YYYY-MM-DD, the morning the night ended
	TotalSeconds int64  `json:"total_seconds"`
	DeepSeconds  int64  `json:"deep_seconds"`
	LightSeconds int64  `json:"light_seconds"`
	RemSeconds   int64  `json:"rem_seconds"`
	AwakeSeconds int64  `json:"awake_seconds"`
	SleepScore   *int   `json:"sleep_score,omitempty"`
}

// ActivityEntry is one workout in an export
type ActivityEntry struct {
	ID              string    `json:"activity_id"`
	Name            string    `json:"name"`
	Sport           string    `json:"sport"`
	StartTime       time.Time `json:"start_time"`
	DurationSeconds int64     `json:"duration_seconds"`
	Distance        *float64  `json:"distance,omitempty"` // km
	Calories        *int      `json:"calories,omitempty"`
	AvgHR           *int      `json:"avg_hr,omitempty"`
	MaxHR           *int      `json:"max_hr,omitempty"`
	TrainingEffect  *float64  `json:"training_effect,omitempty"`
	AnaerobicEffect *float64  `json:"anaerobic_effect,omitempty"`
	TrainingLoad    *float64  `json:"training_load,omitempty"`
}

// ImportResult contains the results of an import
type ImportResult struct {
	SleepNights      int
	StressSamples    int
	HeartRateSamples int
	Activities       int
	DailySummaries   int
	Errors           []error
}

// ImportService loads exported wearable data into the SQLite store
type ImportService struct {
	db     *store.DB
	cache  Invalidator
	logger *zap.Logger
	now    func() time.Time
}

// NewImportService creates an import service. cache may be nil.
func NewImportService(db *store.DB, cache Invalidator, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{db: db, cache: cache, logger: logger, now: time.Now}
}

// Import decodes an export from r and upserts every record. Individual
// record failures are collected in the result; decoding failures and
// cancellation abort the import.
func (s *ImportService) Import(ctx context.Context, r io.Reader, source string) (*ImportResult, error) {
	var export Export
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("decoding export: %w", err)
	}

	result := &ImportResult{}

	if err := s.importSleep(ctx, export.Sleep, result); err != nil {
		return result, fmt.Errorf("importing sleep: %w", err)
	}
	if err := s.importSamples(ctx, export.Stress, export.HeartRate, result); err != nil {
		return result, fmt.Errorf("importing samples: %w", err)
	}
	if err := s.importActivities(ctx, export.Activities, result); err != nil {
		return result, fmt.Errorf("importing activities: %w", err)
	}
	if err := s.importDailySummaries(ctx, export.DailySummaries, result); err != nil {
		return result, fmt.Errorf("importing daily summaries: %w", err)
	}

	if err := s.db.SetImportState(ctx, store.StateLastImport, s.now().UTC().Format(time.RFC3339)); err != nil {
		result.Errors = append(result.Errors, err)
	}
	if source != "" {
		if err := s.db.SetImportState(ctx, store.StateLastImportSource, source); err != nil {
			result.Errors = append(result.Errors, err)
		}
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("failed to invalidate report cache", zap.Error(err))
		}
	}

	s.logger.Info("import finished",
		zap.String("source", source),
		zap.Int("sleep", result.SleepNights),
		zap.Int("stress", result.StressSamples),
		zap.Int("heart_rate", result.HeartRateSamples),
		zap.Int("activities", result.Activities),
		zap.Int("daily_summaries", result.DailySummaries),
		zap.Int("errors", len(result.Errors)))

	return result, nil
}

// LastImport returns the time of the last successful import, zero if none
func (s *ImportService) LastImport(ctx context.Context) (time.Time, error) {
	value, err := s.db.GetImportState(ctx, store.StateLastImport)
	if err != nil || value == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing last import time: %w", err)
	}
	return t, nil
}

func (s *ImportService) importSleep(ctx context.Context, entries []SleepEntry, result *ImportResult) error {
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		day, err := store.ParseDate(e.Date)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("sleep date %q: %w", e.Date, err))
			continue
		}

		rec := store.SleepRecord{
			Date:       day,
			TotalSleep: time.Duration(e.TotalSeconds) * time.Second,
			DeepSleep:  time.Duration(e.DeepSeconds) * time.Second,
			LightSleep: time.Duration(e.LightSeconds) * time.Second,
			RemSleep:   time.Duration(e.RemSeconds) * time.Second,
			AwakeTime:  time.Duration(e.AwakeSeconds) * time.Second,
			SleepScore: e.SleepScore,
		}
		if err := s.db.SaveSleep(ctx, rec); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.SleepNights++
	}
	return nil
}

func (s *ImportService) importSamples(ctx context.Context, stress []store.StressRecord, hr []store.HeartRateRecord, result *ImportResult) error {
	for batch := range slices.Chunk(stress, ImportBatchSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.db.SaveStress(ctx, batch); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.StressSamples += len(batch)
	}

	for batch := range slices.Chunk(hr, ImportBatchSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.db.SaveHeartRate(ctx, batch); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.HeartRateSamples += len(batch)
	}
	return nil
}

func (s *ImportService) importActivities(ctx context.Context, entries []ActivityEntry, result *ImportResult) error {
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.ID == "" {
			result.Errors = append(result.Errors, fmt.Errorf("activity at %s has no id", e.StartTime.Format(time.RFC3339)))
			continue
		}

		if err := s.db.SaveActivity(ctx, convertActivity(e)); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Activities++
	}
	return nil
}

func (s *ImportService) importDailySummaries(ctx context.Context, records []store.DailySummaryRecord, result *ImportResult) error {
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.db.SaveDailySummary(ctx, r); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.DailySummaries++
	}
	return nil
}

// convertActivity converts an export entry to the store record
func convertActivity(e ActivityEntry) store.ActivityRecord {
	return store.ActivityRecord{
		ID:              e.ID,
		Name:            e.Name,
		Sport:           e.Sport,
		StartTime:       e.StartTime,
		Duration:        time.Duration(e.DurationSeconds) * time.Second,
		Distance:        e.Distance,
		Calories:        e.Calories,
		AvgHR:           e.AvgHR,
		MaxHR:           e.MaxHR,
		TrainingEffect:  e.TrainingEffect,
		AnaerobicEffect: e.AnaerobicEffect,
		TrainingLoad:    e.TrainingLoad,
	}
}
