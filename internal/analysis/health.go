package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"health-insights/internal/store"
)

// ReportVersion is the format version written into report metadata
const ReportVersion = "1.0"

// ErrInvalidRange is returned when a report period ends before it starts
var ErrInvalidRange = errors.New("end date is before start date")

// Configs bundles the settings of every analyzer
type Configs struct {
	Sleep    SleepConfig
	Stress   StressConfig
	Recovery RecoveryConfig
	Activity ActivityConfig
}

// DefaultConfigs returns the standard settings of every analyzer
func DefaultConfigs() Configs {
	return Configs{
		Sleep:    DefaultSleepConfig(),
		Stress:   DefaultStressConfig(),
		Recovery: DefaultRecoveryConfig(),
		Activity: DefaultActivityConfig(),
	}
}

// Option configures a HealthAnalyzer
type Option func(*options)

type options struct {
	configs Configs
	logger  *zap.Logger
	now     func() time.Time
}

// WithConfigs overrides the analyzer settings
func WithConfigs(c Configs) Option {
	return func(o *options) { o.configs = c }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the clock used for generated-at times and default dates
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// HealthAnalyzer runs every analyzer over one period and combines the results
type HealthAnalyzer struct {
	sleep    *SleepAnalyzer
	stress   *StressAnalyzer
	recovery *RecoveryAnalyzer
	activity *ActivityAnalyzer
	logger   *zap.Logger
	now      func() time.Time
}

// NewHealthAnalyzer creates an orchestrator reading from repo
func NewHealthAnalyzer(repo store.Repository, opts ...Option) *HealthAnalyzer {
	o := options{
		configs: DefaultConfigs(),
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &HealthAnalyzer{
		sleep:    NewSleepAnalyzer(repo, o.configs.Sleep),
		stress:   NewStressAnalyzer(repo, o.configs.Stress),
		recovery: NewRecoveryAnalyzer(repo, o.configs.Recovery),
		activity: NewActivityAnalyzer(repo, o.configs.Activity),
		logger:   o.logger,
		now:      o.now,
	}
}

// GenerateReport analyzes the inclusive period. The four analyzers run
// concurrently; the first failure cancels the rest and is returned.
func (h *HealthAnalyzer) GenerateReport(ctx context.Context, start, end time.Time) (*HealthReport, error) {
	start, end = store.Day(start), store.Day(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidRange, store.FormatDate(start), store.FormatDate(end))
	}

	report := &HealthReport{
		ID:          uuid.NewString(),
		GeneratedAt: h.now(),
		PeriodStart: start,
		PeriodEnd:   end,
		Metadata: ReportMetadata{
			Version:   ReportVersion,
			Analyzers: []string{CategorySleep, CategoryStress, CategoryRecovery, CategoryActivity},
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		report.Sleep, err = h.sleep.Analyze(gctx, start, end)
		return wrapAnalyzer(CategorySleep, err)
	})
	g.Go(func() (err error) {
		report.Stress, err = h.stress.Analyze(gctx, start, end)
		return wrapAnalyzer(CategoryStress, err)
	})
	g.Go(func() (err error) {
		report.Recovery, err = h.recovery.Analyze(gctx, start, end)
		return wrapAnalyzer(CategoryRecovery, err)
	})
	g.Go(func() (err error) {
		report.Activity, err = h.activity.Analyze(gctx, start, end)
		return wrapAnalyzer(CategoryActivity, err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.KeyInsights = collectKeyInsights(
		report.Sleep.Insights,
		report.Stress.Insights,
		report.Recovery.Insights,
		report.Activity.Insights,
	)

	h.logger.Debug("generated health report",
		zap.String("id", report.ID),
		zap.String("start", store.FormatDate(start)),
		zap.String("end", store.FormatDate(end)),
		zap.Int("key_insights", len(report.KeyInsights)),
	)

	return report, nil
}

// DailyReport covers a single day, today when day is zero
func (h *HealthAnalyzer) DailyReport(ctx context.Context, day time.Time) (*HealthReport, error) {
	day = h.orToday(day)
	return h.GenerateReport(ctx, day, day)
}

// WeeklyReport covers the 7 days ending at end, today when end is zero
func (h *HealthAnalyzer) WeeklyReport(ctx context.Context, end time.Time) (*HealthReport, error) {
	end = h.orToday(end)
	return h.GenerateReport(ctx, end.AddDate(0, 0, -6), end)
}

// MonthlyReport covers the 30 days ending at end, today when end is zero
func (h *HealthAnalyzer) MonthlyReport(ctx context.Context, end time.Time) (*HealthReport, error) {
	end = h.orToday(end)
	return h.GenerateReport(ctx, end.AddDate(0, 0, -29), end)
}

// Readiness scores readiness to train on day, today when day is zero
func (h *HealthAnalyzer) Readiness(ctx context.Context, day time.Time) (*DailyReadiness, error) {
	r, err := h.recovery.DailyReadiness(ctx, h.orToday(day))
	if err != nil {
		return nil, wrapAnalyzer(CategoryRecovery, err)
	}
	return r, nil
}

func (h *HealthAnalyzer) orToday(day time.Time) time.Time {
	if day.IsZero() {
		return store.Day(h.now())
	}
	return store.Day(day)
}

func wrapAnalyzer(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s analysis: %w", name, err)
}
