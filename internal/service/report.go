package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"health-insights/internal/analysis"
	"health-insights/internal/report"
	"health-insights/internal/store"
)

// ErrUnknownPeriod is returned for a period other than daily, weekly or monthly
var ErrUnknownPeriod = errors.New("unknown report period")

// ErrUnknownFormat is returned for an output format other than markdown or terminal
var ErrUnknownFormat = errors.New("unknown output format")

// Request selects the report period. Start and End are optional
// YYYY-MM-DD dates; when both are set they override Period.
type Request struct {
	Period string
	Start  string
	End    string
}

// ReportService generates and renders health reports
type ReportService struct {
	analyzer *analysis.HealthAnalyzer
	logger   *zap.Logger
}

// NewReportService creates a report service over repo
func NewReportService(repo store.Repository, configs analysis.Configs, logger *zap.Logger, now func() time.Time) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []analysis.Option{
		analysis.WithConfigs(configs),
		analysis.WithLogger(logger),
	}
	if now != nil {
		opts = append(opts, analysis.WithClock(now))
	}
	return &ReportService{
		analyzer: analysis.NewHealthAnalyzer(repo, opts...),
		logger:   logger,
	}
}

// Generate builds the report for req
func (s *ReportService) Generate(ctx context.Context, req Request) (*analysis.HealthReport, error) {
	start, end, err := parseDates(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	if !start.IsZero() {
		s.logger.Debug("generating custom report",
			zap.String("start", store.FormatDate(start)),
			zap.String("end", store.FormatDate(end)))
		return s.analyzer.GenerateReport(ctx, start, end)
	}

	switch req.Period {
	case PeriodDaily:
		return s.analyzer.DailyReport(ctx, end)
	case "", PeriodWeekly:
		return s.analyzer.WeeklyReport(ctx, end)
	case PeriodMonthly:
		return s.analyzer.MonthlyReport(ctx, end)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPeriod, req.Period)
	}
}

// Readiness returns the training readiness for day, or today when day is empty
func (s *ReportService) Readiness(ctx context.Context, day string) (*analysis.DailyReadiness, error) {
	var d time.Time
	if day != "" {
		var err error
		if d, err = store.ParseDate(day); err != nil {
			return nil, fmt.Errorf("parsing date %q: %w", day, err)
		}
	}
	return s.analyzer.Readiness(ctx, d)
}

// parseDates parses the optional start and end. A start without an end is
// rejected; an end alone anchors the period.
func parseDates(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		if end, err = store.ParseDate(endStr); err != nil {
			return start, end, fmt.Errorf("parsing end date %q: %w", endStr, err)
		}
	}
	if startStr != "" {
		if endStr == "" {
			return start, end, fmt.Errorf("%w: start date requires an end date", analysis.ErrInvalidRange)
		}
		if start, err = store.ParseDate(startStr); err != nil {
			return start, end, fmt.Errorf("parsing start date %q: %w", startStr, err)
		}
		if start.After(end) {
			return start, end, fmt.Errorf("%w: %s is after %s", analysis.ErrInvalidRange, startStr, endStr)
		}
	}
	return start, end, nil
}

// Render renders the report in the given format
func Render(r *analysis.HealthReport, format string, includeMetadata bool) (string, error) {
	renderer, err := NewRenderer(format, includeMetadata)
	if err != nil {
		return "", err
	}
	return renderer.Render(r), nil
}

// NewRenderer returns the renderer for format
func NewRenderer(format string, includeMetadata bool) (report.Renderer, error) {
	switch format {
	case "", FormatMarkdown:
		return &report.MarkdownRenderer{IncludeMetadata: includeMetadata}, nil
	case FormatTerminal:
		return report.NewTerminalRenderer(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// DefaultOutputPath returns dir/health-report_<start>_<end>.md
func DefaultOutputPath(dir string, r *analysis.HealthReport) string {
	name := fmt.Sprintf("health-report_%s_%s.md", store.FormatDate(r.PeriodStart), store.FormatDate(r.PeriodEnd))
	return filepath.Join(dir, name)
}

// WriteReport writes content to path, creating parent directories
func WriteReport(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
