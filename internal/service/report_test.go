package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"health-insights/internal/analysis"
	"health-insights/internal/store"
)

func fixedClock() time.Time {
	return time.Date(2025, time.January, 12, 21, 15, 0, 0, time.UTC)
}

func seededRepo() *store.Memory {
	repo := store.NewMemory()
	for d := 1; d <= 12; d++ {
		repo.AddSleep(store.SleepRecord{
			Date:       store.Date(2025, 1, d),
			TotalSleep: 7*time.Hour + 30*time.Minute,
			DeepSleep:  90 * time.Minute,
			RemSleep:   100 * time.Minute,
		})
	}
	return repo
}

func newTestService(repo store.Repository) *ReportService {
	return NewReportService(repo, analysis.DefaultConfigs(), nil, fixedClock)
}

func TestGeneratePeriods(t *testing.T) {
	svc := newTestService(seededRepo())
	ctx := context.Background()

	tests := []struct {
		name      string
		req       Request
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"default is weekly", Request{}, store.Date(2025, 1, 6), store.Date(2025, 1, 12)},
		{"daily", Request{Period: PeriodDaily}, store.Date(2025, 1, 12), store.Date(2025, 1, 12)},
		{"monthly", Request{Period: PeriodMonthly}, store.Date(2024, 12, 14), store.Date(2025, 1, 12)},
		{"weekly ending at end", Request{Period: PeriodWeekly, End: "2025-01-08"}, store.Date(2025, 1, 2), store.Date(2025, 1, 8)},
		{"custom range", Request{Period: PeriodWeekly, Start: "2025-01-03", End: "2025-01-04"}, store.Date(2025, 1, 3), store.Date(2025, 1, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := svc.Generate(ctx, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, report.PeriodStart)
			assert.Equal(t, tt.wantEnd, report.PeriodEnd)
			assert.Equal(t, fixedClock(), report.GeneratedAt)
		})
	}
}

func TestGenerateErrors(t *testing.T) {
	svc := newTestService(store.NewMemory())
	ctx := context.Background()

	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{"start after end", Request{Start: "2025-01-10", End: "2025-01-01"}, analysis.ErrInvalidRange},
		{"start without end", Request{Start: "2025-01-10"}, analysis.ErrInvalidRange},
		{"unknown period", Request{Period: "yearly"}, ErrUnknownPeriod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Generate(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := svc.Generate(ctx, Request{End: "01/10/2025"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing end date")
}

func TestReadiness(t *testing.T) {
	svc := newTestService(seededRepo())

	r, err := svc.Readiness(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, store.Date(2025, 1, 12), r.Date)

	r, err = svc.Readiness(context.Background(), "2025-01-05")
	require.NoError(t, err)
	assert.Equal(t, store.Date(2025, 1, 5), r.Date)

	_, err = svc.Readiness(context.Background(), "yesterday")
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	report, err := newTestService(seededRepo()).Generate(context.Background(), Request{})
	require.NoError(t, err)

	md, err := Render(report, FormatMarkdown, true)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(md, "---\n"))
	assert.Contains(t, md, "## Sleep Analysis")

	md, err = Render(report, "", false)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(md, "# Health Report"))

	term, err := Render(report, FormatTerminal, true)
	require.NoError(t, err)
	assert.Contains(t, term, "Health Report  2025-01-06 to 2025-01-12")

	_, err = Render(report, "pdf", true)
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestWriteReport(t *testing.T) {
	report := &analysis.HealthReport{PeriodStart: store.Date(2025, 1, 6), PeriodEnd: store.Date(2025, 1, 12)}

	dir := t.TempDir()
	path := DefaultOutputPath(filepath.Join(dir, "reports"), report)
	assert.Equal(t, filepath.Join(dir, "reports", "health-report_2025-01-06_2025-01-12.md"), path)

	require.NoError(t, WriteReport(path, "# Health Report\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Health Report\n", string(data))
}
