package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"

	"health-insights/internal/analysis"
)

const (
	defaultChartWidth = 60
	chartHeight       = 8
	cardWidth         = 36
)

// TerminalRenderer renders reports as styled text for a terminal
type TerminalRenderer struct {
	ChartWidth int
}

// NewTerminalRenderer creates a terminal renderer with default chart size
func NewTerminalRenderer() *TerminalRenderer {
	return &TerminalRenderer{ChartWidth: defaultChartWidth}
}

// Render renders the complete report
func (r *TerminalRenderer) Render(report *analysis.HealthReport) string {
	var sections []string

	header := headerStyle.Render(fmt.Sprintf("Health Report  %s  (%d days)", period(report.PeriodStart, report.PeriodEnd), report.Days()))
	generated := mutedStyle.Render("Generated " + report.GeneratedAt.Format("2006-01-02 15:04"))
	sections = append(sections, lipgloss.JoinVertical(lipgloss.Left, header, generated))

	// Cards, two per row
	var cards []string
	if report.Sleep != nil {
		cards = append(cards, r.sleepCard(report.Sleep))
	}
	if report.Stress != nil {
		cards = append(cards, r.stressCard(report.Stress))
	}
	if report.Recovery != nil {
		cards = append(cards, r.recoveryCard(report.Recovery))
	}
	if report.Activity != nil {
		cards = append(cards, r.activityCard(report.Activity))
	}
	for i := 0; i < len(cards); i += 2 {
		if i+1 < len(cards) {
			sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, cards[i], "  ", cards[i+1]))
		} else {
			sections = append(sections, cards[i])
		}
	}

	// Charts
	if report.Sleep != nil {
		if chart := r.chart("Sleep (hours per night)", analysis.Values(report.Sleep.DailyTotalHours), 1); chart != "" {
			sections = append(sections, chart)
		}
	}
	if report.Stress != nil {
		if chart := r.chart("Average Daily Stress", analysis.Values(report.Stress.DailyAvgStress), 0); chart != "" {
			sections = append(sections, chart)
		}
	}
	if report.Activity != nil {
		if chart := r.chart("Daily Training Load", analysis.Values(report.Activity.DailyLoads), 0); chart != "" {
			sections = append(sections, chart)
		}
	}

	if len(report.KeyInsights) > 0 {
		sections = append(sections, r.insights(report.KeyInsights))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (r *TerminalRenderer) sleepCard(s *analysis.SleepResult) string {
	lines := []string{
		cardTitleStyle.Render("Sleep"),
		renderMetric("Total Sleep", withUnit(s.TotalSleep.CurrentValue, "h"), s.TotalSleep.Trend),
		renderMetric("Deep Sleep", withUnit(s.DeepSleep.CurrentValue, "%"), s.DeepSleep.Trend),
		renderMetric("REM Sleep", withUnit(s.RemSleep.CurrentValue, "%"), s.RemSleep.Trend),
		renderMetric("Consistency", fmt.Sprintf("%.0f/100", s.ConsistencyScore), ""),
		renderProgressBar(s.ConsistencyScore/100, cardWidth-6),
	}
	return cardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (r *TerminalRenderer) stressCard(s *analysis.StressResult) string {
	lines := []string{
		cardTitleStyle.Render("Stress"),
		renderMetric("Average", fmt.Sprintf("%.1f", s.AvgStress.CurrentValue), s.AvgStress.Trend),
		renderMetric("Low/Med/High", fmt.Sprintf("%.0f/%.0f/%.0f%%", s.LowPercent, s.MediumPercent, s.HighPercent), ""),
		renderMetric("Baseline", fmt.Sprintf("%.1f", s.PersonalBaseline), ""),
		renderMetric("Peak Hour", formatHour(s.PeakStressHour), ""),
		renderMetric("Recovery Eff.", formatPtr(s.RecoveryEfficiency, "%.0f/100"), ""),
	}
	return cardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (r *TerminalRenderer) recoveryCard(s *analysis.RecoveryResult) string {
	acwr := none
	if s.ACWR != nil {
		acwr = fmt.Sprintf("%.2f %s", *s.ACWR, s.ACWRZone)
	}
	lines := []string{
		cardTitleStyle.Render("Recovery"),
		renderMetric("Score", fmt.Sprintf("%d/100", s.RecoveryScore), s.Trend),
		renderProgressBar(float64(s.RecoveryScore)/100, cardWidth-6),
		renderMetric("RHR", fmt.Sprintf("%.0f bpm (%+.1f)", s.RHR.CurrentValue, s.RHRDeviation), s.RHR.Trend),
		renderMetric("ACWR", acwr, ""),
		renderMetric("Weekly Load", humanize.FormatFloat("#,###.", s.WeeklyTSS)+" TSS", ""),
	}
	return cardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (r *TerminalRenderer) activityCard(s *analysis.ActivityResult) string {
	lines := []string{
		cardTitleStyle.Render("Activity"),
		renderMetric("Activities", fmt.Sprintf("%d", s.TotalActivities), s.WeeklyVolumeTrend),
		renderMetric("Duration", fmt.Sprintf("%.1f h", s.TotalDurationHours), ""),
		renderMetric("Distance", humanize.FormatFloat("#,###.#", s.TotalDistanceKm)+" km", ""),
		renderMetric("Calories", humanize.Comma(int64(s.TotalCalories)), ""),
	}
	if ts := s.TrainingStress; ts != nil {
		lines = append(lines,
			renderMetric("Form (TSB)", fmt.Sprintf("%.0f", ts.TSB), ""),
			mutedStyle.Render(analysis.FormDescription(ts.TSB)),
		)
	}
	return cardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// chart plots a daily series, returning "" when there are fewer than two points
func (r *TerminalRenderer) chart(title string, data []float64, precision uint) string {
	if len(data) < 2 {
		return ""
	}

	width := r.ChartWidth
	if width <= 0 {
		width = defaultChartWidth
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(chartHeight),
		asciigraph.Width(width),
		asciigraph.Precision(precision),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, cardTitleStyle.Render(title), graph))
}

func (r *TerminalRenderer) insights(insights []analysis.Insight) string {
	lines := []string{cardTitleStyle.Render("Key Insights")}
	for _, in := range insights {
		style := severityStyle(in.Severity)
		lines = append(lines, style.Render(fmt.Sprintf("%s %s", in.Severity.Icon(), in.Title)))
		lines = append(lines, "   "+in.Description)
		for _, rec := range in.Recommendations {
			lines = append(lines, mutedStyle.Render("   • "+rec))
		}
	}
	return strings.Join(lines, "\n")
}
