package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"health-insights/internal/analysis"
)

// DataSource is written to the report front matter
const DataSource = "garmin_connect"

// MarkdownRenderer renders reports as Markdown suitable for reading or
// pasting into an LLM prompt
type MarkdownRenderer struct {
	IncludeMetadata bool
}

// NewMarkdownRenderer creates a renderer that includes YAML front matter
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{IncludeMetadata: true}
}

// Render renders the complete report
func (r *MarkdownRenderer) Render(report *analysis.HealthReport) string {
	var sections []string

	if r.IncludeMetadata {
		sections = append(sections, r.frontMatter(report))
	}

	sections = append(sections,
		fmt.Sprintf("# Health Report: %s", period(report.PeriodStart, report.PeriodEnd)),
		fmt.Sprintf("*Generated: %s*", report.GeneratedAt.Format("2006-01-02 15:04")),
	)

	if report.Sleep != nil {
		sections = append(sections, r.RenderSleep(report.Sleep))
	}
	if report.Stress != nil {
		sections = append(sections, r.RenderStress(report.Stress))
	}
	if report.Recovery != nil {
		sections = append(sections, r.RenderRecovery(report.Recovery))
	}
	if report.Activity != nil {
		sections = append(sections, r.RenderActivity(report.Activity))
	}
	if len(report.KeyInsights) > 0 {
		sections = append(sections, renderInsightSection("## Key Insights", report.KeyInsights))
	}

	return strings.Join(sections, "\n\n") + "\n"
}

func (r *MarkdownRenderer) frontMatter(report *analysis.HealthReport) string {
	lines := []string{
		"---",
		"report_id: " + report.ID,
		"report_type: health_analysis",
		"generated: " + report.GeneratedAt.Format(time.RFC3339),
		"period_start: " + formatDate(report.PeriodStart),
		"period_end: " + formatDate(report.PeriodEnd),
		"data_source: " + DataSource,
		fmt.Sprintf("format_version: %q", report.Metadata.Version),
		"---",
	}
	return strings.Join(lines, "\n")
}

// RenderSleep renders the sleep section
func (r *MarkdownRenderer) RenderSleep(result *analysis.SleepResult) string {
	lines := []string{
		"## Sleep Analysis",
		"",
		fmt.Sprintf("*Period: %s*", period(result.PeriodStart, result.PeriodEnd)),
		"",
		"### Summary",
		"",
		"| Metric | Current | 7-day Avg | Trend |",
		"|--------|---------|-----------|-------|",
		metricRow(result.TotalSleep),
		metricRow(result.DeepSleep),
		metricRow(result.RemSleep),
		"",
		fmt.Sprintf("**Sleep Consistency Score:** %.0f/100", result.ConsistencyScore),
	}

	if result.BestDay != "" || result.WorstDay != "" {
		lines = append(lines, "", "### Patterns", "")
		if result.BestDay != "" {
			lines = append(lines, "- **Best Sleep Day:** "+result.BestDay)
		}
		if result.WorstDay != "" {
			lines = append(lines, "- **Worst Sleep Day:** "+result.WorstDay)
		}
	}

	if len(result.Insights) > 0 {
		lines = append(lines, "", renderInsightSection("### Insights", result.Insights))
	}

	return strings.Join(lines, "\n")
}

// RenderStress renders the stress section
func (r *MarkdownRenderer) RenderStress(result *analysis.StressResult) string {
	lines := []string{
		"## Stress Analysis",
		"",
		fmt.Sprintf("*Period: %s*", period(result.PeriodStart, result.PeriodEnd)),
		"",
		"### Distribution",
		"",
		fmt.Sprintf("- **Low Stress:** %.1f%%", result.LowPercent),
		fmt.Sprintf("- **Medium Stress:** %.1f%%", result.MediumPercent),
		fmt.Sprintf("- **High Stress:** %.1f%%", result.HighPercent),
		"",
		"### Load",
		"",
		fmt.Sprintf("- **Average Stress:** %.1f %s", result.AvgStress.CurrentValue, result.AvgStress.Trend.Icon()),
		fmt.Sprintf("- **Personal Baseline:** %.1f", result.PersonalBaseline),
		fmt.Sprintf("- **Stress Load:** %.1f over %s minutes (avg intensity %.1f)",
			result.Load.TotalLoad, humanize.Comma(int64(result.Load.PeriodMinutes)), result.Load.AvgIntensity),
		"- **Peak Hour:** " + formatHour(result.PeakStressHour),
		"- **Calmest Hour:** " + formatHour(result.LowestStressHour),
	}

	if len(result.PostActivity) > 0 {
		lines = append(lines,
			"",
			"### Post-Activity Recovery",
			"",
			"| Activity | Ended | Pre | Peak | Recovery |",
			"|----------|-------|-----|------|----------|",
		)
		for _, p := range result.PostActivity {
			recovery := "not recovered"
			if p.RecoveryMinutes != nil {
				recovery = fmt.Sprintf("%d min", *p.RecoveryMinutes)
			}
			lines = append(lines, fmt.Sprintf("| %s | %s | %.0f | %.0f | %s |",
				titleCase(p.Sport), p.ActivityEnd.Format("2006-01-02 15:04"),
				p.PreActivityStress, p.PeakPostStress, recovery))
		}
		lines = append(lines,
			"",
			"- **Average Recovery Time:** "+formatPtr(result.AvgRecoveryMinutes, "%.0f min"),
			"- **Recovery Efficiency:** "+formatPtr(result.RecoveryEfficiency, "%.1f/100"),
		)
	}

	if len(result.Insights) > 0 {
		lines = append(lines, "", renderInsightSection("### Insights", result.Insights))
	}

	return strings.Join(lines, "\n")
}

// RenderRecovery renders the recovery section
func (r *MarkdownRenderer) RenderRecovery(result *analysis.RecoveryResult) string {
	lines := []string{
		"## Recovery Analysis",
		"",
		fmt.Sprintf("*Period: %s*", period(result.PeriodStart, result.PeriodEnd)),
		"",
		fmt.Sprintf("**Recovery Score:** %d/100 %s", result.RecoveryScore, result.Trend.Icon()),
		"",
		"| Metric | Current | 7-day Avg | Trend |",
		"|--------|---------|-----------|-------|",
		metricRow(result.RHR),
		metricRow(result.BodyBattery),
		metricRow(result.TrainingLoad),
		"",
		fmt.Sprintf("- **RHR Baseline:** %.1f bpm (%+.1f)", result.RHRBaseline, result.RHRDeviation),
		fmt.Sprintf("- **Weekly Training Load:** %.1f TSS", result.WeeklyTSS),
	}

	if result.ACWR != nil {
		lines = append(lines, fmt.Sprintf("- **ACWR:** %.2f (%s)", *result.ACWR, result.ACWRZone))
	} else {
		lines = append(lines, "- **ACWR:** "+none)
	}

	lines = append(lines, fmt.Sprintf("- **Days Analyzed:** %d (%d high, %d low recovery)",
		result.DaysAnalyzed, result.HighRecoveryDays, result.LowRecoveryDays))

	if len(result.Insights) > 0 {
		lines = append(lines, "", renderInsightSection("### Insights", result.Insights))
	}

	return strings.Join(lines, "\n")
}

// RenderActivity renders the activity section
func (r *MarkdownRenderer) RenderActivity(result *analysis.ActivityResult) string {
	lines := []string{
		"## Activity Summary",
		"",
		fmt.Sprintf("*Period: %s*", period(result.PeriodStart, result.PeriodEnd)),
		"",
		fmt.Sprintf("- **Total Activities:** %d", result.TotalActivities),
		fmt.Sprintf("- **Total Duration:** %.1f hours", result.TotalDurationHours),
		fmt.Sprintf("- **Total Distance:** %s km", humanize.FormatFloat("#,###.#", result.TotalDistanceKm)),
		"- **Total Calories:** " + humanize.Comma(int64(result.TotalCalories)),
		fmt.Sprintf("- **Weekly Volume:** %s %s", result.WeeklyVolumeTrend, result.WeeklyVolumeTrend.Icon()),
	}

	if len(result.ActivitiesBySport) > 0 {
		lines = append(lines, "", "### By Sport", "")
		for _, sport := range sortedSports(result.ActivitiesBySport) {
			lines = append(lines, fmt.Sprintf("- **%s:** %d", sport, result.ActivitiesBySport[sport]))
		}
	}

	if ts := result.TrainingStress; ts != nil {
		lines = append(lines,
			"",
			"### Training Stress",
			"",
			"| Fitness (CTL) | Fatigue (ATL) | Form (TSB) | Monotony | Strain |",
			"|---------------|---------------|------------|----------|--------|",
			fmt.Sprintf("| %.1f | %.1f | %.1f | %s | %.1f |",
				ts.CTL, ts.ATL, ts.TSB, formatPtr(ts.Monotony, "%.2f"), ts.Strain),
			"",
			fmt.Sprintf("**Form:** %s", analysis.FormDescription(ts.TSB)),
			"",
			fmt.Sprintf("**Load Confidence:** %.0f%% (%s)",
				ts.ConfidenceScore*100, analysis.ConfidenceDescription(ts.ConfidenceScore)),
		)
	}

	if len(result.Sports) > 0 {
		lines = append(lines,
			"",
			"### Sports",
			"",
			"| Sport | Count | Distance | Duration | Avg HR | Max TE |",
			"|-------|-------|----------|----------|--------|--------|",
		)
		for _, s := range result.Sports {
			lines = append(lines, fmt.Sprintf("| %s | %d | %.1f km | %.1f h | %s | %.1f |",
				titleCase(s.Name), s.Count, s.TotalDistanceKm, s.TotalDurationHours,
				formatPtr(s.AvgHR, "%.0f"), s.MaxTrainingEffect))
		}
	}

	if len(result.IntensityDistribution) > 0 {
		lines = append(lines, "", "### Intensity Distribution", "")
		for _, share := range result.IntensityDistribution {
			lines = append(lines, fmt.Sprintf("- **%s:** %.1f%%", titleCase(share.Band), share.Percent))
		}
	}

	if len(result.Insights) > 0 {
		lines = append(lines, "", renderInsightSection("### Insights", result.Insights))
	}

	return strings.Join(lines, "\n")
}

func metricRow(m analysis.MetricSummary) string {
	avg := none
	if m.Average7d != nil {
		avg = withUnit(*m.Average7d, m.Unit)
	}
	return fmt.Sprintf("| %s | %s | %s | %s |", m.Name, withUnit(m.CurrentValue, m.Unit), avg, m.Trend.Icon())
}

func renderInsight(in analysis.Insight) string {
	lines := []string{
		fmt.Sprintf("#### %s %s", in.Severity.Icon(), in.Title),
		"",
		in.Description,
	}
	if len(in.Recommendations) > 0 {
		lines = append(lines, "", "**Recommendations:**")
		for _, rec := range in.Recommendations {
			lines = append(lines, "- "+rec)
		}
	}
	return strings.Join(lines, "\n")
}

func renderInsightSection(heading string, insights []analysis.Insight) string {
	parts := []string{heading}
	for _, in := range insights {
		parts = append(parts, renderInsight(in))
	}
	return strings.Join(parts, "\n\n")
}
