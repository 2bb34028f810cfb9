// Package report renders health reports as Markdown or styled terminal text.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"health-insights/internal/analysis"
)

// Renderer turns a report into text
type Renderer interface {
	Render(report *analysis.HealthReport) string
}

const (
	dateLayout = "2006-01-02"
	none       = "---"
)

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func period(start, end time.Time) string {
	return formatDate(start) + " to " + formatDate(end)
}

func formatPtr(p *float64, format string) string {
	if p == nil {
		return none
	}
	return fmt.Sprintf(format, *p)
}

func formatHour(h *int) string {
	if h == nil {
		return none
	}
	return fmt.Sprintf("%02d:00", *h)
}

// withUnit joins a value and unit, with no space before "%"
func withUnit(value float64, unit string) string {
	switch unit {
	case "":
		return fmt.Sprintf("%.1f", value)
	case "%":
		return fmt.Sprintf("%.1f%%", value)
	default:
		return fmt.Sprintf("%.1f %s", value, unit)
	}
}

func sortedSports(counts map[string]int) []string {
	sports := make([]string, 0, len(counts))
	for sport := range counts {
		sports = append(sports, sport)
	}
	sort.Strings(sports)
	return sports
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
