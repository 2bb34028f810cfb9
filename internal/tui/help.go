package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type keyHelp struct {
	key  string
	desc string
}

// renderHelp renders the key bindings and a glossary of report metrics
func renderHelp() string {
	var sections []string

	sections = append(sections, cardTitleStyle.Render("Keyboard Shortcuts"))
	sections = append(sections, renderSection("Navigation", []keyHelp{
		{"j / down", "Scroll down"},
		{"k / up", "Scroll up"},
		{"pgdn / space", "Page down"},
		{"pgup / b", "Page up"},
		{"g / home", "Top of report"},
		{"G / end", "Bottom of report"},
		{"r", "Regenerate report"},
		{"?", "Toggle help"},
		{"q / esc", "Quit (esc closes help)"},
	}))
	sections = append(sections, renderMetricsHelp())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderSection(title string, keys []keyHelp) string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, sectionStyle.Render(title))

	for _, k := range keys {
		lines = append(lines, "  "+RenderKeyHelp(k.key, k.desc))
	}

	return strings.Join(lines, "\n")
}

func renderMetricsHelp() string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, sectionStyle.Render("Metrics Explained"))
	lines = append(lines, "")

	metrics := []struct {
		name string
		desc string
	}{
		{"Consistency", "How regular sleep duration is. 100 = identical every night."},
		{"Stress Load", "Area under the stress curve, normalized per hour of data."},
		{"Recovery Score", "Blend of resting HR deviation, body battery and sleep (0-100)."},
		{"ACWR", "Acute (7d) to chronic (28d) load ratio. 0.8-1.3 is the sweet spot."},
		{"CTL (Fitness)", "Chronic training load - 42 day EMA of daily load."},
		{"ATL (Fatigue)", "Acute training load - 7 day EMA of daily load."},
		{"TSB (Form)", "Training stress balance = CTL - ATL. Positive = fresh."},
	}

	for _, metric := range metrics {
		lines = append(lines, "  "+helpKeyStyle.Render(metric.name))
		lines = append(lines, "  "+mutedStyle.Render(metric.desc))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
