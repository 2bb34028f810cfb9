package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sized(t *testing.T, v *Viewer) *Viewer {
	t.Helper()
	m, _ := v.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	return m.(*Viewer)
}

func TestViewerLoadsReport(t *testing.T) {
	calls := 0
	v := sized(t, NewViewer("Weekly Report", func() (string, error) {
		calls++
		return "# Health Report\nline two", nil
	}))

	assert.Contains(t, v.View(), "Generating report")

	cmd := v.Init()
	require.NotNil(t, cmd)
	v.Update(cmd())

	assert.Equal(t, 1, calls)
	out := v.View()
	assert.Contains(t, out, "Weekly Report")
	assert.Contains(t, out, "# Health Report")
	assert.Contains(t, out, "?: help")

	// Refresh reloads through the same function
	_, cmd = v.Update(key("r"))
	require.NotNil(t, cmd)
	v.Update(cmd())
	assert.Equal(t, 2, calls)
}

func TestViewerShowsError(t *testing.T) {
	v := sized(t, NewViewer("Report", func() (string, error) {
		return "", errors.New("database is locked")
	}))
	v.Update(v.Init()())

	out := v.View()
	assert.Contains(t, out, "Error: database is locked")
	assert.Contains(t, out, "r: retry")
}

func TestViewerHelpToggle(t *testing.T) {
	v := sized(t, NewViewer("Report", func() (string, error) { return "report body", nil }))
	v.Update(v.Init()())

	v.Update(key("?"))
	assert.True(t, v.showHelp)
	assert.Contains(t, v.View(), "Keyboard Shortcuts")

	// esc closes help before quitting
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.False(t, v.showHelp)
	assert.Contains(t, v.View(), "report body")
}

func TestViewerQuit(t *testing.T) {
	v := sized(t, NewViewer("Report", func() (string, error) { return "", nil }))

	_, cmd := v.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRenderHelp(t *testing.T) {
	help := renderHelp()
	for _, want := range []string{"Keyboard Shortcuts", "Regenerate report", "ACWR", "TSB (Form)"} {
		assert.True(t, strings.Contains(help, want), "help should mention %q", want)
	}
}
