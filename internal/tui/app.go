// Package tui provides a scrollable terminal pager for rendered reports.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// chrome is the number of lines used by the header and footer
const chrome = 3

// LoadFunc produces the report text shown by the viewer
type LoadFunc func() (string, error)

// Viewer is the root Bubble Tea model of the report pager
type Viewer struct {
	title    string
	load     LoadFunc
	content  string
	viewport viewport.Model
	loading  bool
	showHelp bool
	err      error
	width    int
	height   int
	ready    bool
}

// NewViewer creates a viewer that calls load on start and on refresh
func NewViewer(title string, load LoadFunc) *Viewer {
	return &Viewer{
		title:   title,
		load:    load,
		loading: true,
	}
}

// Run starts the viewer in the alternate screen and blocks until it quits
func Run(title string, load LoadFunc) error {
	p := tea.NewProgram(NewViewer(title, load), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running viewer: %w", err)
	}
	return nil
}

type reportLoadedMsg struct {
	content string
	err     error
}

func (v *Viewer) loadReport() tea.Msg {
	content, err := v.load()
	return reportLoadedMsg{content: content, err: err}
}

// Init starts loading the report
func (v *Viewer) Init() tea.Cmd {
	return v.loadReport
}

// Update handles messages
func (v *Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case reportLoadedMsg:
		v.loading = false
		v.err = msg.err
		v.content = msg.content
		if v.ready {
			v.viewport.SetContent(v.content)
			v.viewport.GotoTop()
		}
		return v, nil

	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		if !v.ready {
			v.viewport = viewport.New(msg.Width, msg.Height-chrome)
			v.ready = true
		} else {
			v.viewport.Width = msg.Width
			v.viewport.Height = msg.Height - chrome
		}
		v.viewport.SetContent(v.currentContent())
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return v, tea.Quit
		case "esc":
			if v.showHelp {
				v.toggleHelp()
				return v, nil
			}
			return v, tea.Quit
		case "?":
			v.toggleHelp()
			return v, nil
		case "r":
			if !v.loading {
				v.loading = true
				v.showHelp = false
				return v, v.loadReport
			}
			return v, nil
		case "g", "home":
			v.viewport.GotoTop()
			return v, nil
		case "G", "end":
			v.viewport.GotoBottom()
			return v, nil
		}
	}

	// Handle viewport scrolling
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

func (v *Viewer) toggleHelp() {
	v.showHelp = !v.showHelp
	v.viewport.SetContent(v.currentContent())
	v.viewport.GotoTop()
}

func (v *Viewer) currentContent() string {
	if v.showHelp {
		return renderHelp()
	}
	return v.content
}

// View renders the viewer
func (v *Viewer) View() string {
	header := headerStyle.Render(v.title)

	if v.loading {
		return lipgloss.JoinVertical(lipgloss.Left, header, "\n  Generating report...")
	}

	if v.err != nil {
		return lipgloss.JoinVertical(lipgloss.Left, header,
			errorStyle.Render(fmt.Sprintf("\n  Error: %v", v.err)),
			statusStyle.Render("  r: retry  q: quit"))
	}

	if !v.ready {
		return "\n  Initializing..."
	}

	footer := statusStyle.Render(fmt.Sprintf("  %3.0f%%  j/k or arrows: scroll  r: refresh  ?: help  q: quit",
		v.viewport.ScrollPercent()*100))

	return lipgloss.JoinVertical(lipgloss.Left, header, v.viewport.View(), footer)
}
