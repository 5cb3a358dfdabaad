// Package ui renders scan progress in the terminal.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/yorozuya-cybersecurity/docaudit/internal/scan"
	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

type progressModel struct {
	title      string
	events     <-chan schema.Progress
	cancel     func()
	spinner    spinner.Model
	prog       progress.Model
	last       schema.Progress
	width      int
	cancelling bool
	done       bool
}

type eventMsg schema.Progress
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model fed by scheduler progress.
// Ctrl-C calls cancel and keeps rendering until events is closed, so the
// batch in flight can finish.
func NewProgressModel(title string, events <-chan schema.Progress, cancel func()) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	return &progressModel{
		title:   title,
		events:  events,
		cancel:  cancel,
		spinner: sp,
		prog:    prog,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m.last = schema.Progress(msg)
		return m, tea.Batch(m.prog.SetPercent(m.last.Percentage/100), m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.cancelling && m.cancel != nil {
				m.cancelling = true
				m.cancel()
			}
		}
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	header := truncate(m.title, m.width-4)
	switch {
	case m.done:
		header = "done: " + header
	case m.cancelling:
		header = fmt.Sprintf("%s cancelling: %s", m.spinner.View(), header)
	default:
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  %s", statusLine(m.last)))
	b.WriteString("\n\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(m.last.Percentage / 100))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	if !m.done && !m.cancelling {
		b.WriteString(dim.Render("  ctrl+c to stop after the current batch"))
		b.WriteString("\n")
	}
	return b.String()
}

func statusLine(p schema.Progress) string {
	label := "checking documents"
	if p.Phase == scan.PhaseDuplicates {
		label = "comparing document pairs"
	}
	line := fmt.Sprintf("%s %d/%d (%.0f%%)  elapsed %s", label, p.Current, p.Total, p.Percentage, round(p.Elapsed))
	if p.EstimatedRemaining > 0 {
		line += fmt.Sprintf("  remaining ~%s", round(p.EstimatedRemaining))
	}
	return line
}

func round(d time.Duration) time.Duration {
	if d < time.Second {
		return d.Round(time.Millisecond)
	}
	return d.Round(time.Second)
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
