package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorozuya-cybersecurity/docaudit/internal/scan"
	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

func TestProgressModel_RendersLatestEvent(t *testing.T) {
	events := make(chan schema.Progress)
	m := NewProgressModel("Auditing docs", events, nil)

	m, cmd := m.Update(eventMsg(schema.Progress{
		Phase: scan.PhaseDocuments, Current: 3, Total: 10, Percentage: 30,
		Elapsed: 3 * time.Second, EstimatedRemaining: 7 * time.Second,
	}))
	assert.NotNil(t, cmd)

	view := m.View()
	assert.Contains(t, view, "Auditing docs")
	assert.Contains(t, view, "checking documents 3/10 (30%)")
	assert.Contains(t, view, "remaining ~7s")
}

func TestProgressModel_CtrlCCancelsOnce(t *testing.T) {
	calls := 0
	m := NewProgressModel("scan", make(chan schema.Progress), func() { calls++ })

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Equal(t, 1, calls)
	assert.Contains(t, m.View(), "cancelling")
}

func TestProgressModel_QuitsWhenEventsClose(t *testing.T) {
	m := NewProgressModel("scan", nil, nil)
	m, cmd := m.Update(doneMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Contains(t, m.View(), "done: scan")
}

func TestStatusLine_DuplicatePhase(t *testing.T) {
	line := statusLine(schema.Progress{Phase: scan.PhaseDuplicates, Current: 5, Total: 10, Percentage: 50})
	assert.Contains(t, line, "comparing document pairs 5/10")
	assert.NotContains(t, line, "remaining")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
	assert.Equal(t, 40, runewidth.StringWidth(truncate(strings.Repeat("x", 60), 40)))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
