package ui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

// ScanFunc runs a scan reporting to onProgress.
type ScanFunc func(ctx context.Context, onProgress func(schema.Progress)) *schema.CorpusSnapshot

// RunWithProgress runs scan in the background while rendering its progress
// to out. Ctrl-C cancels ctx for the scan; the partial snapshot is still
// returned.
func RunWithProgress(ctx context.Context, title string, out io.Writer, scan ScanFunc) (*schema.CorpusSnapshot, error) {
	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan schema.Progress, 256)
	outcome := make(chan *schema.CorpusSnapshot, 1)

	go func() {
		snap := scan(scanCtx, func(p schema.Progress) {
			select {
			case events <- p:
			default:
				// Drop updates the renderer cannot keep up with.
			}
		})
		outcome <- snap
		close(events)
	}()

	model := NewProgressModel(title, events, cancel)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx))
	_, uiErr := program.Run()
	snap := <-outcome
	if uiErr != nil && ctx.Err() == nil {
		return snap, uiErr
	}
	return snap, nil
}
