package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

func fixture() *schema.CorpusSnapshot {
	return &schema.CorpusSnapshot{
		ID:        "snap-1",
		Root:      "/vault",
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Total:     2,
		Results: []schema.DocumentAuditResult{
			{
				DocumentID: "clean.md", DisplayName: "clean", OverallScore: 100,
				Checks: schema.CheckResults{{Name: "content-length", Findings: []schema.Finding{
					{Passed: true, Message: "Content is 400 words", Severity: schema.SeverityInfo},
				}}},
			},
			{
				DocumentID: "notes/messy.md", DisplayName: "messy", OverallScore: 85,
				IssuesCount: 1, WarningsCount: 1, NoticesCount: 1,
				Checks: schema.CheckResults{
					{Name: "keyword-density", Findings: []schema.Finding{
						{Passed: true, Message: "No keyword configured", Severity: schema.SeverityNotice},
					}},
					{Name: "heading-order", Findings: []schema.Finding{
						{Message: "Heading jumps from H2 to H4", Suggestion: "Use H3 here.", Severity: schema.SeverityWarning,
							Position: &schema.Position{Line: 7}},
					}},
					{Name: "broken-links", Findings: []schema.Finding{
						{Message: `Broken link to "gone.md"`, Severity: schema.SeverityError,
							Position: &schema.Position{Line: 3}},
					}},
				},
			},
		},
		DuplicatesComplete: true,
	}
}

func TestBuildViewModel(t *testing.T) {
	vm := buildViewModel(fixture(), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 92.5, vm.Score)
	assert.Equal(t, "A", vm.Grade)
	assert.Equal(t, 1, vm.Issues)
	require.Len(t, vm.Documents, 2)
	assert.Equal(t, "notes/messy.md", vm.Documents[0].ID)
	assert.Equal(t, "B", vm.Documents[0].Grade)

	sev := []string{}
	for _, f := range vm.Documents[0].Findings {
		sev = append(sev, f.Severity)
	}
	assert.Equal(t, []string{"error", "warning", "notice"}, sev)
	assert.Empty(t, vm.Documents[1].Findings)
	assert.True(t, vm.Documents[1].AllPassed)
}

func TestGenerateHTML(t *testing.T) {
	dir := t.TempDir()
	path, err := GenerateHTML(fixture(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.html"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "notes/messy.md")
	assert.Contains(t, html, "Heading jumps from H2 to H4")
	assert.Contains(t, html, "All checks passed.")
	assert.NotContains(t, html, "stopped early")
}

func TestGenerateHTML_Partial(t *testing.T) {
	snap := fixture()
	snap.Partial = true
	snap.DuplicatesComplete = false
	snap.Total = 5
	path, err := GenerateHTML(snap, t.TempDir())
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2 of 5 documents were checked")
}

func TestExportSARIF(t *testing.T) {
	path, err := ExportSARIF(fixture(), t.TempDir(), "audit", "1.2.3")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var log sarifLog
	require.NoError(t, json.Unmarshal(data, &log))

	assert.Equal(t, "2.1.0", log.Version)
	require.Len(t, log.Runs, 1)
	assert.Equal(t, "docaudit", log.Runs[0].Tool.Driver.Name)
	assert.NotEmpty(t, log.Runs[0].Tool.Driver.Rules)

	results := log.Runs[0].Results
	require.Len(t, results, 3)
	levels := map[string]string{}
	for _, r := range results {
		levels[r.RuleID] = r.Level
		assert.Equal(t, "notes/messy.md", r.Locations[0].PhysicalLocation.ArtifactLocation.URI)
	}
	assert.Equal(t, map[string]string{
		"broken-links":    "error",
		"heading-order":   "warning",
		"keyword-density": "note",
	}, levels)
	assert.Equal(t, 1, results[0].Locations[0].PhysicalLocation.Region.StartLine)
	assert.Equal(t, 3, results[1].Locations[0].PhysicalLocation.Region.StartLine)
}

func TestWriteSnapshot(t *testing.T) {
	var buf bytes.Buffer
	WriteSnapshot(&buf, fixture(), TextOptions{})
	out := buf.String()

	assert.Contains(t, out, "notes/messy.md  score 85 (B)  1 issue, 1 warning, 1 notice")
	assert.Contains(t, out, "broken-links Broken link to \"gone.md\" (line 3)")
	assert.Contains(t, out, "Use H3 here.")
	assert.NotContains(t, out, "clean.md")
	assert.Contains(t, out, "Summary: 2 documents, corpus score 92.5 (A)")
}

func TestWriteDocument_Verbose(t *testing.T) {
	var buf bytes.Buffer
	WriteDocument(&buf, fixture().Results[0], TextOptions{Verbose: true})
	assert.Contains(t, buf.String(), "all checks passed")
	assert.Contains(t, buf.String(), "Content is 400 words")
}

func TestWriteSnapshot_Partial(t *testing.T) {
	snap := fixture()
	snap.Partial = true
	snap.Total = 9
	var buf bytes.Buffer
	WriteSnapshot(&buf, snap, TextOptions{})
	assert.Contains(t, buf.String(), "Scan stopped early: 2 of 9 documents checked")
}
