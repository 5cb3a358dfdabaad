package report

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/mattn/go-runewidth"

	"github.com/yorozuya-cybersecurity/docaudit/internal/aggregate"
	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

//go:embed templates/report.html.tmpl
var reportHTMLTemplate string

// Generator is the name written into generated reports.
const Generator = "docaudit"

// ---------- Public API ----------

func GenerateHTML(snap *schema.CorpusSnapshot, outDir string) (string, error) {
	vm := buildViewModel(snap, time.Now().UTC())

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("create out dir: %w", err)
	}

	tmpl, err := template.New("report").Parse(reportHTMLTemplate)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vm); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	htmlPath := filepath.Join(outDir, "report.html")
	if err := os.WriteFile(htmlPath, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("write report.html: %w", err)
	}

	return htmlPath, nil
}

// GeneratePDF prints the HTML report with headless Chrome next to it.
func GeneratePDF(ctx context.Context, htmlPath string) (string, error) {
	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return "", err
	}
	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, time.Minute)
	defer cancelTimeout()

	var pdf []byte
	err = chromedp.Run(ctx,
		chromedp.Navigate("file://"+filepath.ToSlash(abs)),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		return "", fmt.Errorf("chrome print: %w", err)
	}

	pdfPath := strings.TrimSuffix(abs, ".html") + ".pdf"
	if err := os.WriteFile(pdfPath, pdf, 0644); err != nil {
		return "", fmt.Errorf("write report.pdf: %w", err)
	}
	return pdfPath, nil
}

// ---------- View Model & helpers ----------

type viewModel struct {
	Root               string
	SnapshotID         string
	ScanTime           string
	Partial            bool
	DuplicatesComplete bool
	Total              int
	DocumentCount      int
	Issues             int
	Warnings           int
	Notices            int
	Score              float64
	Grade              string
	Documents          []documentRow
	Generator          string
	GeneratedAt        string
	Year               int
}

type documentRow struct {
	ID        string
	Name      string
	Anchor    string
	Score     float64
	Grade     string
	Issues    int
	Warnings  int
	Notices   int
	AllPassed bool
	Findings  []findingRow
}

type findingRow struct {
	Severity   string
	Check      string
	Line       int
	Message    string
	Suggestion string
}

func buildViewModel(snap *schema.CorpusSnapshot, now time.Time) viewModel {
	vm := viewModel{
		Root:               emptyFallback(snap.Root, "."),
		SnapshotID:         emptyFallback(snap.ID, "-"),
		ScanTime:           snap.Timestamp.UTC().Format(time.RFC3339),
		Partial:            snap.Partial,
		DuplicatesComplete: snap.DuplicatesComplete,
		Total:              snap.Total,
		DocumentCount:      len(snap.Results),
		Score:              aggregate.CorpusScore(snap.Results),
		Generator:          Generator,
		GeneratedAt:        now.Format(time.RFC3339),
		Year:               now.Year(),
	}
	vm.Grade = aggregate.Grade(vm.Score)

	for i, r := range snap.Results {
		vm.Issues += r.IssuesCount
		vm.Warnings += r.WarningsCount
		vm.Notices += r.NoticesCount
		vm.Documents = append(vm.Documents, documentRow{
			ID:        r.DocumentID,
			Name:      emptyFallback(r.DisplayName, r.DocumentID),
			Anchor:    fmt.Sprintf("doc-%d", i),
			Score:     r.OverallScore,
			Grade:     aggregate.Grade(r.OverallScore),
			Issues:    r.IssuesCount,
			Warnings:  r.WarningsCount,
			Notices:   r.NoticesCount,
			AllPassed: r.AllPassed(),
			Findings:  findingRows(r.Checks),
		})
	}

	// Worst documents first, then by ID.
	sort.SliceStable(vm.Documents, func(i, j int) bool {
		a, b := vm.Documents[i], vm.Documents[j]
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		return a.ID < b.ID
	})
	return vm
}

// findingRows lists the non-info findings, most severe first, keeping
// check order within a severity.
func findingRows(checks schema.CheckResults) []findingRow {
	var rows []findingRow
	for _, cr := range checks {
		for _, f := range cr.Findings {
			if f.Severity == schema.SeverityInfo {
				continue
			}
			row := findingRow{
				Severity:   f.Severity.String(),
				Check:      cr.Name,
				Message:    trimTo(f.Message, 500),
				Suggestion: trimTo(f.Suggestion, 300),
			}
			if f.Position != nil {
				row.Line = f.Position.Line
			}
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return schema.Severity(rows[i].Severity).Rank() > schema.Severity(rows[j].Severity).Rank()
	})
	return rows
}

func trimTo(s string, n int) string {
	s = strings.TrimSpace(s)
	if runewidth.StringWidth(s) <= n {
		return s
	}
	return runewidth.Truncate(s, n, "...")
}

func emptyFallback(s, fb string) string {
	if strings.TrimSpace(s) == "" {
		return fb
	}
	return s
}
