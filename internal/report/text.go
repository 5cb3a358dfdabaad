// Package report renders audit results: terminal text, HTML, PDF and SARIF.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/yorozuya-cybersecurity/docaudit/internal/aggregate"
	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

// TextOptions controls terminal output.
type TextOptions struct {
	Color bool
	// Verbose also lists info findings.
	Verbose bool
	// Width truncates long lines; 0 disables truncation.
	Width int
}

type palette struct {
	err, warn, note, info, bold, dim *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow),
		note: color.New(color.FgCyan),
		info: color.New(color.FgGreen),
		bold: color.New(color.Bold),
		dim:  color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.note, p.info, p.bold, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s schema.Severity) *color.Color {
	switch s {
	case schema.SeverityError:
		return p.err
	case schema.SeverityWarning:
		return p.warn
	case schema.SeverityNotice:
		return p.note
	default:
		return p.info
	}
}

// WriteDocument prints one document result.
func WriteDocument(w io.Writer, r schema.DocumentAuditResult, opts TextOptions) {
	writeDocument(w, r, opts, newPalette(opts.Color))
}

func writeDocument(w io.Writer, r schema.DocumentAuditResult, opts TextOptions, p palette) {
	grade := aggregate.Grade(r.OverallScore)
	fmt.Fprintf(w, "%s  score %s  %s\n",
		p.bold.Sprint(r.DocumentID),
		gradeColor(p, grade).Sprintf("%.0f (%s)", r.OverallScore, grade),
		p.dim.Sprint(counts(r.IssuesCount, r.WarningsCount, r.NoticesCount)))
	if r.AllPassed() {
		fmt.Fprintf(w, "  %s\n", p.info.Sprint("all checks passed"))
	}
	for _, cr := range r.Checks {
		for _, f := range cr.Findings {
			if f.Severity == schema.SeverityInfo && !opts.Verbose {
				continue
			}
			loc := ""
			if f.Position != nil && f.Position.Line > 0 {
				loc = fmt.Sprintf(" (line %d)", f.Position.Line)
			}
			line := fmt.Sprintf("%s %s%s", cr.Name, f.Message, loc)
			fmt.Fprintf(w, "  %s %s\n", p.severity(f.Severity).Sprintf("%-7s", f.Severity), clip(line, opts.Width-10))
			if f.Suggestion != "" && f.Severity != schema.SeverityInfo {
				fmt.Fprintf(w, "          %s\n", p.dim.Sprint(clip(f.Suggestion, opts.Width-10)))
			}
		}
	}
}

// WriteSnapshot prints every document followed by a corpus summary.
func WriteSnapshot(w io.Writer, snap *schema.CorpusSnapshot, opts TextOptions) {
	p := newPalette(opts.Color)
	var issues, warnings, notices int
	for _, r := range snap.Results {
		if !r.AllPassed() || opts.Verbose {
			writeDocument(w, r, opts, p)
			fmt.Fprintln(w)
		}
		issues += r.IssuesCount
		warnings += r.WarningsCount
		notices += r.NoticesCount
	}

	score := aggregate.CorpusScore(snap.Results)
	grade := aggregate.Grade(score)
	fmt.Fprintf(w, "%s %d documents, corpus score %s, %s\n",
		p.bold.Sprint("Summary:"),
		len(snap.Results),
		gradeColor(p, grade).Sprintf("%.1f (%s)", score, grade),
		counts(issues, warnings, notices))
	if snap.Partial {
		msg := fmt.Sprintf("Scan stopped early: %d of %d documents checked", len(snap.Results), snap.Total)
		if !snap.DuplicatesComplete {
			msg += ", duplicate detection incomplete"
		}
		fmt.Fprintln(w, p.warn.Sprint(msg))
	}
}

func gradeColor(p palette, grade string) *color.Color {
	switch grade {
	case "A", "B":
		return p.info
	case "C", "D":
		return p.warn
	default:
		return p.err
	}
}

func counts(issues, warnings, notices int) string {
	return fmt.Sprintf("%s, %s, %s",
		plural(issues, "issue"), plural(warnings, "warning"), plural(notices, "notice"))
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func clip(s string, width int) string {
	s = strings.TrimSpace(s)
	if width <= 3 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
