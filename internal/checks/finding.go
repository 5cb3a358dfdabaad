package checks

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/yorozuya-cybersecurity/docaudit/internal/content"
	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

const contextWidth = 120

func pass(msg string) schema.Finding {
	return schema.Finding{Passed: true, Message: msg, Severity: schema.SeverityInfo}
}

func notice(msg, suggestion string) schema.Finding {
	return schema.Finding{Passed: true, Message: msg, Suggestion: suggestion, Severity: schema.SeverityNotice}
}

func warn(msg, suggestion string) schema.Finding {
	return schema.Finding{Message: msg, Suggestion: suggestion, Severity: schema.SeverityWarning}
}

func issue(msg, suggestion string) schema.Finding {
	return schema.Finding{Message: msg, Suggestion: suggestion, Severity: schema.SeverityError}
}

// at attaches a position on the given line; search is the text a viewer
// should highlight.
func at(f schema.Finding, line content.Line, search string) schema.Finding {
	f.Position = &schema.Position{
		Line:       line.Number,
		SearchText: search,
		Context:    runewidth.Truncate(strings.TrimSpace(line.Text), contextWidth, "..."),
	}
	return f
}

// lineAt finds the line with the given number.
func lineAt(lines []content.Line, number int) content.Line {
	for _, l := range lines {
		if l.Number == number {
			return l
		}
	}
	return content.Line{Number: number}
}
