package schema

import (
	"fmt"
	"time"
)

// Severity classifies a finding. Ordered error > warning > notice > info.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityNotice  Severity = "notice"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

var severityRank = map[Severity]int{
	SeverityInfo:    0,
	SeverityNotice:  1,
	SeverityWarning: 2,
	SeverityError:   3,
}

// IsValid reports whether s is one of the four known severities.
func (s Severity) IsValid() bool {
	_, ok := severityRank[s]
	return ok
}

// Rank returns the ordering weight of s; unknown severities rank below info.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

func (s Severity) String() string { return string(s) }

// ParseSeverity parses a severity name.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if !sev.IsValid() {
		return "", fmt.Errorf("invalid severity: %s", s)
	}
	return sev, nil
}

// Position locates a finding inside a document. Line is 1-based and counts
// frontmatter lines, so it matches the file as stored on disk.
type Position struct {
	Line       int    `json:"line"`
	SearchText string `json:"search_text,omitempty"`
	Context    string `json:"context,omitempty"`
}

// Finding is one rule outcome for one document.
type Finding struct {
	Passed     bool      `json:"passed"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	Severity   Severity  `json:"severity"`
	Position   *Position `json:"position,omitempty"`
}

// CheckResult holds the findings a single check produced for a document.
type CheckResult struct {
	Name     string    `json:"name"`
	Findings []Finding `json:"findings"`
}

// CheckResults is ordered by check execution order.
type CheckResults []CheckResult

// Get returns the findings recorded for the named check.
func (c CheckResults) Get(name string) ([]Finding, bool) {
	for _, cr := range c {
		if cr.Name == name {
			return cr.Findings, true
		}
	}
	return nil, false
}

// Names returns the check names in execution order.
func (c CheckResults) Names() []string {
	out := make([]string, 0, len(c))
	for _, cr := range c {
		out = append(out, cr.Name)
	}
	return out
}

// DocumentAuditResult is the aggregated outcome for one document.
// The counters are filled in by the aggregator and must not be recomputed
// by consumers.
type DocumentAuditResult struct {
	DocumentID    string       `json:"document_id"`
	DisplayName   string       `json:"display_name"`
	Checks        CheckResults `json:"checks"`
	IssuesCount   int          `json:"issues_count"`
	WarningsCount int          `json:"warnings_count"`
	NoticesCount  int          `json:"notices_count"`
	OverallScore  float64      `json:"overall_score"`
}

// AllPassed reports whether the document carries no error, warning or notice.
func (r DocumentAuditResult) AllPassed() bool {
	return r.IssuesCount == 0 && r.WarningsCount == 0 && r.NoticesCount == 0
}

// CorpusSnapshot groups all document results for one bulk scan.
type CorpusSnapshot struct {
	ID        string                `json:"id"`
	Root      string                `json:"root,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
	Results   []DocumentAuditResult `json:"results"`
	// Partial is set when the scan was cancelled before every document was
	// checked or before duplicate detection finished.
	Partial bool `json:"partial"`
	// DuplicatesComplete is false when the duplicate phase was skipped or
	// interrupted.
	DuplicatesComplete bool `json:"duplicates_complete"`
	Total              int  `json:"total"`
}

// Progress is reported to the progress observer after each batch.
type Progress struct {
	Phase              string        `json:"phase"`
	Current            int           `json:"current"`
	Total              int           `json:"total"`
	Percentage         float64       `json:"percentage"`
	Elapsed            time.Duration `json:"elapsed"`
	EstimatedRemaining time.Duration `json:"estimated_remaining"`
}
