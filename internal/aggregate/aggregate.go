// Package aggregate folds per-check findings into a scored document result.
package aggregate

import (
	"math"

	"github.com/yorozuya-cybersecurity/docaudit/internal/config"
	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

// Counts tallies findings by severity. Info findings are not counted.
type Counts struct {
	Issues   int
	Warnings int
	Notices  int
}

// Count walks every finding once.
func Count(checks schema.CheckResults) Counts {
	var c Counts
	for _, cr := range checks {
		for _, f := range cr.Findings {
			switch f.Severity {
			case schema.SeverityError:
				c.Issues++
			case schema.SeverityWarning:
				c.Warnings++
			case schema.SeverityNotice:
				c.Notices++
			}
		}
	}
	return c
}

// Score starts at 100, subtracts the configured penalty per error and per
// warning, and clamps to [0,100]. Notices and info never affect it.
func Score(c Counts, s config.Scoring) float64 {
	score := 100 - float64(c.Issues)*s.ErrorPenalty - float64(c.Warnings)*s.WarningPenalty
	return math.Max(0, math.Min(100, score))
}

// Aggregate builds the result for one document. Checks with no findings are
// dropped so that only applicable checks appear as keys.
func Aggregate(documentID, displayName string, checks schema.CheckResults, s config.Scoring) schema.DocumentAuditResult {
	kept := make(schema.CheckResults, 0, len(checks))
	for _, cr := range checks {
		if len(cr.Findings) > 0 {
			kept = append(kept, cr)
		}
	}
	c := Count(kept)
	return schema.DocumentAuditResult{
		DocumentID:    documentID,
		DisplayName:   displayName,
		Checks:        kept,
		IssuesCount:   c.Issues,
		WarningsCount: c.Warnings,
		NoticesCount:  c.Notices,
		OverallScore:  Score(c, s),
	}
}

// Grade maps a score to a letter.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// CorpusScore is the mean document score; an empty corpus scores 100.
func CorpusScore(results []schema.DocumentAuditResult) float64 {
	if len(results) == 0 {
		return 100
	}
	var sum float64
	for _, r := range results {
		sum += r.OverallScore
	}
	return sum / float64(len(results))
}
