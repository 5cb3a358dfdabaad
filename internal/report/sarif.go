package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yorozuya-cybersecurity/docaudit/internal/checks"
	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Message   sarifMessage    `json:"message"`
	Level     string          `json:"level"` // error, warning, note
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

// ExportSARIF writes every failing finding of the snapshot as a SARIF 2.1.0
// log named <fileBase>.sarif in outDir.
func ExportSARIF(snap *schema.CorpusSnapshot, outDir, fileBase, toolVersion string) (string, error) {
	log := buildSARIF(snap, toolVersion)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create sarif dir: %w", err)
	}
	outPath := filepath.Join(outDir, fileBase+".sarif")

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sarif: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write sarif: %w", err)
	}
	return outPath, nil
}

func buildSARIF(snap *schema.CorpusSnapshot, toolVersion string) sarifLog {
	results := make([]sarifResult, 0)
	for _, doc := range snap.Results {
		for _, cr := range doc.Checks {
			for _, f := range cr.Findings {
				if f.Passed && f.Severity != schema.SeverityNotice {
					continue
				}
				start := 1
				if f.Position != nil && f.Position.Line > 0 {
					start = f.Position.Line
				}
				text := strings.TrimSpace(f.Message)
				if f.Suggestion != "" {
					text += " " + strings.TrimSpace(f.Suggestion)
				}
				results = append(results, sarifResult{
					RuleID:  cr.Name,
					Level:   sevToLevel(f.Severity),
					Message: sarifMessage{Text: text},
					Locations: []sarifLocation{{
						PhysicalLocation: sarifPhysicalLocation{
							ArtifactLocation: sarifArtifactLocation{URI: toURI(doc.DocumentID)},
							Region:           sarifRegion{StartLine: start},
						},
					}},
				})
			}
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Locations[0].PhysicalLocation, results[j].Locations[0].PhysicalLocation
		if a.ArtifactLocation.URI == b.ArtifactLocation.URI {
			return a.Region.StartLine < b.Region.StartLine
		}
		return a.ArtifactLocation.URI < b.ArtifactLocation.URI
	})

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json",
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:    Generator,
				Version: toolVersion,
				Rules:   sarifRules(),
			}},
			Results: results,
		}},
	}
}

func sarifRules() []sarifRule {
	var rules []sarifRule
	for _, c := range checks.Catalog() {
		rules = append(rules, sarifRule{ID: c.Name, ShortDescription: sarifMessage{Text: c.Description}})
	}
	for _, r := range []struct{ id, text string }{
		{checks.DuplicateContent, "document body is not near-identical to another document"},
		{checks.DuplicateTitles, "title is not shared with another document"},
		{checks.DuplicateDescriptions, "description is not shared with another document"},
		{checks.DocumentAccess, "document could be read"},
	} {
		rules = append(rules, sarifRule{ID: r.id, ShortDescription: sarifMessage{Text: r.text}})
	}
	return rules
}

func sevToLevel(s schema.Severity) string {
	switch s {
	case schema.SeverityError:
		return "error"
	case schema.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}

func toURI(p string) string {
	p = strings.TrimSpace(p)
	p = filepath.ToSlash(p)
	for strings.HasPrefix(p, "../") {
		p = strings.TrimPrefix(p, "../")
	}
	p = strings.TrimPrefix(p, "./")
	if p == "" {
		return "UNKNOWN"
	}
	return p
}
