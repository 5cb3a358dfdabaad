// Package checks is the catalog of per-document audit rules.
//
// Every check is a pure function of a parsed document, its metadata and the
// configuration, gated by exactly one toggle in config.Checks. A check that
// returns no findings was not applicable; one that ran and passed returns an
// info finding. Checks share no state and may run in any order.
package checks

import (
	"fmt"
	"strings"

	"github.com/yorozuya-cybersecurity/docaudit/internal/config"
	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

// Check names, in catalog order. The duplicate-* names are corpus-scoped
// and produced by the duplicates package.
const (
	TitleLength           = "title-length"
	DescriptionLength     = "description-length"
	KeywordDensity        = "keyword-density"
	KeywordInTitle        = "keyword-in-title"
	KeywordInDescription  = "keyword-in-description"
	HeadingOrder          = "heading-order"
	ImageAltText          = "image-alt-text"
	ImageNaming           = "image-naming"
	BrokenLinks           = "broken-links"
	ExternalLinks         = "external-links"
	ContentLength         = "content-length"
	ReadingLevel          = "reading-level"
	DuplicateContent      = "duplicate-content"
	DuplicateTitles       = "duplicate-titles"
	DuplicateDescriptions = "duplicate-descriptions"

	// DocumentAccess is not a catalog entry; it carries read failures.
	DocumentAccess = "document"
)

// Func is the shape every check shares.
type Func func(doc Document, meta Meta, cfg config.Config) []schema.Finding

// Check is one tagged catalog variant.
type Check struct {
	Name        string
	Description string
	// Enabled reads the single toggle that gates this check.
	Enabled func(config.Checks) bool
	Run     Func
}

var catalog = []Check{
	{TitleLength, "title is between the configured bounds",
		func(c config.Checks) bool { return c.TitleLength }, checkTitleLength},
	{DescriptionLength, "description property is present and between the configured bounds",
		func(c config.Checks) bool { return c.DescriptionLength }, checkDescriptionLength},
	{KeywordDensity, "target keyword density is inside the configured band",
		func(c config.Checks) bool { return c.KeywordDensity }, checkKeywordDensity},
	{KeywordInTitle, "every keyword word appears in the title",
		func(c config.Checks) bool { return c.KeywordInTitle }, checkKeywordInTitle},
	{KeywordInDescription, "every keyword word appears in the description",
		func(c config.Checks) bool { return c.KeywordInDescription }, checkKeywordInDescription},
	{HeadingOrder, "heading levels never skip and there is a single H1",
		func(c config.Checks) bool { return c.HeadingOrder }, checkHeadingOrder},
	{ImageAltText, "images carry alternative text",
		func(c config.Checks) bool { return c.ImageAltText }, checkImageAltText},
	{ImageNaming, "image files have descriptive, hyphenated, lowercase names",
		func(c config.Checks) bool { return c.ImageNaming }, checkImageNaming},
	{BrokenLinks, "internal links resolve to corpus documents or files",
		func(c config.Checks) bool { return c.BrokenLinks }, checkBrokenLinks},
	{ExternalLinks, "external links are reachable",
		func(c config.Checks) bool { return c.ExternalLinks }, checkExternalLinks},
	{ContentLength, "document has at least the configured number of words",
		func(c config.Checks) bool { return c.ContentLength }, checkContentLength},
	{ReadingLevel, "Flesch reading ease is above the configured minimum",
		func(c config.Checks) bool { return c.ReadingLevel }, checkReadingLevel},
}

// Catalog returns the built-in checks in execution order.
func Catalog() []Check {
	out := make([]Check, len(catalog))
	copy(out, catalog)
	return out
}

// Registry runs an ordered set of checks.
type Registry struct {
	checks []Check
}

// NewRegistry returns a registry over the given checks, or over the built-in
// catalog when none are given.
func NewRegistry(checks ...Check) *Registry {
	if len(checks) == 0 {
		checks = Catalog()
	}
	return &Registry{checks: checks}
}

// Checks returns the registered checks in execution order.
func (r *Registry) Checks() []Check {
	return r.checks
}

// Run executes every enabled, non-ignored check against doc. A check that
// panics is isolated: it yields a single error finding naming it and the
// remaining checks still run. Only checks with at least one finding appear
// in the result.
func (r *Registry) Run(doc Document, meta Meta, cfg config.Config) (schema.CheckResults, []Fault) {
	ignored := Ignored(doc, cfg)
	var (
		out    schema.CheckResults
		faults []Fault
	)
	for _, c := range r.checks {
		if c.Enabled != nil && !c.Enabled(cfg.Checks) {
			continue
		}
		if ignored(c.Name) {
			continue
		}
		findings, fault := runIsolated(c, doc, meta, cfg)
		if fault != nil {
			faults = append(faults, *fault)
		}
		if len(findings) > 0 {
			out = append(out, schema.CheckResult{Name: c.Name, Findings: findings})
		}
	}
	return out, faults
}

// Fault describes a check that panicked.
type Fault struct {
	Check string
	Value any
}

func (f Fault) Error() string {
	return fmt.Sprintf("check %s failed: %v", f.Check, f.Value)
}

func runIsolated(c Check, doc Document, meta Meta, cfg config.Config) (findings []schema.Finding, fault *Fault) {
	defer func() {
		if rec := recover(); rec != nil {
			fault = &Fault{Check: c.Name, Value: rec}
			findings = []schema.Finding{issue(
				fmt.Sprintf("Check %q could not run: %v", c.Name, rec),
				"This is an internal error; the remaining checks were still applied.",
			)}
		}
	}()
	return c.Run(doc, meta, cfg), nil
}

// Ignored returns a predicate telling whether the document opted out of a
// check through the configured ignore property, either with `true` or with
// a list of check names.
func Ignored(doc Document, cfg config.Config) func(name string) bool {
	prop := cfg.Properties.Ignore
	if prop == "" || doc.Frontmatter == nil {
		return func(string) bool { return false }
	}
	if doc.Frontmatter.Bool(prop) {
		return func(string) bool { return true }
	}
	names := map[string]bool{}
	for _, n := range doc.Frontmatter.Strings(prop) {
		names[strings.ToLower(n)] = true
	}
	return func(name string) bool { return names[name] }
}
