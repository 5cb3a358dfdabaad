// Package duplicates compares every document of a corpus against every other
// one and reports shared titles, shared descriptions and near-identical
// bodies. It only makes sense over a complete corpus.
package duplicates

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/yorozuya-cybersecurity/docaudit/internal/checks"
	"github.com/yorozuya-cybersecurity/docaudit/internal/config"
	"github.com/yorozuya-cybersecurity/docaudit/internal/content"
	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

// shingleSize is the number of consecutive words per body shingle.
const shingleSize = 3

// Entry is the comparable projection of one document.
type Entry struct {
	ID          string
	DisplayName string
	Title       string
	Description string

	shingles map[string]struct{}
	ignored  func(string) bool
}

// NewEntry projects a parsed document. Opt-outs declared in the document's
// frontmatter are captured so the document is left out of the matching
// comparisons.
func NewEntry(doc checks.Document, meta checks.Meta, cfg config.Config) Entry {
	e := Entry{
		ID:          meta.ID,
		DisplayName: meta.DisplayName,
		ignored:     checks.Ignored(doc, cfg),
	}
	if t, _, ok := checks.ResolveTitle(doc, meta, cfg); ok {
		e.Title = t
	}
	if d, ok := checks.ResolveDescription(doc, cfg); ok {
		e.Description = d
	}
	e.shingles = Shingles(doc.Prose)
	return e
}

func (e Entry) skips(name string) bool {
	return e.ignored != nil && e.ignored(name)
}

// Shingles returns the set of word 3-grams of the NFC-normalised, lowercased
// plain text of prose. Texts shorter than three words fall back to their word
// set.
func Shingles(prose string) map[string]struct{} {
	words := content.Words(norm.NFC.String(content.PlainText(prose)))
	set := make(map[string]struct{})
	if len(words) < shingleSize {
		for _, w := range words {
			set[w] = struct{}{}
		}
		return set
	}
	for i := 0; i+shingleSize <= len(words); i++ {
		set[strings.Join(words[i:i+shingleSize], " ")] = struct{}{}
	}
	return set
}

// Similarity is the Jaccard index of two shingle sets scaled to [0,100].
// It is symmetric; two empty sets are 0.
func Similarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	inter := 0
	for s := range a {
		if _, ok := b[s]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union) * 100
}

// Result holds the findings per document id. Complete is false when the
// context was cancelled before every pair was compared; the findings found
// until then are kept, and no pass findings are emitted.
type Result struct {
	Findings map[string]schema.CheckResults
	Complete bool
	Pairs    int
}

// Option configures Detect.
type Option func(*options)

type options struct {
	progress func(done, total int)
}

// WithProgress is called after each row of pair comparisons.
func WithProgress(fn func(done, total int)) Option {
	return func(o *options) { o.progress = fn }
}

type found struct {
	content, titles, descriptions []schema.Finding
}

// Detect compares entries. The context is checked before every body pair.
func Detect(ctx context.Context, entries []Entry, cfg config.Config, opts ...Option) Result {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	acc := make([]found, len(entries))
	res := Result{Findings: map[string]schema.CheckResults{}, Complete: true}

	if cfg.Checks.DuplicateTitles {
		exact(entries, checks.DuplicateTitles, func(e Entry) string { return e.Title }, func(i int, f schema.Finding) {
			acc[i].titles = append(acc[i].titles, f)
		}, "Title")
	}
	if cfg.Checks.DuplicateDescriptions {
		exact(entries, checks.DuplicateDescriptions, func(e Entry) string { return e.Description }, func(i int, f schema.Finding) {
			acc[i].descriptions = append(acc[i].descriptions, f)
		}, "Description")
	}

	if cfg.Checks.DuplicateContent {
		n := len(entries)
		total := n * (n - 1) / 2
		compared := make([]bool, n)
	rows:
		for i := 0; i < n; i++ {
			a := entries[i]
			if a.skips(checks.DuplicateContent) || len(a.shingles) == 0 {
				if o.progress != nil {
					o.progress(pairsThrough(i, n), total)
				}
				continue
			}
			for j := i + 1; j < n; j++ {
				if ctx.Err() != nil {
					res.Complete = false
					break rows
				}
				b := entries[j]
				if b.skips(checks.DuplicateContent) || len(b.shingles) == 0 {
					continue
				}
				res.Pairs++
				compared[i], compared[j] = true, true
				sim := Similarity(a.shingles, b.shingles)
				if sim < cfg.Duplicates.Threshold {
					continue
				}
				acc[i].content = append(acc[i].content, similar(sim, b))
				acc[j].content = append(acc[j].content, similar(sim, a))
			}
			if o.progress != nil {
				o.progress(pairsThrough(i, n), total)
			}
		}
		if res.Complete {
			for i := range entries {
				if compared[i] && len(acc[i].content) == 0 {
					acc[i].content = []schema.Finding{{
						Passed:   true,
						Message:  "No similar document found",
						Severity: schema.SeverityInfo,
					}}
				}
			}
		}
	}

	for i, e := range entries {
		var out schema.CheckResults
		if len(acc[i].content) > 0 {
			out = append(out, schema.CheckResult{Name: checks.DuplicateContent, Findings: acc[i].content})
		}
		if len(acc[i].titles) > 0 {
			out = append(out, schema.CheckResult{Name: checks.DuplicateTitles, Findings: acc[i].titles})
		}
		if len(acc[i].descriptions) > 0 {
			out = append(out, schema.CheckResult{Name: checks.DuplicateDescriptions, Findings: acc[i].descriptions})
		}
		if len(out) > 0 {
			res.Findings[e.ID] = out
		}
	}
	return res
}

// pairsThrough counts the pairs covered once rows 0..i are done.
func pairsThrough(i, n int) int {
	rows := i + 1
	return rows*n - rows*(rows+1)/2
}

func similar(sim float64, other Entry) schema.Finding {
	return schema.Finding{
		Message:  fmt.Sprintf("Body is %.1f%% similar to %q", sim, other.ID),
		Severity: schema.SeverityWarning,
		Suggestion: fmt.Sprintf("Differentiate this document from [%s](%s) or merge the two.",
			other.DisplayName, other.ID),
	}
}

// exact groups entries by trimmed, case-insensitive value. Every member of
// a group of two or more gets one warning naming the others; members of a
// group of one get an info finding.
func exact(entries []Entry, check string, value func(Entry) string, add func(int, schema.Finding), label string) {
	groups := map[string][]int{}
	var keys []string
	for i, e := range entries {
		if e.skips(check) {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(norm.NFC.String(value(e))))
		if key == "" {
			continue
		}
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], i)
	}
	for _, key := range keys {
		members := groups[key]
		if len(members) == 1 {
			add(members[0], schema.Finding{
				Passed:   true,
				Message:  fmt.Sprintf("%s is unique", label),
				Severity: schema.SeverityInfo,
			})
			continue
		}
		for _, i := range members {
			var others []string
			for _, j := range members {
				if j != i {
					others = append(others, entries[j].ID)
				}
			}
			sort.Strings(others)
			links := make([]string, len(others))
			for k, id := range others {
				links[k] = fmt.Sprintf("[[%s]]", id)
			}
			add(i, schema.Finding{
				Message:    fmt.Sprintf("%s %q is also used by %s", label, strings.TrimSpace(value(entries[i])), strings.Join(others, ", ")),
				Severity:   schema.SeverityWarning,
				Suggestion: fmt.Sprintf("Give each document its own %s; shared with %s.", strings.ToLower(label), strings.Join(links, ", ")),
			})
		}
	}
}
