package checks

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yorozuya-cybersecurity/docaudit/internal/config"
	"github.com/yorozuya-cybersecurity/docaudit/internal/content"
	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

// Title sources, in resolution priority.
const (
	TitleFromProperty = "property"
	TitleFromFilename = "filename"
	TitleFromHeading  = "heading"
)

// ResolveTitle picks the document title: the configured frontmatter
// property, else the file name when enabled, else the first H1.
func ResolveTitle(doc Document, meta Meta, cfg config.Config) (title, source string, ok bool) {
	if cfg.Properties.Title != "" {
		if t, ok := doc.Frontmatter.String(cfg.Properties.Title); ok {
			return t, TitleFromProperty, true
		}
	}
	if cfg.Title.UseFilename && strings.TrimSpace(meta.Filename) != "" {
		return strings.TrimSpace(meta.Filename), TitleFromFilename, true
	}
	if h1, ok := content.FirstH1(doc.Lines); ok {
		return h1, TitleFromHeading, true
	}
	return "", "", false
}

// ResolveDescription reads the configured description property.
func ResolveDescription(doc Document, cfg config.Config) (string, bool) {
	if cfg.Properties.Description == "" {
		return "", false
	}
	return doc.Frontmatter.String(cfg.Properties.Description)
}

// ResolveKeyword reads the configured target keyword property.
func ResolveKeyword(doc Document, cfg config.Config) (string, bool) {
	if cfg.Properties.Keyword == "" {
		return "", false
	}
	return doc.Frontmatter.String(cfg.Properties.Keyword)
}

func checkTitleLength(doc Document, meta Meta, cfg config.Config) []schema.Finding {
	title, source, ok := ResolveTitle(doc, meta, cfg)
	if !ok {
		return nil
	}
	n := utf8.RuneCountInString(title)
	lo, hi := cfg.Title.Min, cfg.Title.Max
	switch {
	case n < lo:
		return []schema.Finding{warn(
			fmt.Sprintf("Title is too short (%d characters, from %s); recommended %d-%d", n, source, lo, hi),
			fmt.Sprintf("Expand the title to at least %d characters so it describes the page.", lo),
		)}
	case n > hi:
		return []schema.Finding{warn(
			fmt.Sprintf("Title is too long (%d characters, from %s); recommended %d-%d", n, source, lo, hi),
			fmt.Sprintf("Shorten the title to %d characters or fewer so it is not truncated in results.", hi),
		)}
	}
	return []schema.Finding{pass(fmt.Sprintf("Title length is %d characters (recommended %d-%d)", n, lo, hi))}
}

func checkDescriptionLength(doc Document, _ Meta, cfg config.Config) []schema.Finding {
	prop := cfg.Properties.Description
	if prop == "" {
		return nil
	}
	desc, ok := ResolveDescription(doc, cfg)
	if !ok {
		return []schema.Finding{warn(
			fmt.Sprintf("No %q property found", prop),
			fmt.Sprintf("Add a %q property to the frontmatter with a %d-%d character summary.",
				prop, cfg.Description.Min, cfg.Description.Max),
		)}
	}
	n := utf8.RuneCountInString(desc)
	lo, hi := cfg.Description.Min, cfg.Description.Max
	switch {
	case n < lo:
		return []schema.Finding{warn(
			fmt.Sprintf("Description is too short (%d characters); recommended %d-%d", n, lo, hi),
			"Expand the description with a concrete summary of the page.",
		)}
	case n > hi:
		return []schema.Finding{warn(
			fmt.Sprintf("Description is too long (%d characters); recommended %d-%d", n, lo, hi),
			fmt.Sprintf("Trim the description to %d characters or fewer.", hi),
		)}
	}
	return []schema.Finding{pass(fmt.Sprintf("Description length is %d characters (recommended %d-%d)", n, lo, hi))}
}

func checkKeywordDensity(doc Document, _ Meta, cfg config.Config) []schema.Finding {
	prop := cfg.Properties.Keyword
	if prop == "" {
		return nil
	}
	kw, ok := ResolveKeyword(doc, cfg)
	if !ok {
		return []schema.Finding{notice(
			"No target keyword set",
			fmt.Sprintf("Add a %q property to enable keyword analysis.", prop),
		)}
	}
	tokens := content.Tokens(doc.Prose)
	if len(tokens) == 0 {
		return nil
	}
	count := content.CountPhrase(doc.Prose, kw)
	density := float64(count) / float64(len(tokens)) * 100
	lo, hi := cfg.Keyword.MinDensity, cfg.Keyword.MaxDensity
	switch {
	case density < lo:
		return []schema.Finding{warn(
			fmt.Sprintf("Keyword %q density is %.2f%% (%d of %d words); recommended %.1f%%-%.1f%%",
				kw, density, count, len(tokens), lo, hi),
			"Use the keyword more often in the body text.",
		)}
	case density > hi:
		return []schema.Finding{warn(
			fmt.Sprintf("Keyword %q density is %.2f%% (%d of %d words); recommended %.1f%%-%.1f%%",
				kw, density, count, len(tokens), lo, hi),
			"Reduce repetitions of the keyword; the text reads as stuffed.",
		)}
	}
	return []schema.Finding{pass(fmt.Sprintf("Keyword %q density is %.2f%% (%d of %d words)", kw, density, count, len(tokens)))}
}

// missingWords returns the keyword words not contained in text.
func missingWords(keyword, text string) []string {
	lower := strings.ToLower(text)
	var missing []string
	for _, w := range strings.Fields(strings.ToLower(keyword)) {
		if !strings.Contains(lower, w) {
			missing = append(missing, w)
		}
	}
	return missing
}

func checkKeywordInTitle(doc Document, meta Meta, cfg config.Config) []schema.Finding {
	kw, ok := ResolveKeyword(doc, cfg)
	if !ok {
		return nil
	}
	title, _, ok := ResolveTitle(doc, meta, cfg)
	if !ok {
		return []schema.Finding{notice("No title found to compare with the keyword", "")}
	}
	if missing := missingWords(kw, title); len(missing) > 0 {
		return []schema.Finding{warn(
			fmt.Sprintf("Title does not contain keyword %q (missing: %s)", kw, strings.Join(missing, ", ")),
			"Work every keyword word into the title.",
		)}
	}
	return []schema.Finding{pass(fmt.Sprintf("Title contains keyword %q", kw))}
}

func checkKeywordInDescription(doc Document, _ Meta, cfg config.Config) []schema.Finding {
	kw, ok := ResolveKeyword(doc, cfg)
	if !ok {
		return nil
	}
	desc, ok := ResolveDescription(doc, cfg)
	if !ok {
		if cfg.Properties.Description == "" {
			return nil
		}
		return []schema.Finding{notice("No description found to compare with the keyword", "")}
	}
	if missing := missingWords(kw, desc); len(missing) > 0 {
		return []schema.Finding{warn(
			fmt.Sprintf("Description does not contain keyword %q (missing: %s)", kw, strings.Join(missing, ", ")),
			"Mention the keyword in the description.",
		)}
	}
	return []schema.Finding{pass(fmt.Sprintf("Description contains keyword %q", kw))}
}
