package checks

import (
	"fmt"

	"github.com/yorozuya-cybersecurity/docaudit/internal/config"
	"github.com/yorozuya-cybersecurity/docaudit/internal/content"
	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

func checkContentLength(doc Document, _ Meta, cfg config.Config) []schema.Finding {
	n := len(content.Words(content.PlainText(doc.Prose)))
	if n < cfg.Content.MinWords {
		return []schema.Finding{warn(
			fmt.Sprintf("Content is %d words; recommended at least %d", n, cfg.Content.MinWords),
			"Expand the document with more substantive prose.",
		)}
	}
	return []schema.Finding{pass(fmt.Sprintf("Content is %d words", n))}
}

// readingBand names a Flesch reading ease score.
func readingBand(score float64) string {
	switch {
	case score >= 90:
		return "very easy"
	case score >= 80:
		return "easy"
	case score >= 70:
		return "fairly easy"
	case score >= 60:
		return "standard"
	case score >= 50:
		return "fairly difficult"
	case score >= 30:
		return "difficult"
	default:
		return "very difficult"
	}
}

func checkReadingLevel(doc Document, _ Meta, cfg config.Config) []schema.Finding {
	score, ok := content.ReadingEase(content.PlainText(doc.Prose))
	if !ok {
		return nil
	}
	if score < cfg.Reading.MinEase {
		return []schema.Finding{warn(
			fmt.Sprintf("Reading ease is %.1f (%s); recommended at least %.0f", score, readingBand(score), cfg.Reading.MinEase),
			"Use shorter sentences and simpler words.",
		)}
	}
	return []schema.Finding{pass(fmt.Sprintf("Reading ease is %.1f (%s)", score, readingBand(score)))}
}
