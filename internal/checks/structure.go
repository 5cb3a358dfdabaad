package checks

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/yorozuya-cybersecurity/docaudit/internal/config"
	"github.com/yorozuya-cybersecurity/docaudit/internal/content"
	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

func checkHeadingOrder(doc Document, _ Meta, _ config.Config) []schema.Finding {
	headings := content.Headings(doc.Lines)
	if len(headings) == 0 {
		return nil
	}
	var out []schema.Finding
	seenH1 := false
	for i, h := range headings {
		line := lineAt(doc.Lines, h.Line)
		if i > 0 {
			prev := headings[i-1]
			if h.Level > prev.Level+1 {
				out = append(out, at(warn(
					fmt.Sprintf("Heading %q jumps from H%d to H%d", h.Text, prev.Level, h.Level),
					fmt.Sprintf("Use H%d here or add the missing intermediate level.", prev.Level+1),
				), line, strings.TrimSpace(line.Text)))
			}
		}
		if h.Level == 1 {
			if seenH1 {
				out = append(out, at(warn(
					fmt.Sprintf("Additional H1 heading %q", h.Text),
					"Keep a single H1 per document and demote the others.",
				), line, strings.TrimSpace(line.Text)))
			}
			seenH1 = true
		}
	}
	if len(out) == 0 {
		return []schema.Finding{pass(fmt.Sprintf("Heading hierarchy is valid (%d headings)", len(headings)))}
	}
	return out
}

var imageExt = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".webp": true, ".bmp": true, ".avif": true, ".tif": true, ".tiff": true,
}

// images returns markdown images and wiki embeds of image files.
func images(doc Document) []content.Link {
	var out []content.Link
	for _, l := range content.Links(doc.Lines) {
		if !l.Image {
			continue
		}
		if l.Wiki && !imageExt[strings.ToLower(path.Ext(stripFragment(l.Target)))] {
			continue
		}
		out = append(out, l)
	}
	return out
}

// embedSize matches Obsidian-style size aliases such as 300 or 300x200.
var embedSize = regexp.MustCompile(`^\d+(x\d+)?$`)

func checkImageAltText(doc Document, _ Meta, _ config.Config) []schema.Finding {
	imgs := images(doc)
	if len(imgs) == 0 {
		return nil
	}
	var out []schema.Finding
	for _, img := range imgs {
		alt := strings.TrimSpace(img.Text)
		if alt != "" && !embedSize.MatchString(alt) {
			continue
		}
		out = append(out, at(warn(
			fmt.Sprintf("Image %q has no alt text", img.Target),
			"Describe the image in its alt text for accessibility and search.",
		), lineAt(doc.Lines, img.Line), img.Raw))
	}
	if len(out) == 0 {
		return []schema.Finding{pass(fmt.Sprintf("All %d images have alt text", len(imgs)))}
	}
	return out
}

var genericImageName = regexp.MustCompile(`(?i)^(img|image|screenshot|screen shot|pasted image|untitled|photo|picture|pic|dsc|dscn|dcim|capture|clipboard)([\s_-]*\d[\d\s_.-]*)?$|^[\d\s_.-]+$`)

// imageNameProblem explains why a file name is not descriptive, or returns
// an empty string.
func imageNameProblem(name string) string {
	switch {
	case genericImageName.MatchString(name):
		return "is generic"
	case strings.ContainsAny(name, " _"):
		return "uses spaces or underscores instead of hyphens"
	case strings.ToLower(name) != name:
		return "contains uppercase letters"
	}
	return ""
}

func checkImageNaming(doc Document, _ Meta, _ config.Config) []schema.Finding {
	imgs := images(doc)
	if len(imgs) == 0 {
		return nil
	}
	var out []schema.Finding
	for _, img := range imgs {
		target := stripFragment(img.Target)
		if dec, err := url.PathUnescape(target); err == nil {
			target = dec
		}
		base := path.Base(target)
		name := strings.TrimSuffix(base, path.Ext(base))
		if name == "" || name == "." || name == "/" {
			continue
		}
		if problem := imageNameProblem(name); problem != "" {
			out = append(out, at(warn(
				fmt.Sprintf("Image file name %q %s", base, problem),
				"Rename the file to a short, lowercase, hyphen-separated description of its content.",
			), lineAt(doc.Lines, img.Line), img.Raw))
		}
	}
	if len(out) == 0 {
		return []schema.Finding{pass(fmt.Sprintf("All %d image file names are descriptive", len(imgs)))}
	}
	return out
}

func checkBrokenLinks(doc Document, meta Meta, _ config.Config) []schema.Finding {
	if meta.Links == nil {
		return nil
	}
	var (
		out     []schema.Finding
		checked int
	)
	for _, l := range content.Links(doc.Lines) {
		if l.Image {
			continue
		}
		if !l.Wiki && !isInternalTarget(l.Target) {
			continue
		}
		if stripFragment(l.Target) == "" {
			continue
		}
		checked++
		if meta.Links.Resolve(meta.ID, l.Target, l.Wiki) {
			continue
		}
		out = append(out, at(issue(
			fmt.Sprintf("Broken link to %q", l.Target),
			"Fix the link target or create the missing document.",
		), lineAt(doc.Lines, l.Line), l.Raw))
	}
	if checked == 0 {
		return nil
	}
	if len(out) == 0 {
		return []schema.Finding{pass(fmt.Sprintf("All %d internal links resolve", checked))}
	}
	return out
}

func checkExternalLinks(doc Document, meta Meta, _ config.Config) []schema.Finding {
	if meta.Probe == nil {
		return nil
	}
	var out []schema.Finding
	seen := map[string]bool{}
	for _, l := range content.Links(doc.Lines) {
		if l.Wiki || !content.IsExternal(l.Target) || seen[l.Target] {
			continue
		}
		seen[l.Target] = true
		if meta.Probe.Reachable(l.Target) {
			continue
		}
		out = append(out, at(warn(
			fmt.Sprintf("External link %q is unreachable", l.Target),
			"Update or remove the link.",
		), lineAt(doc.Lines, l.Line), l.Raw))
	}
	if len(seen) == 0 {
		return nil
	}
	if len(out) == 0 {
		return []schema.Finding{pass(fmt.Sprintf("All %d external links are reachable", len(seen)))}
	}
	return out
}
