package checks

import (
	"net/url"
	"path"
	"strings"

	"github.com/yorozuya-cybersecurity/docaudit/internal/content"
)

// Document is a parsed markdown file as the checks see it.
type Document struct {
	Raw         string
	Body        string
	BodyLine    int
	Frontmatter content.Frontmatter
	// FrontmatterErr is content.ErrNoFrontmatter or wraps
	// content.ErrMalformedFrontmatter when Frontmatter is nil.
	FrontmatterErr error
	Lines          []content.Line
	// Prose is Body with fenced code removed.
	Prose string
}

// Parse prepares raw markdown for the checks.
func Parse(raw string) Document {
	split := content.Split(raw)
	return Document{
		Raw:            split.Raw,
		Body:           split.Body,
		BodyLine:       split.BodyLine,
		Frontmatter:    split.Frontmatter,
		FrontmatterErr: split.FrontmatterErr,
		Lines:          content.Lines(split.Body, split.BodyLine),
		Prose:          content.Clean(split.Body),
	}
}

// LinkResolver answers whether an internal link target exists in the corpus.
type LinkResolver interface {
	Resolve(fromID, target string, wiki bool) bool
}

// LinkProbe answers whether an external URL is reachable. It is supplied by
// the host; the engine never opens connections itself.
type LinkProbe interface {
	Reachable(rawURL string) bool
}

// Meta identifies the document under audit and carries read-only
// collaborators.
type Meta struct {
	ID          string
	DisplayName string
	// Filename is the base name without extension.
	Filename string
	Links    LinkResolver
	Probe    LinkProbe
}

// NewMeta derives display and file names from a slash-separated id.
func NewMeta(id string) Meta {
	base := path.Base(id)
	name := strings.TrimSuffix(base, path.Ext(base))
	return Meta{ID: id, DisplayName: name, Filename: name}
}

// Index resolves links against the set of known corpus paths. Paths are
// slash-separated and relative to the corpus root.
type Index struct {
	paths map[string]struct{}
	names map[string]struct{}
}

// NewIndex builds an index over document ids and other files (images,
// attachments) that links may point at.
func NewIndex(docs []string, assets []string) *Index {
	idx := &Index{
		paths: make(map[string]struct{}, len(docs)+len(assets)),
		names: make(map[string]struct{}, len(docs)+len(assets)),
	}
	for _, list := range [][]string{docs, assets} {
		for _, p := range list {
			p = strings.ToLower(path.Clean(strings.TrimPrefix(p, "/")))
			idx.paths[p] = struct{}{}
			base := path.Base(p)
			idx.names[base] = struct{}{}
			if strings.HasSuffix(base, ".md") {
				idx.names[strings.TrimSuffix(base, ".md")] = struct{}{}
				idx.paths[strings.TrimSuffix(p, ".md")] = struct{}{}
			}
		}
	}
	return idx
}

// Resolve implements LinkResolver.
func (x *Index) Resolve(fromID, target string, wiki bool) bool {
	if x == nil {
		return true
	}
	target = stripFragment(target)
	if target == "" {
		return true
	}
	if dec, err := url.PathUnescape(target); err == nil {
		target = dec
	}
	target = strings.ToLower(target)
	if wiki {
		if _, ok := x.paths[path.Clean(strings.TrimPrefix(target, "/"))]; ok {
			return true
		}
		_, ok := x.names[path.Base(target)]
		return ok
	}
	var p string
	if strings.HasPrefix(target, "/") {
		p = path.Clean(strings.TrimPrefix(target, "/"))
	} else {
		p = path.Clean(path.Join(path.Dir(strings.ToLower(fromID)), target))
	}
	_, ok := x.paths[p]
	return ok
}

func stripFragment(target string) string {
	if i := strings.IndexAny(target, "#?"); i >= 0 {
		target = target[:i]
	}
	return strings.TrimSpace(target)
}

// isInternalTarget reports whether a non-wiki link target points into the
// corpus rather than at a URL scheme or an in-page anchor.
func isInternalTarget(target string) bool {
	t := strings.TrimSpace(target)
	if t == "" || strings.HasPrefix(t, "#") || content.IsExternal(t) {
		return false
	}
	if i := strings.Index(t, ":"); i > 0 && !strings.ContainsAny(t[:i], "/.") {
		// mailto:, tel:, obsidian:, ...
		return false
	}
	return true
}
