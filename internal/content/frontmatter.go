// Package content turns raw markdown into the pieces the checks analyse:
// frontmatter properties, fence-free prose, and line-addressed structure
// (headings, links, images).
package content

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNoFrontmatter means the document does not open with a delimited block.
	ErrNoFrontmatter = errors.New("no frontmatter")
	// ErrMalformedFrontmatter means the block exists but could not be decoded.
	ErrMalformedFrontmatter = errors.New("malformed frontmatter")
)

// Frontmatter is the decoded metadata block at the top of a document.
type Frontmatter map[string]any

// Document is a raw markdown file split into metadata and body.
type Document struct {
	Raw  string
	Body string
	// BodyLine is the 1-based line of Raw on which Body starts.
	BodyLine int
	// Frontmatter is nil when the block is absent or malformed.
	Frontmatter Frontmatter
	// FrontmatterErr records why Frontmatter is nil; informational only.
	FrontmatterErr error
}

// Split separates the frontmatter block from the body. It never fails: a
// missing or undecodable block leaves Frontmatter nil. A delimited block
// that does not decode means absent metadata, but the block is still
// stripped from Body.
func Split(raw string) Document {
	raw = strings.TrimPrefix(raw, "\ufeff")
	doc := Document{Raw: raw, Body: raw, BodyLine: 1}
	fm, body, consumed, err := ExtractFrontmatter(raw)
	if consumed > 0 {
		doc.Body = body
		doc.BodyLine = consumed + 1
	}
	if err != nil {
		doc.FrontmatterErr = err
		return doc
	}
	doc.Frontmatter = fm
	return doc
}

// ExtractFrontmatter decodes a leading `---` (YAML) or `+++` (TOML) block.
// consumed is the number of lines the block occupies including delimiters;
// it is non-zero for malformed blocks that were still properly delimited.
func ExtractFrontmatter(raw string) (fm Frontmatter, body string, consumed int, err error) {
	lines := strings.SplitAfter(raw, "\n")
	if len(lines) == 0 {
		return nil, raw, 0, ErrNoFrontmatter
	}
	open := strings.TrimRight(lines[0], "\r\n")
	var format string
	switch strings.TrimSpace(open) {
	case "---":
		format = "yaml"
	case "+++":
		format = "toml"
	default:
		return nil, raw, 0, ErrNoFrontmatter
	}
	if open != strings.TrimSpace(open) {
		return nil, raw, 0, ErrNoFrontmatter
	}

	closeAt := -1
	for i := 1; i < len(lines); i++ {
		l := strings.TrimRight(lines[i], "\r\n")
		if l == open || (format == "yaml" && l == "...") {
			closeAt = i
			break
		}
	}
	if closeAt < 0 {
		return nil, raw, 0, fmt.Errorf("%w: unterminated %s block", ErrMalformedFrontmatter, format)
	}

	block := strings.Join(lines[1:closeAt], "")
	body = strings.Join(lines[closeAt+1:], "")
	consumed = closeAt + 1

	fm = Frontmatter{}
	switch format {
	case "yaml":
		if strings.TrimSpace(block) == "" {
			return fm, body, consumed, nil
		}
		var decoded any
		if derr := yaml.Unmarshal([]byte(block), &decoded); derr != nil {
			return nil, body, consumed, fmt.Errorf("%w: %v", ErrMalformedFrontmatter, derr)
		}
		m, ok := decoded.(map[string]any)
		if !ok {
			return nil, body, consumed, fmt.Errorf("%w: yaml block is not a mapping", ErrMalformedFrontmatter)
		}
		fm = m
	case "toml":
		if _, derr := toml.Decode(block, &fm); derr != nil {
			return nil, body, consumed, fmt.Errorf("%w: %v", ErrMalformedFrontmatter, derr)
		}
	}
	return fm, body, consumed, nil
}

// lookup finds key exactly, then case-insensitively.
func (f Frontmatter) lookup(key string) (any, bool) {
	if f == nil || key == "" {
		return nil, false
	}
	if v, ok := f[key]; ok {
		return v, true
	}
	for k, v := range f {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// String returns a property as trimmed text. Lists yield their first
// non-empty element. Empty values count as absent.
func (f Frontmatter) String(key string) (string, bool) {
	v, ok := f.lookup(key)
	if !ok || v == nil {
		return "", false
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case []any:
		for _, e := range t {
			if es, ok := e.(string); ok && strings.TrimSpace(es) != "" {
				s = es
				break
			}
		}
	case []string:
		for _, e := range t {
			if strings.TrimSpace(e) != "" {
				s = e
				break
			}
		}
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Strings returns a property as a list of trimmed, non-empty values.
func (f Frontmatter) Strings(key string) []string {
	v, ok := f.lookup(key)
	if !ok || v == nil {
		return nil
	}
	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	switch t := v.(type) {
	case string:
		for _, part := range strings.Split(t, ",") {
			add(part)
		}
	case []any:
		for _, e := range t {
			if es, ok := e.(string); ok {
				add(es)
			}
		}
	case []string:
		for _, e := range t {
			add(e)
		}
	}
	return out
}

// Bool returns a boolean property; absent or non-boolean values are false.
func (f Frontmatter) Bool(key string) bool {
	v, ok := f.lookup(key)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}
