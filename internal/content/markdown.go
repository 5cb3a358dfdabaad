package content

import (
	"regexp"
	"strings"
)

// Line is one source line of a document body.
type Line struct {
	// Number is 1-based within the whole file (frontmatter included).
	Number int
	Text   string
	// InFence is true for fence delimiters and everything between them.
	InFence bool
}

// fence reports whether l opens or closes a fenced code block and returns
// the delimiter run.
func fence(l string) (string, bool) {
	t := strings.TrimLeft(l, " ")
	if len(l)-len(t) > 3 {
		return "", false
	}
	for _, ch := range []byte{'`', '~'} {
		n := 0
		for n < len(t) && t[n] == ch {
			n++
		}
		if n >= 3 {
			return t[:n], true
		}
	}
	return "", false
}

// Lines splits body into numbered lines, marking fenced code. An unclosed
// fence runs to the end of the document.
func Lines(body string, firstLine int) []Line {
	if firstLine < 1 {
		firstLine = 1
	}
	raw := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	out := make([]Line, 0, len(raw))
	open := ""
	for i, l := range raw {
		ln := Line{Number: firstLine + i, Text: l}
		if delim, ok := fence(l); ok {
			switch {
			case open == "":
				open = delim
				ln.InFence = true
			case delim[0] == open[0] && len(delim) >= len(open) &&
				strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(l), delim[:1])) == "":
				ln.InFence = true
				open = ""
			default:
				ln.InFence = true
			}
		} else if open != "" {
			ln.InFence = true
		}
		out = append(out, ln)
	}
	return out
}

// Clean removes fenced code blocks, delimiters included, so that only prose
// remains for word, keyword and readability analysis.
func Clean(markdown string) string {
	var b strings.Builder
	for _, l := range Lines(markdown, 1) {
		if l.InFence {
			continue
		}
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// Heading is an ATX heading outside code fences.
type Heading struct {
	Level int
	Text  string
	Line  int
}

var atxHeading = regexp.MustCompile(`^ {0,3}(#{1,6})(?:[ \t]+(.*?))?(?:[ \t]+#+)?[ \t]*$`)

// Headings returns the ATX headings of lines in document order.
func Headings(lines []Line) []Heading {
	var out []Heading
	for _, l := range lines {
		if l.InFence {
			continue
		}
		m := atxHeading.FindStringSubmatch(l.Text)
		if m == nil {
			continue
		}
		out = append(out, Heading{Level: len(m[1]), Text: strings.TrimSpace(m[2]), Line: l.Number})
	}
	return out
}

// FirstH1 returns the text of the first level-1 heading.
func FirstH1(lines []Line) (string, bool) {
	for _, h := range Headings(lines) {
		if h.Level == 1 && h.Text != "" {
			return h.Text, true
		}
	}
	return "", false
}

// Link is a markdown or wiki link (or image embed) found in a line.
type Link struct {
	Text   string
	Target string
	Line   int
	// Raw is the exact source text, usable as a search anchor.
	Raw   string
	Image bool
	Wiki  bool
}

var (
	inlineCode = regexp.MustCompile("`[^`]*`")
	mdLink     = regexp.MustCompile(`(!?)\[([^\]]*)\]\(\s*<?([^)\s>]*)>?(?:\s+(?:"[^"]*"|'[^']*'))?\s*\)`)
	wikiLink   = regexp.MustCompile(`(!?)\[\[([^\]]+)\]\]`)
)

// Links returns every markdown link, wiki link and image in lines, in
// order of appearance. Inline code spans are ignored.
func Links(lines []Line) []Link {
	var out []Link
	for _, l := range lines {
		if l.InFence {
			continue
		}
		text := inlineCode.ReplaceAllStringFunc(l.Text, func(s string) string {
			return strings.Repeat(" ", len(s))
		})
		type hit struct {
			at   int
			link Link
		}
		var hits []hit
		for _, m := range mdLink.FindAllStringSubmatchIndex(text, -1) {
			hits = append(hits, hit{at: m[0], link: Link{
				Image:  m[3] > m[2],
				Text:   text[m[4]:m[5]],
				Target: text[m[6]:m[7]],
				Line:   l.Number,
				Raw:    l.Text[m[0]:m[1]],
			}})
		}
		for _, m := range wikiLink.FindAllStringSubmatchIndex(text, -1) {
			inner := text[m[4]:m[5]]
			target, alias, _ := strings.Cut(inner, "|")
			hits = append(hits, hit{at: m[0], link: Link{
				Image:  m[3] > m[2],
				Wiki:   true,
				Text:   strings.TrimSpace(alias),
				Target: strings.TrimSpace(target),
				Line:   l.Number,
				Raw:    l.Text[m[0]:m[1]],
			}})
		}
		// stable insertion sort by column; lines rarely carry many links
		for i := 1; i < len(hits); i++ {
			for j := i; j > 0 && hits[j].at < hits[j-1].at; j-- {
				hits[j], hits[j-1] = hits[j-1], hits[j]
			}
		}
		for _, h := range hits {
			out = append(out, h.link)
		}
	}
	return out
}

// IsExternal reports whether target points outside the corpus.
func IsExternal(target string) bool {
	t := strings.ToLower(target)
	return strings.HasPrefix(t, "http://") || strings.HasPrefix(t, "https://") ||
		strings.HasPrefix(t, "//")
}
