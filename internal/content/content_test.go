package content

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_YAML(t *testing.T) {
	raw := "---\ntitle: Garden Ideas\nkeyword: [garden design]\n---\n# Heading\nBody text.\n"
	doc := Split(raw)

	require.NoError(t, doc.FrontmatterErr)
	title, ok := doc.Frontmatter.String("title")
	require.True(t, ok)
	assert.Equal(t, "Garden Ideas", title)
	kw, ok := doc.Frontmatter.String("keyword")
	require.True(t, ok)
	assert.Equal(t, "garden design", kw)
	assert.Equal(t, 5, doc.BodyLine)
	assert.Equal(t, "# Heading\nBody text.\n", doc.Body)
}

func TestSplit_TOML(t *testing.T) {
	raw := "+++\ntitle = \"Garden\"\naudit_ignore = [\"reading-level\"]\n+++\nBody\n"
	doc := Split(raw)

	require.NoError(t, doc.FrontmatterErr)
	title, _ := doc.Frontmatter.String("title")
	assert.Equal(t, "Garden", title)
	assert.Equal(t, []string{"reading-level"}, doc.Frontmatter.Strings("audit_ignore"))
	assert.Equal(t, "Body\n", doc.Body)
}

func TestSplit_MissingOrMalformed(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantErr  error
		wantBody string
	}{
		{"no block", "# Title\ntext", ErrNoFrontmatter, "# Title\ntext"},
		{"unterminated", "---\ntitle: x\nno end", ErrMalformedFrontmatter, "---\ntitle: x\nno end"},
		{"bad yaml", "---\ntitle: [unclosed\n---\nbody", ErrMalformedFrontmatter, "body"},
		{"scalar yaml", "---\njust text\n---\nbody", ErrMalformedFrontmatter, "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Split(tt.raw)
			assert.Nil(t, doc.Frontmatter)
			assert.True(t, errors.Is(doc.FrontmatterErr, tt.wantErr), "got %v", doc.FrontmatterErr)
			assert.Equal(t, tt.wantBody, doc.Body)
		})
	}
}

func TestSplit_EmptyBlockIsPresent(t *testing.T) {
	doc := Split("---\n---\nbody")
	require.NoError(t, doc.FrontmatterErr)
	assert.NotNil(t, doc.Frontmatter)
	_, ok := doc.Frontmatter.String("title")
	assert.False(t, ok)
}

func TestClean_RemovesFences(t *testing.T) {
	md := "Intro words.\n```go\nfunc main() {}\n```\nMiddle.\n~~~\ncode ``` still code\n~~~\nEnd."
	assert.Equal(t, "Intro words.\nMiddle.\nEnd.", Clean(md))
}

func TestClean_UnclosedFenceRunsToEnd(t *testing.T) {
	assert.Equal(t, "Prose.", Clean("Prose.\n```\nnever closed\nmore"))
}

func TestLines_NumberingOffset(t *testing.T) {
	lines := Lines("a\n```\nb\n```\nc", 4)
	require.Len(t, lines, 5)
	assert.Equal(t, 4, lines[0].Number)
	assert.False(t, lines[0].InFence)
	assert.True(t, lines[1].InFence)
	assert.True(t, lines[2].InFence)
	assert.True(t, lines[3].InFence)
	assert.False(t, lines[4].InFence)
	assert.Equal(t, 8, lines[4].Number)
}

func TestHeadings(t *testing.T) {
	lines := Lines("# One\ntext\n## Two ##\n```\n# not a heading\n```\n#NoSpace\n###### Six", 1)
	hs := Headings(lines)
	require.Len(t, hs, 3)
	assert.Equal(t, Heading{Level: 1, Text: "One", Line: 1}, hs[0])
	assert.Equal(t, Heading{Level: 2, Text: "Two", Line: 3}, hs[1])
	assert.Equal(t, 6, hs[2].Level)

	h1, ok := FirstH1(lines)
	assert.True(t, ok)
	assert.Equal(t, "One", h1)
}

func TestLinks(t *testing.T) {
	lines := Lines("See [guide](docs/guide.md) and [[Other Note|alias]].\n![diagram](img/flow-chart.png) `[not](link.md)`\n![[photo.jpg]]", 1)
	links := Links(lines)
	require.Len(t, links, 4)

	assert.Equal(t, "docs/guide.md", links[0].Target)
	assert.False(t, links[0].Wiki)

	assert.True(t, links[1].Wiki)
	assert.Equal(t, "Other Note", links[1].Target)
	assert.Equal(t, "alias", links[1].Text)

	assert.True(t, links[2].Image)
	assert.Equal(t, "diagram", links[2].Text)
	assert.Equal(t, 2, links[2].Line)

	assert.True(t, links[3].Image)
	assert.True(t, links[3].Wiki)
	assert.Equal(t, "photo.jpg", links[3].Target)
}

func TestCountPhrase(t *testing.T) {
	text := "Garden design matters. A garden-design blog about GARDEN design, and gardens."
	assert.Equal(t, 2, CountPhrase(text, "garden design"))
	assert.Equal(t, 2, CountPhrase(text, "garden"))
	assert.Equal(t, 0, CountPhrase(text, ""))
}

func TestSyllables(t *testing.T) {
	tests := map[string]int{
		"cat":       1,
		"garden":    2,
		"make":      1,
		"table":     2,
		"readable":  3,
		"the":       1,
		"beautiful": 3,
	}
	for word, want := range tests {
		assert.Equal(t, want, Syllables(word), word)
	}
}

func TestReadingEase(t *testing.T) {
	easy, ok := ReadingEase("The cat sat on the mat. The dog ran.")
	require.True(t, ok)
	hard, ok := ReadingEase("Organizational interoperability necessitates comprehensive institutional considerations regarding infrastructural modernization.")
	require.True(t, ok)
	assert.Greater(t, easy, hard)

	_, ok = ReadingEase("   ")
	assert.False(t, ok)
}

func TestPlainText(t *testing.T) {
	got := PlainText("## Title\n- item with [link text](x.md) and **bold**\n![img](a.png)")
	assert.NotContains(t, got, "##")
	assert.Contains(t, got, "link text")
	assert.NotContains(t, got, "**")
	assert.NotContains(t, got, "a.png")
}
