package docsource

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return root
}

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern, name string
		want          bool
	}{
		{"**/*.md", "a.md", true},
		{"**/*.md", "x/y/a.md", true},
		{"**/*.md", "x/a.txt", false},
		{"drafts/**", "drafts/a.md", true},
		{"drafts/**", "notes/drafts.md", false},
		{"*.md", "deep/dir/a.md", true},
		{"notes/*.md", "notes/sub/a.md", false},
		{"notes/**/a.md", "notes/a.md", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.pattern, tt.name))
		})
	}
}

func TestDir_ListDocuments(t *testing.T) {
	root := writeTree(t, map[string]string{
		"b.md":             "b",
		"a.md":             "a",
		"notes/c.markdown": "c",
		"drafts/d.md":      "d",
		".obsidian/e.md":   "e",
		"img/photo.png":    "png",
	})
	d, err := NewDir(root)
	require.NoError(t, err)

	refs, err := d.ListDocuments(context.Background(), Scope{Exclude: []string{"drafts/**"}})
	require.NoError(t, err)
	var ids []string
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"a.md", "b.md", "notes/c.markdown"}, ids)

	refs, err = d.ListDocuments(context.Background(), Scope{Include: []string{"notes/**"}})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "notes/c.markdown", refs[0].ID)

	assets, err := d.Assets(context.Background(), Scope{})
	require.NoError(t, err)
	assert.Equal(t, []string{"img/photo.png"}, assets)
}

func TestDir_ReadContent(t *testing.T) {
	root := writeTree(t, map[string]string{"a.md": "# Hello"})
	d, err := NewDir(root)
	require.NoError(t, err)

	ref, err := d.Ref(filepath.Join(root, "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "a.md", ref.ID)

	body, err := d.ReadContent(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "# Hello", body)

	require.NoError(t, os.Remove(ref.Path))
	_, err = d.ReadContent(context.Background(), ref)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "a.md", nf.Ref.ID)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestDir_RefOutsideRoot(t *testing.T) {
	d, err := NewDir(t.TempDir())
	require.NoError(t, err)
	_, err = d.Ref(filepath.Join(d.Root, "..", "x.md"))
	assert.Error(t, err)
}

func TestIsDocument(t *testing.T) {
	assert.True(t, IsDocument("a.md"))
	assert.True(t, IsDocument("A.MD"))
	assert.True(t, IsDocument("notes/x.markdown"))
	assert.False(t, IsDocument("a.txt"))
	assert.False(t, IsDocument("a.md.swp"))
}

func TestScope_Contains(t *testing.T) {
	s := Scope{Include: []string{"notes/**"}, Exclude: []string{"**/draft-*.md"}}
	assert.True(t, s.Contains("notes/a.md"))
	assert.True(t, s.Contains("notes/deep/b.md"))
	assert.False(t, s.Contains("notes/draft-c.md"))
	assert.False(t, s.Contains("other/a.md"))
	assert.True(t, Scope{}.Contains("anything.md"))
}
