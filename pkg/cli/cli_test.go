package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

func TestParseFormats(t *testing.T) {
	assert.Equal(t, []string{"html", "pdf", "sarif"}, parseFormats(" HTML, pdf ,sarif"))
	assert.True(t, contains(parseFormats("text"), "text"))
	assert.False(t, contains(parseFormats("html"), "pdf"))
}

func TestWriteVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeVersion(&buf, "text"))
	assert.Equal(t, "docaudit "+Version+"\n", buf.String())

	buf.Reset()
	require.NoError(t, writeVersion(&buf, "json"))
	var p versionPayload
	require.NoError(t, json.Unmarshal(buf.Bytes(), &p))
	assert.Equal(t, "docaudit", p.Tool)
	assert.Equal(t, Version, p.Version)

	assert.Error(t, writeVersion(&buf, "yaml"))
}

func TestCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"scan", "check", "watch", "report", "cache", "version"} {
		assert.True(t, names[want], want)
	}
}

func TestOpenCorpus(t *testing.T) {
	root := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	for name, body := range map[string]string{
		"a.md":           "# A\n\nSee [b](b.md) and [missing](nope.md).\n",
		"notes/b.md":     "# B\n\nbody\n",
		"img/photo.png":  "png",
		".docaudit.yaml": "content:\n  min_words: 5\nscan:\n  exclude:\n    - \"notes/**\"\n",
	} {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}

	c, err := openCorpus(context.Background(), root, false)
	require.NoError(t, err)
	assert.Equal(t, 5, c.cfg.Content.MinWords)
	require.Len(t, c.refs, 1)
	assert.Equal(t, "a.md", c.refs[0].ID)

	res := c.pipeline.CheckDocument(context.Background(), c.refs[0])
	links, ok := res.Checks.Get("broken-links")
	require.True(t, ok)
	require.Len(t, links, 2)
	for _, f := range links {
		assert.Equal(t, schema.SeverityError, f.Severity)
	}
}
