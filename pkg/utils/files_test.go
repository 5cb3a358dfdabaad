package utils

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

func TestSaveAndLoadSnapshot(t *testing.T) {
	out := t.TempDir()
	snap := &schema.CorpusSnapshot{
		ID:        "abc",
		Root:      "/home/me/My Vault",
		Timestamp: time.Date(2025, 9, 11, 13, 17, 22, 0, time.UTC),
		Total:     1,
		Results: []schema.DocumentAuditResult{{
			DocumentID: "a.md", OverallScore: 90, WarningsCount: 2,
		}},
		DuplicatesComplete: true,
	}

	file, err := SaveSnapshot(snap, out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "My_Vault_20250911_131722", ResultsFile), file)

	got, err := LoadSnapshot(filepath.Dir(file))
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)
	assert.True(t, snap.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, snap.Results, got.Results)
	assert.True(t, got.DuplicatesComplete)
}

func TestSaveSnapshot_NoRoot(t *testing.T) {
	out := t.TempDir()
	file, err := SaveSnapshot(&schema.CorpusSnapshot{Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}, out)
	require.NoError(t, err)
	assert.Equal(t, "corpus_20250102_030405", filepath.Base(filepath.Dir(file)))
}

func TestLoadSnapshot_Missing(t *testing.T) {
	_, err := LoadSnapshot(t.TempDir())
	assert.Error(t, err)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "a_b_c_d", safeName(`a/b:c d`))
}
