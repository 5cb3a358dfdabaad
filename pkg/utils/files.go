package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

// ResultsFile is the name of the exported snapshot inside a run directory.
const ResultsFile = "results.json"

// SaveSnapshot writes the snapshot into ./reports/<root_timestamp>/results.json
// and returns the file path.
func SaveSnapshot(snap *schema.CorpusSnapshot, outputDir string) (string, error) {
	root := filepath.Base(filepath.Clean(snap.Root))
	if snap.Root == "" || root == "." || root == string(filepath.Separator) {
		root = "corpus"
	}
	dir := filepath.Join(outputDir, safeName(root)+"_"+snap.Timestamp.Format("20060102_150405"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	file := filepath.Join(dir, ResultsFile)
	fh, err := os.Create(file)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", ResultsFile, err)
	}
	defer fh.Close()

	enc := json.NewEncoder(fh)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}

	return file, nil
}

// LoadSnapshot reads results.json from a run directory written by SaveSnapshot.
func LoadSnapshot(fromDir string) (*schema.CorpusSnapshot, error) {
	data, err := os.ReadFile(filepath.Join(fromDir, ResultsFile))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ResultsFile, err)
	}
	var snap schema.CorpusSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ResultsFile, err)
	}
	return &snap, nil
}

// safeName replaces characters not safe for file paths
func safeName(s string) string {
	invalid := []rune{'/', '\\', ':', '*', '?', '"', '<', '>', '|', ' '}
	rs := []rune(s)
	for i, r := range rs {
		for _, bad := range invalid {
			if r == bad {
				rs[i] = '_'
			}
		}
	}
	return string(rs)
}
