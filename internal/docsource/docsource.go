// Package docsource lists and reads the markdown documents of a corpus.
package docsource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Ref identifies one document. ID is the slash-separated path relative to
// the corpus root and is stable across scans.
type Ref struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// Scope narrows a listing with glob patterns over Ref.ID. A `**` segment
// matches any number of directories.
type Scope struct {
	Include []string
	Exclude []string
}

// Contains reports whether a document ID is in scope.
func (s Scope) Contains(id string) bool {
	if matchAny(s.Exclude, id) {
		return false
	}
	return len(s.Include) == 0 || matchAny(s.Include, id)
}

// Source is the document-access collaborator the engine reads through.
type Source interface {
	ListDocuments(ctx context.Context, scope Scope) ([]Ref, error)
	ReadContent(ctx context.Context, ref Ref) (string, error)
}

// NotFoundError reports a document that vanished between listing and
// reading.
type NotFoundError struct {
	Ref Ref
	Err error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document %s not found: %v", e.Ref.ID, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// IsDocument reports whether a file name is audit-eligible markdown.
func IsDocument(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// Dir is a Source over a directory tree. Hidden directories are skipped.
type Dir struct {
	Root string
}

// NewDir resolves root to an absolute directory.
func NewDir(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	return &Dir{Root: abs}, nil
}

// Ref builds the reference for a file path inside the root.
func (d *Dir) Ref(p string) (Ref, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return Ref{}, err
	}
	rel, err := filepath.Rel(d.Root, abs)
	if err != nil {
		return Ref{}, err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Ref{}, fmt.Errorf("%s is outside %s", p, d.Root)
	}
	return Ref{ID: filepath.ToSlash(rel), Path: abs}, nil
}

// ListDocuments returns the markdown files in scope, sorted by ID.
func (d *Dir) ListDocuments(ctx context.Context, scope Scope) ([]Ref, error) {
	docs, _, err := d.walk(ctx, scope)
	return docs, err
}

// Assets returns the IDs of every non-document file not excluded by scope.
// Links may point at them.
func (d *Dir) Assets(ctx context.Context, scope Scope) ([]string, error) {
	_, assets, err := d.walk(ctx, scope)
	return assets, err
}

func (d *Dir) walk(ctx context.Context, scope Scope) (docs []Ref, assets []string, err error) {
	err = filepath.WalkDir(d.Root, func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if e.IsDir() {
			if p != d.Root && strings.HasPrefix(e.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(d.Root, p)
		if err != nil {
			return err
		}
		id := filepath.ToSlash(rel)
		if matchAny(scope.Exclude, id) {
			return nil
		}
		if !IsDocument(id) {
			assets = append(assets, id)
			return nil
		}
		if !scope.Contains(id) {
			return nil
		}
		docs = append(docs, Ref{ID: id, Path: p})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("list %s: %w", d.Root, err)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	sort.Strings(assets)
	return docs, assets, nil
}

// ReadContent reads the document. A missing file yields *NotFoundError.
func (d *Dir) ReadContent(ctx context.Context, ref Ref) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p := ref.Path
	if p == "" {
		p = filepath.Join(d.Root, filepath.FromSlash(ref.ID))
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &NotFoundError{Ref: ref, Err: err}
		}
		return "", fmt.Errorf("read %s: %w", ref.ID, err)
	}
	return string(data), nil
}

func matchAny(patterns []string, id string) bool {
	for _, p := range patterns {
		if Match(p, id) {
			return true
		}
	}
	return false
}

// Match reports whether a slash-separated path matches pattern. Segments
// follow path.Match; `**` matches zero or more segments. A pattern without
// a slash is matched against the base name.
func Match(pattern, name string) bool {
	if !strings.Contains(pattern, "/") {
		ok, _ := path.Match(pattern, path.Base(name))
		return ok
	}
	return matchSegments(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func matchSegments(pat, parts []string) bool {
	for len(pat) > 0 {
		if pat[0] == "**" {
			rest := pat[1:]
			for i := 0; i <= len(parts); i++ {
				if matchSegments(rest, parts[i:]) {
					return true
				}
			}
			return false
		}
		if len(parts) == 0 {
			return false
		}
		if ok, _ := path.Match(pat[0], parts[0]); !ok {
			return false
		}
		pat, parts = pat[1:], parts[1:]
	}
	return len(parts) == 0
}
