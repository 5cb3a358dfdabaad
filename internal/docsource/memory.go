package docsource

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"sync"
)

// Memory is a Source over in-memory documents keyed by ID.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]string
}

func NewMemory(docs map[string]string) *Memory {
	m := &Memory{docs: make(map[string]string, len(docs))}
	for id, body := range docs {
		m.docs[id] = body
	}
	return m
}

// Set adds or replaces a document.
func (m *Memory) Set(id, body string) {
	m.mu.Lock()
	m.docs[id] = body
	m.mu.Unlock()
}

// Delete removes a document; later reads fail with *NotFoundError.
func (m *Memory) Delete(id string) {
	m.mu.Lock()
	delete(m.docs, id)
	m.mu.Unlock()
}

func (m *Memory) ListDocuments(ctx context.Context, scope Scope) ([]Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var refs []Ref
	for id := range m.docs {
		if !scope.Contains(id) {
			continue
		}
		refs = append(refs, Ref{ID: id})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs, nil
}

func (m *Memory) ReadContent(ctx context.Context, ref Ref) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	body, ok := m.docs[ref.ID]
	if !ok {
		return "", &NotFoundError{Ref: ref, Err: fmt.Errorf("%s: %w", ref.ID, fs.ErrNotExist)}
	}
	return body, nil
}
