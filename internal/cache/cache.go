// Package cache owns the single current corpus snapshot and its persisted
// copy. The snapshot is dropped whenever the configuration changes.
package cache

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yorozuya-cybersecurity/docaudit/internal/config"
	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

// Manager holds at most one snapshot (last write wins).
type Manager struct {
	mu          sync.RWMutex
	current     *schema.CorpusSnapshot
	fingerprint string
	store       Store
	log         *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger; the default discards.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithStore persists snapshots; without one the manager is memory-only.
func WithStore(s Store) Option {
	return func(m *Manager) { m.store = s }
}

// New returns an empty manager bound to cfg.
func New(cfg config.Config, opts ...Option) *Manager {
	m := &Manager{fingerprint: cfg.Fingerprint(), log: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load restores the persisted snapshot. A record with another schema
// version or produced under another configuration is treated as absent and
// left in the store until the next Put replaces it.
func (m *Manager) Load(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	rec, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load cached snapshot: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case rec == nil:
		return nil
	case rec.Schema != recordSchemaVersion:
		m.log.Info("ignoring cached snapshot", zap.Uint16("schema", rec.Schema))
		m.current = nil
		return nil
	case rec.Fingerprint != m.fingerprint:
		m.log.Info("ignoring cached snapshot", zap.String("reason", "configuration changed"))
		m.current = nil
		return nil
	}
	m.current = rec.Snapshot()
	return nil
}

// Get returns the current snapshot.
func (m *Manager) Get() (*schema.CorpusSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.current != nil
}

// Put replaces the current snapshot and persists it.
func (m *Manager) Put(ctx context.Context, s *schema.CorpusSnapshot) error {
	if s == nil {
		return m.Invalidate(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
	if m.store == nil {
		return nil
	}
	if err := m.store.Save(ctx, newRecord(s, m.fingerprint)); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

// Invalidate drops the snapshot. Get reports absent until the next Put.
func (m *Manager) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invalidateLocked(ctx)
}

func (m *Manager) invalidateLocked(ctx context.Context) error {
	m.current = nil
	m.log.Info("cache invalidated")
	if m.store == nil {
		return nil
	}
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear persisted snapshot: %w", err)
	}
	return nil
}

// SetConfig binds a new configuration. When any value differs from the
// current one the snapshot is invalidated before SetConfig returns.
func (m *Manager) SetConfig(ctx context.Context, cfg config.Config) (changed bool, err error) {
	fp := cfg.Fingerprint()

	m.mu.Lock()
	defer m.mu.Unlock()
	if fp == m.fingerprint {
		return false, nil
	}
	m.fingerprint = fp
	return true, m.invalidateLocked(ctx)
}
