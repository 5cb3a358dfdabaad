package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorozuya-cybersecurity/docaudit/internal/config"
	"github.com/yorozuya-cybersecurity/docaudit/internal/docsource"
	"github.com/yorozuya-cybersecurity/docaudit/internal/engine"
	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

const quiet = 30 * time.Millisecond

type countingChecker struct {
	mu    sync.Mutex
	calls []string
}

func (c *countingChecker) CheckDocument(_ context.Context, ref docsource.Ref) schema.DocumentAuditResult {
	c.mu.Lock()
	c.calls = append(c.calls, ref.ID)
	c.mu.Unlock()
	return schema.DocumentAuditResult{DocumentID: ref.ID, OverallScore: 100}
}

func (c *countingChecker) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func TestTrigger_DebouncesBurst(t *testing.T) {
	checker := &countingChecker{}
	results := make(chan schema.DocumentAuditResult, 4)
	burst := 150 * time.Millisecond
	tr := New(checker, func(r schema.DocumentAuditResult) { results <- r }, WithQuietPeriod(burst))
	defer tr.Close()

	for i := 0; i < 5; i++ {
		assert.True(t, tr.Edited(docsource.Ref{ID: "notes/a.md"}))
		assert.Equal(t, Pending, tr.State())
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case r := <-results:
		assert.Equal(t, "notes/a.md", r.DocumentID)
	case <-time.After(time.Second):
		t.Fatal("re-audit did not run")
	}
	assert.Eventually(t, func() bool { return tr.State() == Idle }, time.Second, time.Millisecond)

	time.Sleep(2 * burst)
	assert.Equal(t, 1, checker.count())
}

func TestTrigger_IgnoresIneligibleDocuments(t *testing.T) {
	checker := &countingChecker{}
	tr := New(checker, nil, WithQuietPeriod(quiet))
	defer tr.Close()

	assert.False(t, tr.Edited(docsource.Ref{ID: "image.png"}))
	assert.Equal(t, Idle, tr.State())
	time.Sleep(3 * quiet)
	assert.Zero(t, checker.count())
}

func TestTrigger_LatestDocumentWins(t *testing.T) {
	checker := &countingChecker{}
	results := make(chan schema.DocumentAuditResult, 4)
	tr := New(checker, func(r schema.DocumentAuditResult) { results <- r }, WithQuietPeriod(quiet))
	defer tr.Close()

	tr.Edited(docsource.Ref{ID: "a.md"})
	tr.Edited(docsource.Ref{ID: "b.md"})

	select {
	case r := <-results:
		assert.Equal(t, "b.md", r.DocumentID)
	case <-time.After(time.Second):
		t.Fatal("re-audit did not run")
	}
	time.Sleep(3 * quiet)
	assert.Equal(t, 1, checker.count())
}

func TestTrigger_CloseCancelsPending(t *testing.T) {
	checker := &countingChecker{}
	tr := New(checker, nil, WithQuietPeriod(quiet))

	tr.Edited(docsource.Ref{ID: "a.md"})
	tr.Close()
	assert.Equal(t, Idle, tr.State())
	assert.False(t, tr.Edited(docsource.Ref{ID: "a.md"}))

	time.Sleep(3 * quiet)
	assert.Zero(t, checker.count())
}

func TestTrigger_RunsPipelineWithoutDuplicates(t *testing.T) {
	src := docsource.NewMemory(map[string]string{"a.md": "---\ndescription: short\n---\n# A\n"})
	p := engine.New(src, config.Default())
	results := make(chan schema.DocumentAuditResult, 1)
	tr := New(p, func(r schema.DocumentAuditResult) { results <- r }, WithQuietPeriod(quiet))
	defer tr.Close()

	require.True(t, tr.Edited(docsource.Ref{ID: "a.md"}))
	select {
	case r := <-results:
		assert.Equal(t, "a.md", r.DocumentID)
		assert.NotEmpty(t, r.Checks)
		for _, name := range r.Checks.Names() {
			assert.NotContains(t, name, "duplicate")
		}
	case <-time.After(time.Second):
		t.Fatal("re-audit did not run")
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "pending", Pending.String())
}

type slowChecker struct {
	delay  time.Duration
	active atomic.Int32
	peak   atomic.Int32
	done   atomic.Int32
}

func (c *slowChecker) CheckDocument(_ context.Context, ref docsource.Ref) schema.DocumentAuditResult {
	n := c.active.Add(1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(c.delay)
	c.active.Add(-1)
	c.done.Add(1)
	return schema.DocumentAuditResult{DocumentID: ref.ID}
}

func TestTrigger_SlowReauditsDoNotOverlap(t *testing.T) {
	checker := &slowChecker{delay: 6 * quiet}
	tr := New(checker, nil, WithQuietPeriod(quiet))
	defer tr.Close()

	assert.True(t, tr.Edited(docsource.Ref{ID: "a.md"}))
	time.Sleep(2 * quiet)
	assert.True(t, tr.Edited(docsource.Ref{ID: "a.md"}))

	assert.Eventually(t, func() bool { return checker.done.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), checker.peak.Load())
}
