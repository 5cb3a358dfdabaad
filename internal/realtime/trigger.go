// Package realtime re-audits the document being edited once edits have
// stopped for a quiet period.
package realtime

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yorozuya-cybersecurity/docaudit/internal/docsource"
	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

// State of the trigger.
type State int

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// DefaultQuietPeriod applies when none is configured.
const DefaultQuietPeriod = 2 * time.Second

// Checker runs the single-document pipeline; engine.Pipeline satisfies it.
type Checker interface {
	CheckDocument(ctx context.Context, ref docsource.Ref) schema.DocumentAuditResult
}

// Sink receives each re-audit result.
type Sink func(schema.DocumentAuditResult)

// Trigger is a two-state debouncer with a single timer handle. Each arm
// bumps a generation counter so a timer that fires after being superseded
// does nothing.
type Trigger struct {
	mu      sync.Mutex
	state   State
	timer   *time.Timer
	gen     uint64
	pending docsource.Ref
	closed  bool

	quiet    time.Duration
	checker  Checker
	sink     Sink
	eligible func(id string) bool
	ctx      context.Context
	cancel   context.CancelFunc
	running  sync.WaitGroup
	// runMu serialises re-audits so a slow one never overlaps the next.
	runMu sync.Mutex
	log   *zap.Logger
}

// Option configures a Trigger.
type Option func(*Trigger)

func WithQuietPeriod(d time.Duration) Option {
	return func(t *Trigger) { t.quiet = d }
}

// WithEligible replaces the default markdown file filter.
func WithEligible(fn func(id string) bool) Option {
	return func(t *Trigger) { t.eligible = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(t *Trigger) { t.log = l }
}

// New returns an idle trigger.
func New(checker Checker, sink Sink, opts ...Option) *Trigger {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Trigger{
		quiet:    DefaultQuietPeriod,
		checker:  checker,
		sink:     sink,
		eligible: docsource.IsDocument,
		ctx:      ctx,
		cancel:   cancel,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.quiet <= 0 {
		t.quiet = DefaultQuietPeriod
	}
	return t
}

// Edited records an edit. Ineligible documents are ignored without arming
// the timer; otherwise any outstanding timer is cancelled and a new quiet
// period starts for ref. It reports whether the timer was armed.
func (t *Trigger) Edited(ref docsource.Ref) bool {
	if !t.eligible(ref.ID) {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	if t.state == Pending && t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.state = Pending
	t.pending = ref
	t.timer = time.AfterFunc(t.quiet, func() { t.fire(gen) })
	t.log.Debug("re-audit armed", zap.String("document", ref.ID), zap.Duration("quiet", t.quiet))
	return true
}

func (t *Trigger) fire(gen uint64) {
	t.mu.Lock()
	if t.closed || gen != t.gen || t.state != Pending {
		t.mu.Unlock()
		return
	}
	t.state = Idle
	t.timer = nil
	ref := t.pending
	t.running.Add(1)
	t.mu.Unlock()
	defer t.running.Done()

	t.runMu.Lock()
	defer t.runMu.Unlock()
	if t.ctx.Err() != nil {
		return
	}
	res := t.checker.CheckDocument(t.ctx, ref)
	if t.ctx.Err() != nil {
		// Closed mid-audit; the result may be a cancelled read.
		return
	}
	t.log.Debug("re-audit finished", zap.String("document", ref.ID), zap.Float64("score", res.OverallScore))
	if t.sink != nil {
		t.sink(res)
	}
}

// State reports the current state.
func (t *Trigger) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Close stops any pending timer and waits for a running re-audit.
// Later edits are ignored.
func (t *Trigger) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.state = Idle
	t.mu.Unlock()

	t.cancel()
	t.running.Wait()
}
