// Package scan runs the audit pipeline over a whole corpus in bounded
// batches, then compares documents for duplication and aggregates once.
package scan

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/yorozuya-cybersecurity/docaudit/internal/docsource"
	"github.com/yorozuya-cybersecurity/docaudit/internal/duplicates"
	"github.com/yorozuya-cybersecurity/docaudit/internal/engine"
	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

// Progress phases.
const (
	PhaseDocuments  = "documents"
	PhaseDuplicates = "duplicates"
)

// DefaultBatchSize applies when the configuration leaves it unset.
const DefaultBatchSize = 20

// Scheduler produces corpus snapshots.
type Scheduler struct {
	pipeline  *engine.Pipeline
	batchSize int
	pause     time.Duration
	root      string
	now       func() time.Time
	newID     func() string
	tracer    trace.Tracer
	log       *zap.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithClock replaces time.Now, for deterministic progress timing.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithRoot records the corpus root on produced snapshots.
func WithRoot(root string) Option {
	return func(s *Scheduler) { s.root = root }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Scheduler) { s.tracer = t }
}

// New returns a scheduler driving p. Batch size and the pause between
// batches come from the pipeline configuration.
func New(p *engine.Pipeline, opts ...Option) *Scheduler {
	cfg := p.Config()
	s := &Scheduler{
		pipeline:  p,
		batchSize: cfg.Scan.BatchSize,
		pause:     cfg.Scan.BatchPause,
		now:       time.Now,
		newID:     uuid.NewString,
		tracer:    otel.Tracer("docaudit/scan"),
		log:       zap.NewNop(),
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultBatchSize
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run audits refs in input order. It never fails: when ctx is cancelled the
// batch in flight still completes, no further batch starts, and the
// returned snapshot is flagged partial with exactly the finished batches.
// Duplicate detection runs only when every batch finished and is itself
// interruptible.
func (s *Scheduler) Run(ctx context.Context, refs []docsource.Ref, onProgress func(schema.Progress)) *schema.CorpusSnapshot {
	if onProgress == nil {
		onProgress = func(schema.Progress) {}
	}
	start := s.now()
	total := len(refs)

	ctx, span := s.tracer.Start(ctx, "scan", trace.WithAttributes(
		attribute.Int("scan.documents", total),
		attribute.Int("scan.batch_size", s.batchSize),
	))
	defer span.End()
	s.log.Info("scan started", zap.Int("documents", total), zap.Int("batch_size", s.batchSize))

	snap := &schema.CorpusSnapshot{ID: s.newID(), Root: s.root, Total: total}
	outcomes := make([]engine.Outcome, 0, total)

	for first := 0; first < total; first += s.batchSize {
		if first > 0 {
			s.yield(ctx)
		}
		if ctx.Err() != nil {
			snap.Partial = true
			break
		}
		last := min(first+s.batchSize, total)
		outcomes = s.runBatch(ctx, refs[first:last], outcomes)
		onProgress(s.progress(PhaseDocuments, len(outcomes), total, start))
		s.log.Debug("batch finished", zap.Int("done", len(outcomes)), zap.Int("total", total))
	}
	if total == 0 {
		onProgress(s.progress(PhaseDocuments, 0, 0, start))
	}

	var dup duplicates.Result
	if snap.Partial {
		s.log.Info("scan cancelled", zap.Int("done", len(outcomes)), zap.Int("total", total))
	} else {
		dup = s.detect(ctx, outcomes, start, onProgress)
		snap.DuplicatesComplete = dup.Complete
		if !dup.Complete {
			snap.Partial = true
			s.log.Info("duplicate detection cancelled", zap.Int("pairs", dup.Pairs))
		}
	}

	snap.Results = make([]schema.DocumentAuditResult, len(outcomes))
	for i, o := range outcomes {
		snap.Results[i] = s.pipeline.Result(o, dup.Findings[o.Meta.ID])
	}
	snap.Timestamp = s.now()

	span.SetAttributes(attribute.Bool("scan.partial", snap.Partial), attribute.Int("scan.results", len(snap.Results)))
	if snap.Partial {
		span.SetStatus(codes.Error, "scan cancelled")
	} else {
		span.SetStatus(codes.Ok, "")
	}
	s.log.Info("scan finished",
		zap.Int("results", len(snap.Results)),
		zap.Bool("partial", snap.Partial),
		zap.Duration("elapsed", s.now().Sub(start)))
	return snap
}

// runBatch checks one batch to completion regardless of cancellation.
func (s *Scheduler) runBatch(ctx context.Context, batch []docsource.Ref, out []engine.Outcome) []engine.Outcome {
	ctx, span := s.tracer.Start(context.WithoutCancel(ctx), "scan.batch",
		trace.WithAttributes(attribute.Int("batch.size", len(batch))))
	defer span.End()
	for _, ref := range batch {
		out = append(out, s.pipeline.Prepare(ctx, ref))
	}
	return out
}

func (s *Scheduler) detect(ctx context.Context, outcomes []engine.Outcome, start time.Time, onProgress func(schema.Progress)) duplicates.Result {
	ctx, span := s.tracer.Start(ctx, "scan.duplicates")
	defer span.End()

	cfg := s.pipeline.Config()
	entries := make([]duplicates.Entry, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Available {
			entries = append(entries, o.Entry(cfg))
		}
	}
	res := duplicates.Detect(ctx, entries, cfg, duplicates.WithProgress(func(done, total int) {
		onProgress(s.progress(PhaseDuplicates, done, total, start))
	}))
	span.SetAttributes(attribute.Int("duplicates.pairs", res.Pairs), attribute.Bool("duplicates.complete", res.Complete))
	return res
}

// yield hands control back between batches: a plain scheduler yield, or the
// configured pause cut short by cancellation.
func (s *Scheduler) yield(ctx context.Context) {
	if s.pause <= 0 {
		runtime.Gosched()
		return
	}
	t := time.NewTimer(s.pause)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (s *Scheduler) progress(phase string, current, total int, start time.Time) schema.Progress {
	elapsed := s.now().Sub(start)
	p := schema.Progress{
		Phase:      phase,
		Current:    current,
		Total:      total,
		Percentage: 100,
		Elapsed:    elapsed,
	}
	if total > 0 {
		p.Percentage = float64(current) / float64(total) * 100
	}
	if current > 0 && current < total {
		p.EstimatedRemaining = time.Duration(float64(elapsed) / float64(current) * float64(total-current))
	}
	return p
}
