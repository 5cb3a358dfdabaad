// Package engine runs the single-document audit pipeline: read, parse,
// run the check registry and aggregate. It never returns an error; every
// failure becomes a finding.
package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/yorozuya-cybersecurity/docaudit/internal/aggregate"
	"github.com/yorozuya-cybersecurity/docaudit/internal/checks"
	"github.com/yorozuya-cybersecurity/docaudit/internal/config"
	"github.com/yorozuya-cybersecurity/docaudit/internal/content"
	"github.com/yorozuya-cybersecurity/docaudit/internal/docsource"
	"github.com/yorozuya-cybersecurity/docaudit/internal/duplicates"
	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

// Pipeline audits documents read from a source under one configuration.
type Pipeline struct {
	source   docsource.Source
	cfg      config.Config
	registry *checks.Registry
	links    checks.LinkResolver
	probe    checks.LinkProbe
	log      *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithRegistry replaces the built-in catalog.
func WithRegistry(r *checks.Registry) Option {
	return func(p *Pipeline) { p.registry = r }
}

// WithLinkResolver enables the broken-links check.
func WithLinkResolver(r checks.LinkResolver) Option {
	return func(p *Pipeline) { p.links = r }
}

// WithLinkProbe enables the external-links check.
func WithLinkProbe(pr checks.LinkProbe) Option {
	return func(p *Pipeline) { p.probe = pr }
}

// New returns a pipeline. cfg is copied and never modified.
func New(source docsource.Source, cfg config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:   source,
		cfg:      cfg,
		registry: checks.NewRegistry(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the configuration the pipeline runs with.
func (p *Pipeline) Config() config.Config {
	return p.cfg
}

// Outcome is a checked but not yet aggregated document.
type Outcome struct {
	Ref    docsource.Ref
	Meta   checks.Meta
	Doc    checks.Document
	Checks schema.CheckResults
	// Available is false when the document could not be read; Checks then
	// holds the single access finding.
	Available bool
}

// Entry projects the outcome for duplicate detection.
func (o Outcome) Entry(cfg config.Config) duplicates.Entry {
	return duplicates.NewEntry(o.Doc, o.Meta, cfg)
}

// Prepare reads and checks one document.
func (p *Pipeline) Prepare(ctx context.Context, ref docsource.Ref) (out Outcome) {
	meta := checks.NewMeta(ref.ID)
	meta.Links = p.links
	meta.Probe = p.probe
	out = Outcome{Ref: ref, Meta: meta}

	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error("document pipeline panicked", zap.String("document", ref.ID), zap.Any("panic", rec))
			out.Checks = schema.CheckResults{unavailable(fmt.Sprintf("Document could not be audited: %v", rec))}
			out.Available = false
		}
	}()

	raw, err := p.source.ReadContent(ctx, ref)
	if err != nil {
		var nf *docsource.NotFoundError
		msg := fmt.Sprintf("Document could not be read: %v", err)
		if errors.As(err, &nf) {
			msg = fmt.Sprintf("Document %s no longer exists", ref.ID)
		}
		p.log.Warn("document unavailable", zap.String("document", ref.ID), zap.Error(err))
		out.Checks = schema.CheckResults{unavailable(msg)}
		return out
	}

	doc := checks.Parse(raw)
	if errors.Is(doc.FrontmatterErr, content.ErrMalformedFrontmatter) {
		p.log.Debug("malformed frontmatter treated as absent", zap.String("document", ref.ID))
	}
	results, faults := p.registry.Run(doc, meta, p.cfg)
	for _, f := range faults {
		p.log.Error("check fault", zap.String("document", ref.ID), zap.String("check", f.Check), zap.Any("panic", f.Value))
	}
	out.Doc = doc
	out.Checks = results
	out.Available = true
	return out
}

// Result aggregates an outcome, appending any corpus-scoped findings.
func (p *Pipeline) Result(o Outcome, extra schema.CheckResults) schema.DocumentAuditResult {
	all := o.Checks
	if len(extra) > 0 {
		all = append(append(schema.CheckResults{}, o.Checks...), extra...)
	}
	return aggregate.Aggregate(o.Meta.ID, o.Meta.DisplayName, all, p.cfg.Scoring)
}

// CheckDocument audits a single document without corpus-scoped checks.
func (p *Pipeline) CheckDocument(ctx context.Context, ref docsource.Ref) schema.DocumentAuditResult {
	return p.Result(p.Prepare(ctx, ref), nil)
}

func unavailable(msg string) schema.CheckResult {
	return schema.CheckResult{
		Name: checks.DocumentAccess,
		Findings: []schema.Finding{{
			Message:    msg,
			Suggestion: "The document was skipped; re-run the audit once it is available.",
			Severity:   schema.SeverityError,
		}},
	}
}
