package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/yorozuya-cybersecurity/docaudit/internal/cache"
	"github.com/yorozuya-cybersecurity/docaudit/internal/checks"
	"github.com/yorozuya-cybersecurity/docaudit/internal/config"
	"github.com/yorozuya-cybersecurity/docaudit/internal/docsource"
	"github.com/yorozuya-cybersecurity/docaudit/internal/engine"
	"github.com/yorozuya-cybersecurity/docaudit/internal/report"
)

const probeTimeout = 10 * time.Second

// corpus is a directory of documents ready to be audited.
type corpus struct {
	cfg      config.Config
	src      *docsource.Dir
	scope    docsource.Scope
	refs     []docsource.Ref
	pipeline *engine.Pipeline
}

// openCorpus lists the documents under root and builds the pipeline with a
// link index over every file in scope. probeLinks enables the external-links
// check with an HTTP probe.
func openCorpus(ctx context.Context, root string, probeLinks bool) (*corpus, error) {
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, err
	}
	src, err := docsource.NewDir(root)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	scope := docsource.Scope{Include: cfg.Scan.Include, Exclude: cfg.Scan.Exclude}
	refs, err := src.ListDocuments(ctx, scope)
	if err != nil {
		return nil, err
	}
	assets, err := src.Assets(ctx, scope)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithLinkResolver(checks.NewIndex(ids, assets)),
	}
	if probeLinks {
		cfg.Checks.ExternalLinks = true
		opts = append(opts, engine.WithLinkProbe(newHTTPProbe(ctx, probeTimeout)))
	}
	logger.Debug("corpus opened", zap.String("root", src.Root), zap.Int("documents", len(refs)), zap.Int("assets", len(assets)))

	return &corpus{
		cfg:      cfg,
		src:      src,
		scope:    scope,
		refs:     refs,
		pipeline: engine.New(src, cfg, opts...),
	}, nil
}

// openCache returns a manager bound to cfg with the persisted snapshot
// loaded, and a func releasing the store. A snapshot that cannot be loaded
// is logged and ignored.
func openCache(ctx context.Context, cfg config.Config) (*cache.Manager, func(), error) {
	store, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}
	release := func() {
		if c, ok := store.(io.Closer); ok {
			_ = c.Close()
		}
	}
	mgr := cache.New(cfg, cache.WithStore(store), cache.WithLogger(logger))
	if err := mgr.Load(ctx); err != nil {
		logger.Warn("cached snapshot ignored", zap.Error(err))
	}
	return mgr, release, nil
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func textOptions() report.TextOptions {
	opts := report.TextOptions{
		Color:   !color.NoColor,
		Verbose: viper.GetBool("verbose"),
	}
	if stdoutIsTerminal() {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			opts.Width = w
		}
	}
	return opts
}
