package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/yorozuya-cybersecurity/docaudit/internal/logging"
	"github.com/yorozuya-cybersecurity/docaudit/internal/report"
	"github.com/yorozuya-cybersecurity/docaudit/internal/scan"
	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
	"github.com/yorozuya-cybersecurity/docaudit/internal/ui"
	"github.com/yorozuya-cybersecurity/docaudit/pkg/utils"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "scan [dir]",
		Short:   "Audit every markdown document under a directory",
		Example: "docaudit scan ./vault --format html,sarif",
		Args:    cobra.MaximumNArgs(1),
		RunE:    runScan,
	}

	cmd.Flags().String("format", "text", "Outputs besides results.json: text,html,pdf,sarif")
	cmd.Flags().Bool("probe-links", false, "Check external links with HTTP requests")
	cmd.Flags().Bool("no-progress", false, "Disable the interactive progress display")

	_ = viper.BindPFlag("scan.format", cmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("scan.probe_links", cmd.Flags().Lookup("probe-links"))
	_ = viper.BindPFlag("scan.no_progress", cmd.Flags().Lookup("no-progress"))
	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	ctx := cmd.Context()

	c, err := openCorpus(ctx, root, viper.GetBool("scan.probe_links"))
	if err != nil {
		return err
	}
	mgr, release, err := openCache(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer release()

	var snap *schema.CorpusSnapshot
	if stdoutIsTerminal() && !viper.GetBool("scan.no_progress") {
		sched := scan.New(c.pipeline, scan.WithRoot(c.src.Root), scan.WithLogger(logging.Quiet(logger)))
		title := fmt.Sprintf("Auditing %d documents in %s", len(c.refs), filepath.Base(c.src.Root))
		snap, err = ui.RunWithProgress(ctx, title, os.Stdout, func(ctx context.Context, onProgress func(schema.Progress)) *schema.CorpusSnapshot {
			return sched.Run(ctx, c.refs, onProgress)
		})
		if err != nil {
			logger.Warn("progress display failed", zap.Error(err))
		}
	} else {
		sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		sched := scan.New(c.pipeline, scan.WithRoot(c.src.Root), scan.WithLogger(logger))
		snap = sched.Run(sigCtx, c.refs, func(p schema.Progress) {
			logger.Debug("progress",
				zap.String("phase", p.Phase),
				zap.Int("current", p.Current),
				zap.Int("total", p.Total),
				zap.Duration("remaining", p.EstimatedRemaining))
		})
	}
	if snap == nil {
		return fmt.Errorf("scan of %s produced no snapshot", root)
	}

	if err := mgr.Put(ctx, snap); err != nil {
		logger.Warn("snapshot not cached", zap.Error(err))
	}

	file, err := utils.SaveSnapshot(snap, viper.GetString("output"))
	if err != nil {
		return err
	}
	formats := parseFormats(viper.GetString("scan.format"))
	if contains(formats, "text") {
		report.WriteSnapshot(os.Stdout, snap, textOptions())
	}
	if err := writeReports(ctx, snap, filepath.Dir(file), formats); err != nil {
		return err
	}
	fmt.Printf("Results saved to %s\n", file)
	return nil
}
