package cli

import (
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yorozuya-cybersecurity/docaudit/internal/realtime"
	"github.com/yorozuya-cybersecurity/docaudit/internal/report"
	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-audit documents as they are edited",
		Long: "Watch a directory and re-audit each edited document once edits to it have been quiet for " +
			"realtime.quiet_period. Duplicate detection is not run.",
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := openCorpus(ctx, root, false)
	if err != nil {
		return err
	}

	var outMu sync.Mutex
	opts := textOptions()
	sink := func(res schema.DocumentAuditResult) {
		outMu.Lock()
		defer outMu.Unlock()
		fmt.Printf("\n[%s] ", time.Now().Format("15:04:05"))
		report.WriteDocument(os.Stdout, res, opts)
	}
	trigger := realtime.New(c.pipeline, sink,
		realtime.WithQuietPeriod(c.cfg.Realtime.QuietPeriod),
		realtime.WithLogger(logger))
	defer trigger.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watchTree(watcher, c.src.Root); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Watching %s (%d documents). Press Ctrl-C to stop.\n", c.src.Root, len(c.refs))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return watcher.Close()
	})
	g.Go(func() error {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if ev.Has(fsnotify.Create) {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						if err := watchTree(watcher, ev.Name); err != nil {
							logger.Warn("cannot watch directory", zap.String("dir", ev.Name), zap.Error(err))
						}
						continue
					}
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				ref, err := c.src.Ref(ev.Name)
				if err != nil || !c.scope.Contains(ref.ID) {
					continue
				}
				trigger.Edited(ref)
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Warn("watch error", zap.Error(err))
			}
		}
	})
	return g.Wait()
}

// watchTree adds dir and every non-hidden directory below it.
func watchTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !e.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(e.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}
