package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yorozuya-cybersecurity/docaudit/internal/docsource"
	"github.com/yorozuya-cybersecurity/docaudit/internal/engine"
	"github.com/yorozuya-cybersecurity/docaudit/internal/report"
	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

// stdinID names a document read from standard input.
const stdinID = "stdin.md"

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file|->",
		Short: "Audit a single document (no duplicate detection)",
		Long: "Audit a single document. Links are resolved against --root, which defaults to the file's directory. " +
			"Pass - to read the document from standard input.",
		Example: "docaudit check notes/garden.md --root .",
		Args:    cobra.ExactArgs(1),
		RunE:    runCheck,
	}

	cmd.Flags().String("root", "", "Corpus root for link resolution and config lookup")
	cmd.Flags().String("format", "text", "Output format: text or json")
	cmd.Flags().Bool("probe-links", false, "Check external links with HTTP requests")

	_ = viper.BindPFlag("check.root", cmd.Flags().Lookup("root"))
	_ = viper.BindPFlag("check.format", cmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("check.probe_links", cmd.Flags().Lookup("probe-links"))
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	probe := viper.GetBool("check.probe_links")

	var res schema.DocumentAuditResult
	if args[0] == "-" {
		body, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		root := viper.GetString("check.root")
		if root == "" {
			root = "."
		}
		cfg, err := loadConfig(root)
		if err != nil {
			return err
		}
		opts := []engine.Option{engine.WithLogger(logger)}
		if probe {
			cfg.Checks.ExternalLinks = true
			opts = append(opts, engine.WithLinkProbe(newHTTPProbe(ctx, probeTimeout)))
		}
		src := docsource.NewMemory(map[string]string{stdinID: string(body)})
		res = engine.New(src, cfg, opts...).CheckDocument(ctx, docsource.Ref{ID: stdinID})
	} else {
		root := viper.GetString("check.root")
		if root == "" {
			root = filepath.Dir(args[0])
		}
		c, err := openCorpus(ctx, root, probe)
		if err != nil {
			return err
		}
		ref, err := c.src.Ref(args[0])
		if err != nil {
			return err
		}
		res = c.pipeline.CheckDocument(ctx, ref)
	}

	if viper.GetString("check.format") == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	report.WriteDocument(os.Stdout, res, textOptions())
	return nil
}
