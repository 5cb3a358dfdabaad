package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	reportpkg "github.com/yorozuya-cybersecurity/docaudit/internal/report"
	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
	"github.com/yorozuya-cybersecurity/docaudit/pkg/utils"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "report",
		Short:   "Render a report from a scan result directory or the cached scan",
		Example: "docaudit report --from ./reports/vault_20250911_131722 --format html,pdf",
		RunE:    runReport,
	}

	cmd.Flags().String("from", "", "Scan result directory containing results.json (default: last cached scan)")
	cmd.Flags().String("root", ".", "Corpus root used to locate the config when reading the cached scan")
	cmd.Flags().String("format", "html", "Output formats: text,html,pdf,sarif,json")

	_ = viper.BindPFlag("report.from", cmd.Flags().Lookup("from"))
	_ = viper.BindPFlag("report.root", cmd.Flags().Lookup("root"))
	_ = viper.BindPFlag("report.format", cmd.Flags().Lookup("format"))
	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	formats := parseFormats(viper.GetString("report.format"))

	var (
		snap *schema.CorpusSnapshot
		dir  string
		err  error
	)
	if from := viper.GetString("report.from"); from != "" {
		if snap, err = utils.LoadSnapshot(from); err != nil {
			return err
		}
		dir = from
	} else {
		if snap, err = cachedSnapshot(ctx, viper.GetString("report.root")); err != nil {
			return err
		}
		file, err := utils.SaveSnapshot(snap, viper.GetString("output"))
		if err != nil {
			return err
		}
		dir = filepath.Dir(file)
	}

	if contains(formats, "text") {
		reportpkg.WriteSnapshot(os.Stdout, snap, textOptions())
	}
	return writeReports(ctx, snap, dir, formats)
}

func cachedSnapshot(ctx context.Context, root string) (*schema.CorpusSnapshot, error) {
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, err
	}
	mgr, release, err := openCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer release()
	snap, ok := mgr.Get()
	if !ok {
		return nil, errors.New("no cached scan for the current configuration; run `docaudit scan` or pass --from")
	}
	return snap, nil
}

// writeReports renders the file formats into dir. A failed PDF is reported
// and skipped, since it depends on a local Chrome.
func writeReports(ctx context.Context, snap *schema.CorpusSnapshot, dir string, formats []string) error {
	if contains(formats, "html") || contains(formats, "pdf") {
		htmlPath, err := reportpkg.GenerateHTML(snap, dir)
		if err != nil {
			return err
		}
		fmt.Printf("HTML report: %s\n", htmlPath)

		if contains(formats, "pdf") {
			pdfPath, err := reportpkg.GeneratePDF(ctx, htmlPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "PDF generation failed: %v\n", err)
			} else {
				fmt.Printf("PDF report:  %s\n", pdfPath)
			}
		}
	}

	if contains(formats, "sarif") {
		sarifPath, err := reportpkg.ExportSARIF(snap, dir, "results", Version)
		if err != nil {
			return err
		}
		fmt.Printf("SARIF:       %s\n", sarifPath)
	}

	if contains(formats, "json") {
		fmt.Printf("JSON:        %s\n", filepath.Join(dir, utils.ResultsFile))
	}
	return nil
}

func parseFormats(s string) []string {
	formats := strings.Split(s, ",")
	for i := range formats {
		formats[i] = strings.TrimSpace(strings.ToLower(formats[i]))
	}
	return formats
}

func contains(arr []string, v string) bool {
	for _, x := range arr {
		if x == v {
			return true
		}
	}
	return false
}
