package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Build metadata, set with -ldflags "-X github.com/yorozuya-cybersecurity/docaudit/pkg/cli.Version=...".
var (
	Version   = "0.1.0"
	GitCommit = ""
	BuildDate = ""
)

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

func newVersionCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeVersion(cmd.OutOrStdout(), format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text|json)")
	return cmd
}

func writeVersion(w io.Writer, format string) error {
	p := versionPayload{Tool: "docaudit", Version: Version, GitCommit: GitCommit, BuildDate: BuildDate}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	case "text", "":
		fmt.Fprintf(w, "%s %s\n", p.Tool, p.Version)
		if p.GitCommit != "" {
			fmt.Fprintf(w, "commit: %s\n", p.GitCommit)
		}
		if p.BuildDate != "" {
			fmt.Fprintf(w, "built:  %s\n", p.BuildDate)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
