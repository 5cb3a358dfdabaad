package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/yorozuya-cybersecurity/docaudit/internal/config"
	"github.com/yorozuya-cybersecurity/docaudit/internal/logging"
)

var (
	rootCmd *cobra.Command
	logger  = zap.NewNop()
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "docaudit",
		Short: "Markdown content audit engine",
		Long: "docaudit checks a corpus of markdown documents against content-quality rules " +
			"(titles, descriptions, keywords, headings, links, duplication, readability) and scores every document.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupLogger,
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("output", "o", "./reports", "Output directory")
	rootCmd.PersistentFlags().String("config", "", "Config file (default .docaudit.{yaml,toml,json} in the corpus root or $HOME)")
	rootCmd.PersistentFlags().Bool("debug", false, "Verbose logging")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Also list passed checks")
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Environment variable support (DOCAUDIT_OUTPUT, DOCAUDIT_CHECKS_READING_LEVEL, etc.)
	viper.SetEnvPrefix("DOCAUDIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	config.SetDefaults(viper.GetViper())

	// Subcommands
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func Execute() {
	defer func() { _ = logger.Sync() }()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger(*cobra.Command, []string) error {
	l, err := logging.New(viper.GetBool("debug"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = l
	return nil
}

// loadConfig reads the config file and returns the validated configuration.
// Without --config, .docaudit.* is looked up in root and then $HOME; a
// missing file is not an error.
func loadConfig(root string) (config.Config, error) {
	v := viper.GetViper()
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return config.Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName(".docaudit")
		if root != "" {
			v.AddConfigPath(root)
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return config.Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("config loaded", zap.String("file", used))
	}
	return config.Load(v)
}
