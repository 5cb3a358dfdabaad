package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the cached corpus snapshot",
	}
	cmd.PersistentFlags().String("root", ".", "Corpus root used to locate the config")
	_ = viper.BindPFlag("cache_cmd.root", cmd.PersistentFlags().Lookup("root"))

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the cached snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(viper.GetString("cache_cmd.root"))
			if err != nil {
				return err
			}
			mgr, release, err := openCache(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer release()
			if err := mgr.Invalidate(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Cache cleared.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Summarise the cached snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := cachedSnapshot(cmd.Context(), viper.GetString("cache_cmd.root"))
			if err != nil {
				return err
			}
			fmt.Printf("Snapshot %s of %s\n", snap.ID, snap.Root)
			fmt.Printf("  taken    %s\n", snap.Timestamp.Local().Format("2006-01-02 15:04:05"))
			fmt.Printf("  results  %d of %d documents\n", len(snap.Results), snap.Total)
			fmt.Printf("  partial  %t\n", snap.Partial)
			return nil
		},
	})
	return cmd
}
