package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var pruneOlderThan time.Duration

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Evict alert history older than the lookback window",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		window := pruneOlderThan
		if window <= 0 {
			window = cfg.Geofence.Lookback()
		}
		cutoff := time.Now().Add(-window)

		removed, err := store.Prune(cmd.Context(), cutoff)
		if err != nil {
			return err
		}
		fmt.Printf("pruned %d alerts older than %s\n", removed, cutoff.Local().Format(time.RFC3339))
		return nil
	},
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "override the configured lookback window")
	rootCmd.AddCommand(pruneCmd)
}
