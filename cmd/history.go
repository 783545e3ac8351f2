package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently dispatched alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		alerts, err := store.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}

		if len(alerts) == 0 {
			fmt.Println("no dispatched alerts")
			return nil
		}
		for _, a := range alerts {
			fmt.Printf("%s  %-8s  %-24s  %6.0fm\n",
				a.Timestamp.Local().Format(time.RFC3339), a.Tier, a.POIName, a.DistanceM)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "maximum alerts to list")
	rootCmd.AddCommand(historyCmd)
}
