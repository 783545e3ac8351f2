package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/proximity-cli/internal/engine"
	"github.com/sells-group/proximity-cli/internal/history"
	"github.com/sells-group/proximity-cli/internal/notify"
	"github.com/sells-group/proximity-cli/internal/source"
)

var simulateTrack string

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a recorded track through the engine",
	Long: `Replay a recorded track file against the configured POI directory.
Alerts are written to the log and to an in-memory history store, then
summarized once the track is exhausted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateTrack == "" {
			return eris.New("cmd: --track is required")
		}

		src, err := source.NewReplay(simulateTrack)
		if err != nil {
			return err
		}
		dir, err := buildDirectory()
		if err != nil {
			return err
		}
		store := history.NewMemory()
		defer store.Close() //nolint:errcheck

		// Replay every recorded point: only the accuracy filter
		// applies, not the live-stream throttles.
		opts := source.Options{AccuracyM: cfg.Source.AccuracyM}
		eng := engine.New(cfg.Geofence, src, dir, store, notify.NewLog(), opts, nil)
		if err := eng.Start(cmd.Context()); err != nil {
			return err
		}
		src.Wait()

		stats := eng.Stats()
		eng.Stop()

		suppressed := stats.SuppressedQuietHours + stats.SuppressedCooldown + stats.SuppressedDedup
		fmt.Printf("replayed %d positions: %d candidates, %d dispatched, %d suppressed\n",
			stats.Evaluations, stats.Candidates, stats.Dispatched, suppressed)
		return nil
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateTrack, "track", "", "path to a YAML track file")
	rootCmd.AddCommand(simulateCmd)
}
