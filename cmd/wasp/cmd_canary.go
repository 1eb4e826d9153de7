package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"wasp/internal/store"
)

var (
	canaryStats bool
	canaryClear bool
	canaryDays  int
	canaryLimit int
)

var canaryCmd = &cobra.Command{
	Use:   "canary",
	Short: "Inspect injection telemetry",
	Long: `Without flags, lists recent telemetry rows. --stats aggregates the
table; --clear drops all rows; --days N purges rows older than N days.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.OpenExisting(cfg.DataDir)
		if err != nil {
			return err
		}
		defer s.Close()

		switch {
		case canaryStats:
			stats, err := s.GetCanaryStats()
			if err != nil {
				return err
			}
			emit(stats, func() {
				fmt.Printf("Telemetry rows: %d\n", stats.Count)
				fmt.Printf("Mean score:     %.2f\n", stats.MeanScore)
				for _, hit := range stats.TopPatterns {
					fmt.Printf("  %-22s %d\n", hit.Pattern, hit.Count)
				}
			})
		case canaryClear:
			cleared, err := s.ClearCanary()
			if err != nil {
				return err
			}
			emit(map[string]int64{"cleared": cleared}, func() {
				fmt.Printf("Cleared %d telemetry rows\n", cleared)
			})
		case cmd.Flags().Changed("days"):
			purged, err := s.PurgeCanaryOlderThan(canaryDays)
			if err != nil {
				return err
			}
			emit(map[string]int64{"purged": purged}, func() {
				fmt.Printf("Purged %d telemetry rows older than %d days\n", purged, canaryDays)
			})
		default:
			events, err := s.ListCanaryEvents(canaryLimit)
			if err != nil {
				return err
			}
			emit(map[string]interface{}{"events": events}, func() {
				if len(events) == 0 {
					fmt.Println("No telemetry rows.")
					return
				}
				for _, ev := range events {
					fmt.Printf("%s  %.2f  %s (%s)  patterns=%v verbs=%v\n      %s\n",
						ev.CreatedAt.Format(time.RFC3339), ev.Score,
						ev.Identifier, ev.Platform, ev.Patterns, ev.Verbs, ev.Preview)
				}
			})
		}
		return nil
	},
}

func init() {
	canaryCmd.Flags().BoolVar(&canaryStats, "stats", false, "aggregate telemetry")
	canaryCmd.Flags().BoolVar(&canaryClear, "clear", false, "drop all telemetry rows")
	canaryCmd.Flags().IntVar(&canaryDays, "days", 0, "purge rows older than N days")
	canaryCmd.Flags().IntVar(&canaryLimit, "limit", 50, "maximum rows to show")
}
