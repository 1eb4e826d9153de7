package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wasp/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show data directory and per-table row counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.OpenExisting(cfg.DataDir)
		if err != nil {
			return err
		}
		defer s.Close()

		stats, err := s.Stats()
		if err != nil {
			return err
		}
		emit(map[string]interface{}{
			"data_dir": cfg.DataDir,
			"database": s.Path(),
			"tables":   stats,
		}, func() {
			fmt.Printf("Data dir: %s\n", cfg.DataDir)
			fmt.Printf("Database: %s\n", s.Path())
			for _, table := range []string{"contacts", "audit_log", "quarantine", "canary_events"} {
				fmt.Printf("  %-14s %d\n", table, stats[table])
			}
		})
		return nil
	},
}
