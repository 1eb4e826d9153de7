package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"wasp/internal/store"
	"wasp/internal/types"
)

var (
	logLimit     int
	logDecision  string
	logPurgeDays int
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the audit log, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.OpenExisting(cfg.DataDir)
		if err != nil {
			return err
		}
		defer s.Close()

		if cmd.Flags().Changed("purge-days") {
			purged, err := s.PurgeAuditOlderThan(logPurgeDays)
			if err != nil {
				return err
			}
			emit(map[string]int64{"purged": purged}, func() {
				fmt.Printf("Purged %d audit entries older than %d days\n", purged, logPurgeDays)
			})
			return nil
		}

		var decision types.Decision
		if logDecision != "" {
			decision = types.Decision(logDecision)
			if !decision.Valid() {
				return fmt.Errorf("%w: unknown decision %q", types.ErrInvalidInput, logDecision)
			}
		}

		entries, err := s.QueryAudit(store.AuditFilter{Limit: logLimit, Decision: decision})
		if err != nil {
			return err
		}
		emit(map[string]interface{}{"entries": entries}, func() {
			if len(entries) == 0 {
				fmt.Println("No audit entries.")
				return
			}
			for _, e := range entries {
				fmt.Printf("%s  %-8s %-24s %-10s %s\n",
					e.Timestamp.Format(time.RFC3339), e.Decision,
					e.Identifier, e.Platform, e.Reason)
			}
		})
		return nil
	},
}

func init() {
	logCmd.Flags().IntVar(&logLimit, "limit", 50, "maximum entries to show")
	logCmd.Flags().StringVar(&logDecision, "decision", "", "filter by decision (allow, deny, limited)")
	logCmd.Flags().IntVar(&logPurgeDays, "purge-days", 0, "purge entries older than N days instead of listing")
}
