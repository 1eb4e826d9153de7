package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"wasp/internal/store"
)

var (
	reviewApprove int64
	reviewDeny    int64

	blockedLimit int
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review quarantined messages",
	Long: `Without flags, lists unreviewed quarantined messages. --approve marks
one message reviewed (it is retained for audit); --deny deletes it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.OpenExisting(cfg.DataDir)
		if err != nil {
			return err
		}
		defer s.Close()

		switch {
		case cmd.Flags().Changed("approve"):
			msg, err := s.ReleaseQuarantineByID(reviewApprove)
			if err != nil {
				return err
			}
			emit(msg, func() {
				fmt.Printf("Approved message %d from %s (%s)\n", msg.ID, msg.Identifier, msg.Platform)
			})
		case cmd.Flags().Changed("deny"):
			if err := s.DeleteQuarantineByID(reviewDeny); err != nil {
				return err
			}
			emit(map[string]int64{"deleted": reviewDeny}, func() {
				fmt.Printf("Denied and deleted message %d\n", reviewDeny)
			})
		default:
			messages, err := s.ListUnreviewedQuarantine(blockedLimit)
			if err != nil {
				return err
			}
			emit(map[string]interface{}{"messages": messages}, func() {
				if len(messages) == 0 {
					fmt.Println("No messages awaiting review.")
					return
				}
				for _, m := range messages {
					fmt.Printf("[%d] %s  %s (%s)\n      %s\n",
						m.ID, m.CreatedAt.Format(time.RFC3339),
						m.Identifier, m.Platform, m.Preview)
				}
			})
		}
		return nil
	},
}

var blockedCmd = &cobra.Command{
	Use:   "blocked",
	Short: "List quarantined messages awaiting review",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.OpenExisting(cfg.DataDir)
		if err != nil {
			return err
		}
		defer s.Close()

		messages, err := s.ListUnreviewedQuarantine(blockedLimit)
		if err != nil {
			return err
		}
		emit(map[string]interface{}{"messages": messages}, func() {
			if len(messages) == 0 {
				fmt.Println("No blocked messages.")
				return
			}
			for _, m := range messages {
				fmt.Printf("[%d] %s  %s (%s)\n      %s\n",
					m.ID, m.CreatedAt.Format(time.RFC3339),
					m.Identifier, m.Platform, m.Preview)
			}
		})
		return nil
	},
}

func init() {
	reviewCmd.Flags().Int64Var(&reviewApprove, "approve", 0, "mark message <id> reviewed")
	reviewCmd.Flags().Int64Var(&reviewDeny, "deny", 0, "delete message <id>")
	blockedCmd.Flags().IntVar(&blockedLimit, "limit", 50, "maximum messages to show")
}
