package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"wasp/internal/store"
	"wasp/internal/trust"
	"wasp/internal/types"
)

var (
	addPlatform string
	addTrust    string
	addName     string
	addNotes    string

	removePlatform string

	listPlatform string
	listTrust    string

	checkPlatform string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the data directory and database",
	Long: `Creates the data directory, the embedded database with its schema,
and a commented default config file. Repeating init on an initialized
store is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(cfg.DataDir)
		if err != nil {
			return err
		}
		defer s.Close()

		path, err := writeDefaultConfig()
		if err != nil {
			return err
		}

		result := map[string]string{
			"data_dir": cfg.DataDir,
			"database": s.Path(),
			"config":   path,
		}
		emit(result, func() {
			fmt.Printf("Initialized %s\n", cfg.DataDir)
			fmt.Printf("  database: %s\n", s.Path())
			fmt.Printf("  config:   %s\n", path)
		})
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <identifier>",
	Short: "Add or update a whitelisted contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		platform, err := parsePlatformFlag(addPlatform)
		if err != nil {
			return err
		}
		level, err := types.ParseTrust(addTrust)
		if err != nil {
			return err
		}

		s, err := store.Open(cfg.DataDir)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := trust.NewRegistry(s).Upsert(args[0], platform, level, addName, addNotes); err != nil {
			return err
		}
		emit(map[string]string{
			"identifier": args[0],
			"platform":   string(platform),
			"trust":      string(level),
		}, func() {
			fmt.Printf("Added %s (%s) with trust %s\n", args[0], platform, level)
		})
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <identifier>",
	Short: "Remove a contact from the whitelist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		platform, err := parsePlatformFlag(removePlatform)
		if err != nil {
			return err
		}

		s, err := store.Open(cfg.DataDir)
		if err != nil {
			return err
		}
		defer s.Close()

		deleted, err := trust.NewRegistry(s).Remove(args[0], platform)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("%w: contact %s (%s)", types.ErrNotFound, args[0], platform)
		}
		emit(map[string]bool{"deleted": true}, func() {
			fmt.Printf("Removed %s (%s)\n", args[0], platform)
		})
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List whitelisted contacts, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		var platform types.Platform
		var level types.TrustLevel
		var err error
		if listPlatform != "" {
			platform, err = types.ParsePlatform(listPlatform)
			if err != nil {
				return err
			}
		}
		if listTrust != "" {
			level, err = types.ParseTrust(listTrust)
			if err != nil {
				return err
			}
		}

		s, err := store.Open(cfg.DataDir)
		if err != nil {
			return err
		}
		defer s.Close()

		contacts, err := trust.NewRegistry(s).List(platform, level)
		if err != nil {
			return err
		}
		if contacts == nil {
			contacts = []types.Contact{}
		}
		emit(map[string]interface{}{"contacts": contacts}, func() {
			if len(contacts) == 0 {
				fmt.Println("No contacts in whitelist.")
				return
			}
			for _, c := range contacts {
				name := c.Name
				if name == "" {
					name = "-"
				}
				fmt.Printf("%-24s %-10s %-10s %-20s %s\n",
					c.Identifier, c.Platform, c.Trust, name,
					c.CreatedAt.Format(time.RFC3339))
			}
		})
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <identifier>",
	Short: "Check whether a sender may reach the agent",
	Long: `Runs the whitelist decision for a sender. Exits 0 when the sender is
allowed and 1 when denied, so shell pipelines can gate on it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		platform, err := parsePlatformFlag(checkPlatform)
		if err != nil {
			return err
		}

		s, err := store.Open(cfg.DataDir)
		if err != nil {
			return err
		}
		defer s.Close()

		res, err := trust.NewRegistry(s).Check(args[0], platform)
		if err != nil {
			return err
		}
		emit(res, func() {
			if res.Allowed {
				fmt.Printf("ALLOWED (%s): %s\n", res.Trust, res.Reason)
			} else {
				fmt.Printf("DENIED: %s\n", res.Reason)
			}
		})
		// Exit non-zero for denied senders, but only after deferred
		// closes and the root command's teardown have run.
		if !res.Allowed {
			exitCode = 1
		}
		return nil
	},
}

func parsePlatformFlag(raw string) (types.Platform, error) {
	if raw == "" {
		return types.DefaultPlatform, nil
	}
	return types.ParsePlatform(raw)
}

func init() {
	addCmd.Flags().StringVar(&addPlatform, "platform", string(types.DefaultPlatform), "contact platform")
	addCmd.Flags().StringVar(&addTrust, "trust", string(types.TrustTrusted), "trust level (sovereign, trusted, limited)")
	addCmd.Flags().StringVar(&addName, "name", "", "display name")
	addCmd.Flags().StringVar(&addNotes, "notes", "", "free-text notes")

	removeCmd.Flags().StringVar(&removePlatform, "platform", string(types.DefaultPlatform), "contact platform")

	listCmd.Flags().StringVar(&listPlatform, "platform", "", "filter by platform")
	listCmd.Flags().StringVar(&listTrust, "trust", "", "filter by trust level")

	checkCmd.Flags().StringVar(&checkPlatform, "platform", string(types.DefaultPlatform), "contact platform")
}
