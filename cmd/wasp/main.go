// Command wasp is the whitelist agent security proxy: a policy-decision
// and policy-enforcement gateway guarding an agent runtime from
// untrusted inbound messages and unsafe tool calls.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"wasp/internal/config"
	"wasp/internal/logging"
)

var (
	// Global flags
	jsonOut bool
	dataDir string
	verbose bool

	// Loaded once in PersistentPreRunE.
	cfg *config.Config

	// Logger for the command surfaces.
	logger *zap.Logger

	// exitCode is the process exit status for commands that succeed but
	// signal their outcome through it (check on a denied sender).
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "wasp",
	Short: "WASP - whitelist agent security proxy",
	Long: `WASP guards an agentic assistant from untrusted senders and unsafe
tool calls. It keeps a persistent contact whitelist, binds each inbound
message to a per-session trust label, gates tool calls against that
label, scores messages for prompt-injection tells, and records every
decision in an append-only audit log.

State lives in a single data directory (default ~/.wasp) holding one
embedded database file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(dataDir)
		if err != nil {
			return err
		}
		return logging.Initialize(cfg.DataDir, cfg.Logging.Debug, cfg.Logging.Level)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "emit a single JSON document instead of human text")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.wasp)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(blockedCmd)
	rootCmd.AddCommand(canaryCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		failOut(err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}
