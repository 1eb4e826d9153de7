package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"wasp/internal/gateway"
	"wasp/internal/server"
	"wasp/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin HTTP façade",
	Long: `Serves the administrative HTTP endpoints on the configured address
(localhost by default). Requires an initialized store; exits non-zero
otherwise. Protect endpoints by setting WASP_API_TOKEN; without a token
only loopback clients are accepted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.OpenExisting(cfg.DataDir)
		if err != nil {
			return err
		}
		defer s.Close()

		gw, err := gateway.New(cfg, s, logger)
		if err != nil {
			return err
		}
		srv := server.New(cfg, gw, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if !jsonOut {
			fmt.Printf("Serving on %s (data dir %s)\n", cfg.Server.Addr, cfg.DataDir)
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.Run(ctx)
		})
		return g.Wait()
	},
}
