package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/farrelathalla/anvil-upgrades/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve recipe lookups over HTTP and WebSocket",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reg, err := loadRegistry(ctx, cfg, logger)
		if err != nil {
			return err
		}

		srv := server.New(reg, logger, server.Options{
			StaticDir:       cfg.Server.StaticDir,
			ShutdownTimeout: cfg.GetShutdownTimeout(),
		})
		return srv.Run(ctx, cfg.Addr())
	},
}
