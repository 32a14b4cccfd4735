package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reegis/coastdat-cli/internal/serve"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve aggregated result files over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		return serve.New(cfg.Paths.ResultDir).ListenAndServe(ctx, port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
