package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nutrihelper/backend/config"
	"github.com/nutrihelper/backend/internal/app"
	"github.com/nutrihelper/backend/internal/logger"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.cfgFile)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}

			log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			defer log.Sync()

			a, err := app.New(cfg, log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides server.port)")
	return cmd
}
