package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kbukum/imgkit/component"
	"github.com/kbukum/imgkit/server"
)

func newServeCommand(get func() *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the commands over the loopback HTTP bridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			cfg := a.cfg.Server
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			srv := server.New(cfg, a.log)
			registry := component.NewRegistry(a.log)
			srv.RegisterRoutes(a.cfg.Name, server.NewBridge(a.svc, a.fetcher), registry.HealthAll)
			if err := registry.Register(server.NewComponent(srv)); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := registry.StartAll(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			a.log.Info("shutdown signal received")
			return registry.StopAll(context.WithoutCancel(ctx))
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default: configured)")
	return cmd
}
