package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/skillbridge-backend/internal/app"
)

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			override := func(cfg *app.Config) {
				if port != "" {
					cfg.Port = port
				}
			}
			return withApp(ctx, override, func(a *app.App) error {
				a.Start()
				errCh := make(chan error, 1)
				go func() { errCh <- a.Run(":" + a.Cfg.Port) }()

				select {
				case err := <-errCh:
					return err
				case <-ctx.Done():
				}
				a.Log.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				if err := a.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				return <-errCh
			})
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}
