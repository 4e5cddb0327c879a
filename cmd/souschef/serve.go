package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"souschef/internal/server"
)

func newServeCommand(cli *CLI) *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the souschef HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := cli.initialize(ctx); err != nil {
				return err
			}
			defer cli.shutdown(context.Background())

			cfg := cli.config.Get()
			serverConfig := server.DefaultConfig()
			serverConfig.Host = cfg.Server.Host
			serverConfig.Port = cfg.Server.Port
			serverConfig.EnableCORS = cfg.Server.EnableCORS
			if host != "" {
				serverConfig.Host = host
			}
			if port != 0 {
				serverConfig.Port = port
			}

			srv := server.New(server.Deps{
				Dispatcher:     cli.container.Dispatcher,
				Registry:       cli.container.Registry,
				DeliveryClient: cli.container.DeliveryClient,
				MaxIterations:  cfg.MaxIterations,
				Recipient:      cfg.Recipient,
				Logger:         cli.container.Logger,
				Observer:       cli.observer,
			}, serverConfig)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			fmt.Println(successText(fmt.Sprintf("souschef server on http://%s:%d",
				serverConfig.Host, serverConfig.Port)))

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				return err
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Bind address (overrides config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port (overrides config)")

	return cmd
}
