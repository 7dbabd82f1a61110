package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ryanm101/romscraper/internal/logging"
	"github.com/ryanm101/romscraper/internal/romstore"
	"github.com/ryanm101/romscraper/internal/server"
)

func newServeCommand(cc *commandContext) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored results and Prometheus metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := cc.ensureConfig()
			if err != nil {
				return err
			}
			resolver, err := cc.ensurePlatforms()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			store, err := romstore.Open(ctx, cfg.GetDBPath())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			srv := server.New(store, resolver, logging.Get()).HTTPServer(addr)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			PrintInfo("Listening on %s\n", addr)

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr)")
	return cmd
}
