package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"portraits/internal/domain/analysis"
	"portraits/internal/domain/directory"
	v1 "portraits/internal/infrastructure/http/v1"
	"portraits/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only directory and analysis API",
		Long: `Starts the HTTP query API. The directory is loaded on the first request
that needs it. Snapshot endpoints are backed by PostgreSQL when
DATABASE_URL is set and are empty otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("addr") {
				a.cfg.HTTPAddr = addr
			}

			classifier, err := a.classifier()
			if err != nil {
				return err
			}
			analyzer, err := analysis.NewAnalyzer(classifier, nil)
			if err != nil {
				return err
			}

			snapshots, pool, err := a.openSnapshots(ctx)
			if err != nil {
				return err
			}
			routerCfg := v1.RouterConfig{
				Directory: directory.NewOnce(a.cfg.DirectorySources()),
				Analyzer:  analyzer,
				Snapshots: snapshots,
				Logger:    a.log,
			}
			if pool != nil {
				defer pool.Close()
				routerCfg.Database = pool
			}

			server := &http.Server{
				Addr:         a.cfg.HTTPAddr,
				Handler:      v1.NewRouter(routerCfg),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 60 * time.Second,
				IdleTimeout:  60 * time.Second,
				BaseContext: func(net.Listener) context.Context {
					return context.WithoutCancel(ctx)
				},
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info(ctx, "server starting",
					"addr", server.Addr,
					"rules_version", classifier.Version(),
					"snapshots", snapshots.Enabled(),
				)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info(ctx, "shutting down server...")

			// Give outstanding requests 30 seconds to complete
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}

			logger.Info(ctx, "server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (HTTP_ADDR, default :8080)")
	return cmd
}
