package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/geoform/cmd/geoformapi/cmd/cmdutil"
	"github.com/terraconstructs/geoform/internal/apierror"
	"github.com/terraconstructs/geoform/internal/logging"
	"github.com/terraconstructs/geoform/internal/middleware"
	"github.com/terraconstructs/geoform/internal/server"
	"github.com/terraconstructs/geoform/internal/telemetry"
)

const shutdownGrace = 10 * time.Second

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Geoform API server",
	Long:  `Starts the HTTP server with the authentication and account endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := cmdutil.RuntimeFrom(cmd.Context())
		if err != nil {
			return err
		}
		cfg, logger := rt.Config, rt.Logger

		bundle, err := cmdutil.NewAccountBundle(cfg, logging.Component(logger, "db"))
		if err != nil {
			return err
		}
		defer bundle.Close()

		if migrateOnStart || cfg.Database.MigrateOnStart {
			if err := applyMigrations(cmd.Context(), bundle.DB, logging.Component(logger, "migrations")); err != nil {
				return err
			}
		}

		responder := apierror.NewResponder(logging.Component(logger, "http"))

		authMetrics, err := telemetry.NewAuthMetrics()
		if err != nil {
			return fmt.Errorf("create auth metrics: %w", err)
		}
		authn, err := middleware.NewAuthnMiddleware(middleware.AuthnDependencies{
			Tokens:    bundle.Tokens,
			Accounts:  bundle.Lookup,
			Responder: responder,
			Logger:    logging.Component(logger, "authn"),
			Metrics:   authMetrics,
		})
		if err != nil {
			return fmt.Errorf("configure authentication middleware: %w", err)
		}

		serverMetrics, err := telemetry.NewServerMetrics()
		if err != nil {
			return fmt.Errorf("create server metrics: %w", err)
		}

		// HTTP/2 cleartext alongside HTTP/1.1
		handler, err := server.NewH2CHandler(server.RouterOptions{
			Accounts:  bundle.Service,
			Authn:     authn,
			Responder: responder,
			Logger:    logging.Component(logger, "http"),
			Server:    cfg.Server,
			Metrics:   serverMetrics,
		})
		if err != nil {
			return fmt.Errorf("build router: %w", err)
		}

		srv := &http.Server{
			Addr:         cfg.Server.Addr(),
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: cfg.Server.Timeout + 5*time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Start server in goroutine
		serverErrors := make(chan error, 1)
		go func() {
			logger.WithField("addr", srv.Addr).Info("starting server")
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.WithField("signal", sig.String()).Info("shutting down gracefully")

			ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				_ = srv.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}

			logger.Info("server stopped")
			return nil
		}
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "Apply pending database migrations before serving")
	rootCmd.AddCommand(serveCmd)
}
