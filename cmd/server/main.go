// Package main provides the tradelens dashboard API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tradelens/internal/config"
	"tradelens/internal/logging"
	"tradelens/internal/server"
	"tradelens/internal/store/sqlite"
)

var (
	// Version is set by build flags
	Version = "dev"
)

func main() {
	if err := getRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func getRootCmd() *cobra.Command {
	var cfgFile string
	var addr string

	rootCmd := &cobra.Command{
		Use:   "server",
		Short: "Serves the trade dashboard API",
		Long: `server exposes the collected trade statistics over HTTP:

  GET /api/trade-data   the full nested document, rebuilt when the store changes
  GET /api/health       liveness plus the store version

Configuration follows the collector: TRADELENS_* environment variables,
an optional tradelens.yaml, and built-in defaults.`,
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logging.Init(settings.LogLevel, settings.LogFormat)
			if addr != "" {
				settings.ServerAddr = addr
			}

			st, err := sqlite.New(settings.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			httpServer := &http.Server{
				Addr:         settings.ServerAddr,
				Handler:      server.New(st).Handler(),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 30 * time.Second,
			}

			ctx, stop := signal.NotifyContext(context.Background(),
				syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				slog.Info("server: listening", "addr", settings.ServerAddr)
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./tradelens.yaml)")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return rootCmd
}
