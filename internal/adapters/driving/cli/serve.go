package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

var (
	serveAddr          string
	serveOrigins       []string
	serveNoMaintenance bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve search and the semantic cache as a JSON API.

Routes:
  POST   /api/v1/search
  POST   /api/v1/cache/lookup
  POST   /api/v1/cache
  DELETE /api/v1/cache/expired
  GET    /healthz

Settings are re-read on every request, so edits to config.toml apply
without a restart.

While serving, expired cache entries are purged and chunks with missing
embeddings are indexed in the background. Intervals are configured under
[scheduler] in config.toml; --no-maintenance turns this off.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "127.0.0.1:8080", "listen address")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "cors-origin", nil, "allowed CORS origins (default: localhost)")
	serveCmd.Flags().BoolVar(&serveNoMaintenance, "no-maintenance", false, "disable background cache purge and indexing")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	logger.SetTimestamps(true)
	defer logger.SetTimestamps(false)

	server, err := httpapi.NewServer(&httpapi.Ports{
		Search:   searchService,
		Cache:    cacheService,
		Settings: settingsService,
		Health:   healthCheck,
	}, httpapi.RouterOptions{AllowedOrigins: serveOrigins})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if watchConfig != nil {
		go func() {
			err := watchConfig(ctx, func() {
				logger.Info("Configuration reloaded")
			})
			if err != nil {
				logger.Error("config watch stopped: %v", err)
			}
		}()
	}

	if sched := scheduler; sched != nil && !serveNoMaintenance {
		go func() {
			if err := sched.Start(ctx); err != nil {
				logger.Error("scheduler stopped: %v", err)
			}
		}()
		defer func() {
			if err := sched.Stop(); err != nil {
				logger.Warn("stopping scheduler: %v", err)
			}
		}()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "HTTP API listening on http://%s\n", serveAddr)
	return server.Run(ctx, serveAddr)
}
