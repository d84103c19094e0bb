package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/retry"
)

var (
	cacheThreshold float64
	cacheExact     bool
	cacheTTL       time.Duration
	cacheOverwrite bool
	cacheMaxAge    time.Duration
	cacheEvery     time.Duration
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Query and maintain the semantic response cache",
	Long: `The semantic cache stores responses keyed by query. A lookup matches the
literal query first and then any fresh entry whose query embedding is at
least as similar as the cache threshold.`,
}

var cacheLookupCmd = &cobra.Command{
	Use:   "lookup [query]",
	Short: "Find a cached response for a query",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheLookup,
}

var cacheStoreCmd = &cobra.Command{
	Use:   "store [query] [response]",
	Short: "Cache a response for a query",
	Long:  `Caches a response. Pass "-" as the response to read it from stdin.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runCacheStore,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cache entries",
	Long: `Deletes entries older than the maximum age. With --every the purge
repeats on that interval until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runCachePurge,
}

func init() {
	cacheLookupCmd.Flags().Float64VarP(&cacheThreshold, "threshold", "t", 0, "minimum similarity (default from settings)")
	cacheLookupCmd.Flags().BoolVar(&cacheExact, "exact", false, "only match identical query text")

	cacheStoreCmd.Flags().DurationVar(&cacheTTL, "ttl", 0, "entry lifetime (default: cache max age)")
	cacheStoreCmd.Flags().BoolVar(&cacheOverwrite, "overwrite", false, "replace an entry with the same query text")

	cachePurgeCmd.Flags().DurationVar(&cacheMaxAge, "max-age", 0, "age after which entries are deleted (default from settings)")
	cachePurgeCmd.Flags().DurationVar(&cacheEvery, "every", 0, "repeat the purge on this interval")

	cacheCmd.AddCommand(cacheLookupCmd)
	cacheCmd.AddCommand(cacheStoreCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheLookup(cmd *cobra.Command, args []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	lookup := domain.CacheLookupOptions{ExactOnly: cacheExact}
	if cmd.Flags().Changed("threshold") {
		lookup.Threshold = &cacheThreshold
	}

	hit, err := retry.Do(cmd.Context(), retryPolicy(), func(ctx context.Context) (*domain.CacheHit, error) {
		return cacheService.Lookup(ctx, args[0], lookup)
	})
	if err != nil {
		return fmt.Errorf("cache lookup failed: %w", explain(err))
	}

	if hit == nil {
		cmd.Println("Cache miss.")
		return nil
	}

	kind := "semantic"
	if hit.Exact {
		kind = "exact"
	}
	cmd.Printf("Cache hit (%s, similarity %.3f)\n", kind, hit.Similarity)
	cmd.Printf("  Query:   %s\n", hit.Entry.QueryText)
	cmd.Printf("  Created: %s\n", hit.Entry.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	cmd.Println()
	cmd.Println(hit.Entry.ResponseText)
	return nil
}

func runCacheStore(cmd *cobra.Command, args []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	response := args[1]
	if response == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		response = strings.TrimRight(string(data), "\n")
	}

	store := domain.CacheStoreOptions{TTL: cacheTTL, Overwrite: cacheOverwrite}
	stored, err := retry.Do(cmd.Context(), retryPolicy(), func(ctx context.Context) (bool, error) {
		return cacheService.Store(ctx, args[0], response, store)
	})
	if err != nil {
		return fmt.Errorf("cache store failed: %w", explain(err))
	}

	if !stored {
		cmd.Println("An entry for this query already exists. Use --overwrite to replace it.")
		return nil
	}
	cmd.Println("Response cached.")
	return nil
}

func runCachePurge(cmd *cobra.Command, _ []string) error {
	svc := cacheService
	if svc == nil {
		return errors.New("cache service not configured")
	}

	ctx := cmd.Context()
	if err := purgeOnce(ctx, cmd, svc); err != nil {
		return err
	}
	if cacheEvery <= 0 {
		return nil
	}

	ticker := time.NewTicker(cacheEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := purgeOnce(ctx, cmd, svc); err != nil {
				// A failed run is retried on the next tick.
				logger.Error("cache purge: %v", err)
			}
		}
	}
}

func purgeOnce(ctx context.Context, cmd *cobra.Command, svc driving.CacheService) error {
	n, err := svc.Purge(ctx, cacheMaxAge)
	if err != nil {
		return fmt.Errorf("cache purge failed: %w", err)
	}
	cmd.Printf("Purged %d expired cache entries.\n", n)
	return nil
}
