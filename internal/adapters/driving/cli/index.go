package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/retry"
)

var (
	indexProvider string
	indexLimit    int
)

var indexCmd = &cobra.Command{
	Use:   "index [chunk-id]",
	Short: "Compute missing field embeddings",
	Long: `Embeds chunk fields that have no embedding for the resolved model.

With a chunk ID only that chunk is embedded. Without one, every chunk with a
missing field embedding is processed, up to --limit chunks.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&indexProvider, "provider", "p", "", "embedding provider (default from settings)")
	indexCmd.Flags().IntVarP(&indexLimit, "limit", "n", 0, "maximum chunks to process (0 = all)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	provider := domain.AIProvider(indexProvider)
	if provider == "" {
		provider = retrievalDefaults().Provider
	}

	if len(args) == 1 {
		chunkID := args[0]
		n, err := retry.Do(cmd.Context(), retryPolicy(), func(ctx context.Context) (int, error) {
			return indexService.EmbedChunk(ctx, chunkID, provider)
		})
		if err != nil {
			return fmt.Errorf("failed to embed chunk: %w", explain(err))
		}
		cmd.Printf("Embedded %d fields of chunk %s.\n", n, chunkID)
		return nil
	}

	stats, err := indexService.EmbedPending(cmd.Context(), provider, indexLimit)
	if err != nil {
		return fmt.Errorf("failed to embed pending chunks: %w", explain(err))
	}

	cmd.Println("Indexing complete")
	cmd.Printf("  Chunks:   %d\n", stats.Chunks)
	cmd.Printf("  Embedded: %d\n", stats.Embedded)
	cmd.Printf("  Skipped:  %d\n", stats.Skipped)
	cmd.Printf("  Failed:   %d\n", stats.Failed)
	cmd.Printf("  Duration: %v\n", stats.Duration.Round(time.Millisecond))
	if stats.Failed > 0 {
		return fmt.Errorf("%d chunks failed to embed", stats.Failed)
	}
	return nil
}
