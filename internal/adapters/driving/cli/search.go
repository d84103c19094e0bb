package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/retry"
)

var (
	searchTopK      int
	searchThreshold float64
	searchProvider  string
	searchModel     string
	searchHeader    bool
	searchNotes     bool
	searchDetails   bool
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed chunks",
	Long: `Embeds the query once and ranks chunks of completed documents by the
best cosine similarity across their enabled fields. Content is always
compared; heading paths, notes and details can be switched on or off.

Defaults for every flag come from the retrieval settings.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "maximum number of results (default from settings)")
	searchCmd.Flags().Float64VarP(&searchThreshold, "threshold", "t", 0, "minimum similarity in [0, 1] (default from settings)")
	searchCmd.Flags().StringVarP(&searchProvider, "provider", "p", "", "preferred embedding provider")
	searchCmd.Flags().StringVarP(&searchModel, "model", "m", "", "embedding model override")
	searchCmd.Flags().BoolVar(&searchHeader, "header", false, "also match heading paths")
	searchCmd.Flags().BoolVar(&searchNotes, "notes", false, "also match notes")
	searchCmd.Flags().BoolVar(&searchDetails, "details", false, "also match details")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	opts := retrievalDefaults().SearchOptions()
	flags := cmd.Flags()
	if flags.Changed("top-k") {
		opts.TopK = searchTopK
	}
	if flags.Changed("threshold") {
		opts.Threshold = searchThreshold
	}
	if flags.Changed("provider") {
		opts.Provider = domain.AIProvider(searchProvider)
	}
	opts.Model = searchModel
	if flags.Changed("header") {
		opts.IncludeHeaderContext = searchHeader
	}
	if flags.Changed("notes") {
		opts.IncludeNotes = searchNotes
	}
	if flags.Changed("details") {
		opts.IncludeDetails = searchDetails
	}

	results, err := retry.Do(cmd.Context(), retryPolicy(), func(ctx context.Context) ([]domain.SearchResult, error) {
		return searchService.Search(ctx, query, opts)
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", explain(err))
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

type searchResultJSON struct {
	ChunkID    string             `json:"chunk_id"`
	DocumentID string             `json:"document_id"`
	Similarity float64            `json:"similarity"`
	BestField  string             `json:"best_field"`
	Fields     map[string]float64 `json:"fields"`
	Content    string             `json:"content"`
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	out := make([]searchResultJSON, 0, len(results))
	for i := range results {
		fields := make(map[string]float64, len(results[i].MatchedFields))
		for _, m := range results[i].MatchedFields {
			fields[m.Field.String()] = m.Similarity
		}
		out = append(out, searchResultJSON{
			ChunkID:    results[i].ChunkID,
			DocumentID: results[i].DocumentID,
			Similarity: results[i].MaxSimilarity,
			BestField:  results[i].BestField.String(),
			Fields:     fields,
			Content:    results[i].Content,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		// Format: [N] chunk (score via field)
		cmd.Printf("  [%d] %s (%.3f via %s)\n", i+1, results[i].ChunkID, results[i].MaxSimilarity, results[i].BestField)
		cmd.Printf("      Document: %s\n", results[i].DocumentID)
		if snippet := snippet(results[i].Content, 160); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}

	return nil
}

// snippet collapses whitespace and truncates to at most n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
