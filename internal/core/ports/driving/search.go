package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// SearchService provides multi-field semantic retrieval to external actors.
type SearchService interface {
	// Search embeds the query once and returns chunks ranked by their best
	// field similarity. An empty result is success, never an error.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}
