package domain

import "time"

// SearchOptions configures a search query.
type SearchOptions struct {
	// TopK is the maximum number of results (at most MaxTopK).
	// Zero or negative yields an empty result.
	TopK int

	// Threshold is the minimum aggregated similarity, in [0, 1].
	Threshold float64

	// Provider is the preferred embedding provider. Empty uses the fallback order.
	Provider AIProvider

	// Model overrides the provider's default model.
	Model string

	// IncludeHeaderContext also compares header context embeddings.
	IncludeHeaderContext bool

	// IncludeNotes also compares note embeddings.
	IncludeNotes bool

	// IncludeDetails also compares detail embeddings.
	IncludeDetails bool
}

// Fields returns the chunk fields enabled by the options. Content is always on.
func (o SearchOptions) Fields() []ChunkField {
	fields := []ChunkField{FieldContent}
	if o.IncludeHeaderContext {
		fields = append(fields, FieldHeaderContext)
	}
	if o.IncludeNotes {
		fields = append(fields, FieldNotes)
	}
	if o.IncludeDetails {
		fields = append(fields, FieldDetails)
	}
	return fields
}

// FieldMatch records the similarity of one field of a chunk.
type FieldMatch struct {
	Field      ChunkField
	Similarity float64
}

// SearchResult represents a single ranked chunk.
type SearchResult struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the matched chunk's document.
	DocumentID string

	// BestField is the field that produced MaxSimilarity.
	BestField ChunkField

	// MatchedFields lists every compared field, best first.
	MatchedFields []FieldMatch

	// MaxSimilarity is the aggregated score: the maximum over fields.
	MaxSimilarity float64

	// Content is the chunk text.
	Content string

	// Metadata contains the chunk metadata.
	Metadata map[string]any
}

// EmbeddedFieldFilter narrows the rows streamed from the chunk store.
type EmbeddedFieldFilter struct {
	// Fields restricts rows to these chunk fields. Empty means all.
	Fields []ChunkField

	// Model restricts rows to vectors produced by this model. Empty means all.
	Model string
}

// IndexStats summarises an embedding run.
type IndexStats struct {
	Chunks   int
	Embedded int
	Skipped  int
	Failed   int
	Duration time.Duration
}
