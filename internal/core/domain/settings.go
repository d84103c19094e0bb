package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
// The set is closed: every provider has exactly one adapter.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOpenAI is OpenAI cloud API (or a compatible endpoint).
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderVoyage is Voyage AI cloud API.
	AIProviderVoyage AIProvider = "voyage"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderMock derives deterministic vectors without any network access.
	// It is only selectable in development mode.
	AIProviderMock AIProvider = "mock"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderVoyage, AIProviderGemini, AIProviderOllama, AIProviderMock:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderVoyage || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderMock
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderVoyage:
		return "Voyage AI (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderMock:
		return "Mock (deterministic, development only)"
	default:
		return unknownDescription
	}
}

// ProviderPriority returns the fixed fallback order used by provider selection.
// The mock provider is deliberately absent.
func ProviderPriority() []AIProvider {
	return []AIProvider{
		AIProviderOpenAI,
		AIProviderVoyage,
		AIProviderGemini,
		AIProviderOllama,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderVoyage: "voyage-3-lite",
		AIProviderGemini: "text-embedding-004",
		AIProviderOllama: "nomic-embed-text",
		AIProviderMock:   "mock-embed-768",
	}
}

// ProviderModels returns the models each provider recognises.
func ProviderModels() map[AIProvider][]string {
	return map[AIProvider][]string{
		AIProviderOpenAI: {"text-embedding-3-small", "text-embedding-3-large", "text-embedding-ada-002"},
		AIProviderVoyage: {"voyage-3", "voyage-3-lite", "voyage-3-large", "voyage-code-3"},
		AIProviderGemini: {"text-embedding-004", "gemini-embedding-001"},
		AIProviderOllama: {"nomic-embed-text", "mxbai-embed-large", "all-minilm", "snowflake-arctic-embed"},
		AIProviderMock:   {"mock-embed-768", "mock-embed-1536", "mock-embed-384"},
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Voyage models
		"voyage-3":       1024,
		"voyage-3-lite":  512,
		"voyage-3-large": 1024,
		"voyage-code-3":  1024,
		// Gemini models
		"text-embedding-004":   768,
		"gemini-embedding-001": 3072,
		// Ollama models
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"snowflake-arctic-embed": 1024,
		// Mock models
		"mock-embed-768":  768,
		"mock-embed-1536": 1536,
		"mock-embed-384":  384,
	}
}

// Environment distinguishes production from development deployments.
type Environment string

// Available environments.
const (
	EnvironmentProduction  Environment = "production"
	EnvironmentDevelopment Environment = "development"
)

// IsValid returns true if the environment is recognised.
func (e Environment) IsValid() bool {
	return e == EnvironmentProduction || e == EnvironmentDevelopment
}

// AllowsMock returns true if the mock provider may be selected.
func (e Environment) AllowsMock() bool {
	return e == EnvironmentDevelopment
}

// SimilarityBackend names a cosine similarity implementation.
type SimilarityBackend string

// Available similarity backends.
const (
	// SimilarityAuto uses the native backend when the build has it.
	SimilarityAuto SimilarityBackend = "auto"

	// SimilarityPortable is the pure Go scalar loop. This is the default.
	SimilarityPortable SimilarityBackend = "portable"

	// SimilarityNative is the cgo-accelerated loop.
	SimilarityNative SimilarityBackend = "native"
)

// IsValid returns true if the backend is recognised.
func (b SimilarityBackend) IsValid() bool {
	switch b {
	case SimilarityAuto, SimilarityPortable, SimilarityNative:
		return true
	default:
		return false
	}
}

// Search limits shared by every driving adapter.
const (
	// MaxTopK is the largest result count a search may request.
	MaxTopK = 50

	// DefaultTopK is used when settings carry no value.
	DefaultTopK = 5

	// DefaultSimilarityThreshold is the default search threshold.
	DefaultSimilarityThreshold = 0.5

	// DefaultCacheThreshold is stricter than the search threshold.
	DefaultCacheThreshold = 0.95

	// DefaultCacheMaxAge is how long cache entries stay fresh.
	DefaultCacheMaxAge = 24 * time.Hour

	// DefaultEmbeddingTimeout bounds a single provider call.
	DefaultEmbeddingTimeout = 30 * time.Second
)

// RetrievalSettings holds search behaviour configuration.
type RetrievalSettings struct {
	// TopK is the default number of results.
	TopK int

	// Threshold is the default minimum similarity.
	Threshold float64

	// Provider is the preferred embedding provider.
	Provider AIProvider

	// IncludeHeaderContext searches header context embeddings.
	IncludeHeaderContext bool

	// IncludeNotes searches note embeddings.
	IncludeNotes bool

	// IncludeDetails searches detail embeddings.
	IncludeDetails bool

	// EmbeddingTimeout bounds the query embedding call.
	EmbeddingTimeout time.Duration
}

// CacheSettings holds semantic cache configuration.
type CacheSettings struct {
	// Enabled turns the cache on for search front ends.
	Enabled bool

	// Threshold is the minimum similarity for a cache hit.
	Threshold float64

	// MaxAge is the age after which entries expire.
	MaxAge time.Duration
}

// RetrySettings holds the caller-level retry policy.
type RetrySettings struct {
	// MaxAttempts is the total number of tries; 1 disables retries.
	MaxAttempts int

	// InitialInterval is the first backoff delay.
	InitialInterval time.Duration

	// MaxInterval caps a single backoff delay.
	MaxInterval time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Environment controls whether development-only behaviour is allowed.
	Environment Environment

	// Retrieval holds search settings.
	Retrieval RetrievalSettings

	// Cache holds semantic cache settings.
	Cache CacheSettings

	// Retry holds the caller-level retry policy.
	Retry RetrySettings

	// Similarity selects the cosine backend.
	Similarity SimilarityBackend
}

// DefaultAppSettings returns settings with sensible defaults.
// No provider is configured by default; production mode never falls back to mock.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Environment: EnvironmentProduction,
		Retrieval: RetrievalSettings{
			TopK:             DefaultTopK,
			Threshold:        DefaultSimilarityThreshold,
			IncludeNotes:     true,
			IncludeDetails:   true,
			EmbeddingTimeout: DefaultEmbeddingTimeout,
		},
		Cache: CacheSettings{
			Enabled:   true,
			Threshold: DefaultCacheThreshold,
			MaxAge:    DefaultCacheMaxAge,
		},
		Retry: RetrySettings{
			MaxAttempts:     1,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		Similarity: SimilarityPortable,
	}
}

// SearchOptions returns the options a front end uses when the caller
// supplies none. TopK falls back to DefaultTopK and is capped at MaxTopK.
func (r RetrievalSettings) SearchOptions() SearchOptions {
	topK := r.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	return SearchOptions{
		TopK:                 topK,
		Threshold:            r.Threshold,
		Provider:             r.Provider,
		IncludeHeaderContext: r.IncludeHeaderContext,
		IncludeNotes:         r.IncludeNotes,
		IncludeDetails:       r.IncludeDetails,
	}
}
