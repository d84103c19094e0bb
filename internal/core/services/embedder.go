package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// SettingsReader supplies the current application settings.
type SettingsReader interface {
	Get() (*domain.AppSettings, error)
}

// Embedder resolves a provider per call and turns text into vectors.
// Provider configuration is read from the store on every Resolve, so edits to
// the config take effect without a restart.
type Embedder struct {
	providers driven.ProviderConfigStore
	registry  driven.EmbeddingRegistry
	settings  SettingsReader
	selector  *ProviderSelector
}

// NewEmbedder creates an embedder. settings may be nil, in which case
// domain.DefaultAppSettings apply.
func NewEmbedder(
	providers driven.ProviderConfigStore,
	registry driven.EmbeddingRegistry,
	settings SettingsReader,
) *Embedder {
	return &Embedder{
		providers: providers,
		registry:  registry,
		settings:  settings,
		selector:  NewProviderSelector(),
	}
}

// EmbeddingTarget is a resolved provider, model and adapter.
type EmbeddingTarget struct {
	Selection domain.ProviderSelection
	adapter   driven.EmbeddingAdapter
	timeout   time.Duration
}

// Model returns the embedding model of the target.
func (t *EmbeddingTarget) Model() string {
	return t.Selection.Model
}

// Embed generates a vector for text, bounded by the configured timeout.
func (t *EmbeddingTarget) Embed(ctx context.Context, text string) ([]float32, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := time.Now()
	vec, err := t.adapter.GenerateEmbedding(ctx, text, t.Selection.Model, t.Selection.Credentials)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, domain.ErrProviderUnavailable) {
			err = &domain.ProviderError{Provider: t.Selection.Provider, Message: "request cancelled", Err: ctxErr}
		}
		logger.Debug("Embedding via %s failed after %v: %v", t.Selection.Provider, time.Since(start), err)
		return nil, err
	}
	if !domain.IsFiniteVector(vec) {
		return nil, fmt.Errorf("%w: provider %s returned an empty or non-finite vector",
			domain.ErrInvalidEmbedding, t.Selection.Provider)
	}
	logger.Debug("Embedded %d chars via %s/%s (%d dims) in %v",
		len(text), t.Selection.Provider, t.Selection.Model, len(vec), time.Since(start))
	return vec, nil
}

// Resolve selects the provider and adapter for one request.
// model overrides the provider's configured model when non-empty.
func (e *Embedder) Resolve(ctx context.Context, preferred domain.AIProvider, model string) (*EmbeddingTarget, error) {
	settings := e.currentSettings()
	if preferred == "" {
		preferred = settings.Retrieval.Provider
	}

	entries, err := e.providers.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load provider configs: %w", err)
	}
	sel, err := e.selector.Resolve(preferred, NewProviderSet(entries, settings.Environment.AllowsMock()))
	if err != nil {
		return nil, err
	}
	if model = strings.TrimSpace(model); model != "" {
		sel.Model = model
	}

	adapter, ok := e.registry.Adapter(sel.Provider)
	if !ok {
		return nil, fmt.Errorf("%w: no adapter registered for %s", domain.ErrNoProviderAvailable, sel.Provider)
	}
	if !adapter.SupportsModel(sel.Model) {
		return nil, fmt.Errorf("%w: %s does not support %q", domain.ErrUnsupportedModel, sel.Provider, sel.Model)
	}

	logger.Debug("Resolved embedding provider %s model %s", sel.Provider, sel.Model)
	return &EmbeddingTarget{Selection: sel, adapter: adapter, timeout: settings.Retrieval.EmbeddingTimeout}, nil
}

// Embed resolves a provider and embeds text in one step.
func (e *Embedder) Embed(
	ctx context.Context, text string, preferred domain.AIProvider, model string,
) ([]float32, domain.ProviderSelection, error) {
	target, err := e.Resolve(ctx, preferred, model)
	if err != nil {
		return nil, domain.ProviderSelection{}, err
	}
	vec, err := target.Embed(ctx, text)
	if err != nil {
		return nil, target.Selection, err
	}
	return vec, target.Selection, nil
}

func (e *Embedder) currentSettings() domain.AppSettings {
	if e.settings != nil {
		if s, err := e.settings.Get(); err == nil && s != nil {
			return *s
		}
	}
	return domain.DefaultAppSettings()
}
