// Package app assembles the adapters and services behind the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/transport"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/similarity"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Config keys read only at startup.
const (
	// keyIndexRate caps provider calls per second during indexing. Zero or
	// absent means unlimited.
	keyIndexRate = "index.requests_per_second"

	keySchedulerEnabled      = "scheduler.enabled"
	keySchedulerPurgeMinutes = "scheduler.cache_purge_minutes"
	keySchedulerIndexMinutes = "scheduler.index_pending_minutes"
)

// New opens the config file and database and builds every service.
// It satisfies cli.Bootstrap.
func New(_ context.Context, opts cli.Options) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger.Debug("config: %s", configStore.Path())

	store, err := sqlite.NewStore(opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	logger.Debug("database: %s", store.Path())

	providers := file.NewProviderStore(configStore)
	settings := services.NewSettingsService(configStore, providers)

	current, err := settings.Get()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("reading settings: %w", err), store.Close())
	}

	chunks := store.ChunkStore()
	registry := embedding.NewDefaultRegistry(transport.NewHTTPClient())
	embedder := services.NewEmbedder(providers, registry, settings)
	engine := services.NewSimilarityEngine(similarity.Select(current.Similarity))

	cache := services.NewCacheService(store.CacheStore(), embedder, engine, settings)
	index := services.NewIndexService(chunks, embedder, indexLimiter(configStore.GetFloat(keyIndexRate)))

	return &cli.Services{
		Search:      services.NewSearchService(chunks, embedder, engine),
		Cache:       cache,
		Index:       index,
		Document:    services.NewDocumentService(chunks),
		Settings:    settings,
		Scheduler:   services.NewScheduler(schedulerConfig(configStore), store.SchedulerStore(), cache, index),
		Health:      store.Ping,
		WatchConfig: configStore.Watch,
		Close:       store.Close,
	}, nil
}

// schedulerConfig overlays the [scheduler] table on the defaults. An interval
// of zero minutes disables that task.
func schedulerConfig(config driven.ConfigStore) domain.SchedulerConfig {
	cfg := domain.DefaultSchedulerConfig()
	if _, ok := config.Get(keySchedulerEnabled); ok {
		cfg.Enabled = config.GetBool(keySchedulerEnabled)
	}

	overrides := map[string]string{
		domain.TaskIDCachePurge:   keySchedulerPurgeMinutes,
		domain.TaskIDIndexPending: keySchedulerIndexMinutes,
	}
	for id, key := range overrides {
		if _, ok := config.Get(key); !ok {
			continue
		}
		minutes := config.GetInt(key)
		cfg.TaskConfigs[id] = domain.TaskConfig{
			Enabled:  minutes > 0,
			Interval: time.Duration(minutes) * time.Minute,
		}
	}
	return cfg
}

// indexLimiter paces indexing at rps calls per second, bursting up to one
// second's worth.
func indexLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
