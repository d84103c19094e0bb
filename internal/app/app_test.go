package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestNew_BuildsServices(t *testing.T) {
	ctx := context.Background()
	svc, err := New(ctx, cli.Options{ConfigDir: t.TempDir(), DataDir: t.TempDir()})
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	assert.NotNil(t, svc.Search)
	assert.NotNil(t, svc.Cache)
	assert.NotNil(t, svc.Index)
	assert.NotNil(t, svc.Document)
	assert.NotNil(t, svc.Settings)
	assert.NotNil(t, svc.Scheduler)
	assert.NotNil(t, svc.WatchConfig)
	assert.NoError(t, svc.Health(ctx))

	settings, err := svc.Settings.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.EnvironmentProduction, settings.Environment)
}

func TestNew_DocumentsPersistAcrossOpens(t *testing.T) {
	ctx := context.Background()
	opts := cli.Options{ConfigDir: t.TempDir(), DataDir: t.TempDir()}

	first, err := New(ctx, opts)
	require.NoError(t, err)
	require.NoError(t, first.Document.Save(ctx, &domain.Document{ID: "doc-1", Title: "Guide", Status: domain.DocumentStatusPending}))
	require.NoError(t, first.Close())

	second, err := New(ctx, opts)
	require.NoError(t, err)
	defer second.Close()

	doc, err := second.Document.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Guide", doc.Title)
}

func TestNew_ProductionWithoutProviderRefusesSearch(t *testing.T) {
	ctx := context.Background()
	svc, err := New(ctx, cli.Options{ConfigDir: t.TempDir(), DataDir: t.TempDir()})
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Search.Search(ctx, "anything", domain.SearchOptions{TopK: 3})

	assert.ErrorIs(t, err, domain.ErrNoProviderAvailable)
}

func TestIndexLimiter(t *testing.T) {
	assert.Equal(t, rate.Inf, indexLimiter(0).Limit())
	assert.Equal(t, rate.Inf, indexLimiter(-1).Limit())

	l := indexLimiter(0.5)
	assert.Equal(t, rate.Limit(0.5), l.Limit())
	assert.Equal(t, 1, l.Burst())

	assert.Equal(t, 20, indexLimiter(20).Burst())
}

func TestSchedulerConfig(t *testing.T) {
	config := memory.NewConfigStore()

	cfg := schedulerConfig(config)
	assert.Equal(t, domain.DefaultSchedulerConfig(), cfg)

	require.NoError(t, config.Set("scheduler.cache_purge_minutes", 5))
	require.NoError(t, config.Set("scheduler.index_pending_minutes", 0))
	require.NoError(t, config.Set("scheduler.enabled", false))

	cfg = schedulerConfig(config)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.GetTaskConfig(domain.TaskIDCachePurge).Interval)
	assert.True(t, cfg.GetTaskConfig(domain.TaskIDCachePurge).Enabled)
	assert.False(t, cfg.GetTaskConfig(domain.TaskIDIndexPending).Enabled)
}
