package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/mock"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/similarity"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
)

// Stores behind the services installed by setupTestServices.
var (
	testChunks *memory.ChunkStore
	testCache  *memory.CacheStore
	testConfig *memory.ConfigStore
)

// setupTestServices wires real services over in-memory stores. The
// environment is development, so the deterministic mock provider serves
// embeddings. One completed document with one embedded chunk is seeded.
func setupTestServices() func() {
	testChunks = memory.NewChunkStore()
	testCache = memory.NewCacheStore()
	testConfig = memory.NewConfigStore()
	providers := memory.NewProviderConfigStore()

	_ = testConfig.Set("app.environment", "development") //nolint:errcheck // memory store never fails

	settings := services.NewSettingsService(testConfig, providers)
	registry := embedding.NewRegistry()
	registry.Register(mock.New())
	embedder := services.NewEmbedder(providers, registry, settings)
	engine := services.NewSimilarityEngine(similarity.Select(domain.SimilarityPortable))
	docs := services.NewDocumentService(testChunks)

	ctx := context.Background()
	_ = docs.Save(ctx, &domain.Document{ID: "doc-1", Title: "Install Guide", Status: domain.DocumentStatusCompleted})
	_ = docs.AddChunk(ctx, &domain.Chunk{
		ID:            "chunk-1",
		DocumentID:    "doc-1",
		Content:       "install the server",
		HeaderContext: "Guide > Install",
		Notes:         "tested on linux",
	})

	index := services.NewIndexService(testChunks, embedder, nil)
	_, _ = index.EmbedPending(ctx, "", 0) //nolint:errcheck // mock provider never fails

	SetServices(&Services{
		Search:   services.NewSearchService(testChunks, embedder, engine),
		Cache:    services.NewCacheService(testCache, embedder, engine, settings),
		Index:    index,
		Document: docs,
		Settings: settings,
		Health:   func(context.Context) error { return nil },
	})

	return func() {
		SetServices(nil)
		resetFlags(rootCmd)
	}
}

// resetFlags restores every scalar flag to its default so state does not leak
// between tests sharing the package-level commands.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if strings.HasSuffix(f.Value.Type(), "Slice") {
			return
		}
		_ = f.Value.Set(f.DefValue) //nolint:errcheck // defaults always parse
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// executeCommand runs the root command with args and returns combined output.
func executeCommand(args ...string) (string, error) {
	return executeCommandContext(context.Background(), args...)
}

// executeCommandContext runs the root command under ctx.
func executeCommandContext(ctx context.Context, args ...string) (string, error) {
	buf := new(syncBuffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	clearContexts(rootCmd)
	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

// clearContexts drops the contexts cobra leaves on every command after a
// run. A subcommand only inherits the root context when its own is nil.
func clearContexts(cmd *cobra.Command) {
	cmd.SetContext(nil) //nolint:staticcheck // nil makes cobra inherit the parent context
	for _, c := range cmd.Commands() {
		clearContexts(c)
	}
}

// syncBuffer is a bytes.Buffer safe for a command writing from a goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRootCmd_HasCommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}

	for _, want := range []string{"search", "cache", "index", "document", "settings", "serve", "mcp", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	for _, name := range []string{"verbose", "config-dir", "data-dir"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}

func TestExecute_BootstrapsServices(t *testing.T) {
	defer func() {
		bootstrap = nil
		SetServices(nil)
		resetFlags(rootCmd)
	}()

	var got Options
	closed := false
	boot := func(_ context.Context, o Options) (*Services, error) {
		got = o
		return &Services{
			Settings: services.NewSettingsService(memory.NewConfigStore(), nil),
			Close: func() error {
				closed = true
				return nil
			},
		}, nil
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"--config-dir", "/tmp/cfg", "settings", "show"})
	defer rootCmd.SetArgs(nil)

	err := Execute(context.Background(), "1.2.3", boot)

	require.NoError(t, err)
	assert.Equal(t, "/tmp/cfg", got.ConfigDir)
	assert.True(t, closed, "services must be closed after the command")
	assert.Contains(t, buf.String(), "[Retrieval]")
}

func TestExecute_VersionSkipsBootstrap(t *testing.T) {
	defer func() {
		bootstrap = nil
		version = "dev"
	}()

	called := false
	boot := func(context.Context, Options) (*Services, error) {
		called = true
		return nil, errors.New("storage unavailable")
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	err := Execute(context.Background(), "9.9.9", boot)

	require.NoError(t, err)
	assert.False(t, called)
	assert.Contains(t, buf.String(), "9.9.9")
}

func TestExecute_BootstrapError(t *testing.T) {
	defer func() {
		bootstrap = nil
	}()

	boot := func(context.Context, Options) (*Services, error) {
		return nil, errors.New("storage unavailable")
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"settings", "show"})
	defer rootCmd.SetArgs(nil)

	err := Execute(context.Background(), "dev", boot)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage unavailable")
}

func TestExplain_AddsProviderHint(t *testing.T) {
	err := explain(domain.NewRetrievalError(domain.ErrNoProviderAvailable))

	assert.ErrorIs(t, err, domain.ErrNoProviderAvailable)
	assert.Contains(t, err.Error(), "settings provider")

	plain := errors.New("boom")
	assert.Equal(t, plain, explain(plain))
}
