// Package cli provides the sercha-rag command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// annotationNoServices marks commands that run without bootstrapping storage.
const annotationNoServices = "sercha-rag/no-services"

// Options carries global flags to the bootstrap function.
type Options struct {
	ConfigDir string
	DataDir   string
	Verbose   bool
}

// Services holds the driving ports commands call.
type Services struct {
	Search   driving.SearchService
	Cache    driving.CacheService
	Index    driving.IndexService
	Document driving.DocumentService
	Settings driving.SettingsService

	// Scheduler runs background maintenance while serving. May be nil.
	Scheduler driving.Scheduler

	// Health reports storage reachability.
	Health func(ctx context.Context) error

	// WatchConfig blocks, calling onChange whenever the config file changes.
	WatchConfig func(ctx context.Context, onChange func()) error

	// Close releases storage. May be nil.
	Close func() error
}

// Bootstrap builds services from global flags. It runs once per invocation,
// before any command that needs services.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

var (
	version = "dev"

	opts      Options
	bootstrap Bootstrap

	searchService   driving.SearchService
	cacheService    driving.CacheService
	indexService    driving.IndexService
	documentService driving.DocumentService
	settingsService driving.SettingsService
	scheduler       driving.Scheduler
	healthCheck     func(ctx context.Context) error
	watchConfig     func(ctx context.Context, onChange func()) error
	closeServices   func() error
)

var rootCmd = &cobra.Command{
	Use:   "sercha-rag",
	Short: "Multi-field semantic retrieval with a semantic response cache",
	Long: `sercha-rag embeds chunk text with a configured provider (OpenAI, Voyage,
Gemini or Ollama) and ranks chunks by the best similarity across their
content, heading path, notes and details. A semantic cache lets callers reuse
responses to near-identical queries.`,
	SilenceUsage:       true,
	PersistentPreRunE:  preRun,
	PersistentPostRunE: postRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "print debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&opts.ConfigDir, "config-dir", "", "configuration directory (default ~/.sercha-rag)")
	rootCmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "data directory (default ~/.sercha-rag/data)")
}

// Execute runs the root command. boot is called lazily, so commands such as
// version never touch storage.
func Execute(ctx context.Context, v string, boot Bootstrap) error {
	version = v
	bootstrap = boot
	err := rootCmd.ExecuteContext(ctx)
	// PersistentPostRunE is skipped when a command fails.
	if closeErr := postRun(nil, nil); err == nil {
		err = closeErr
	}
	return err
}

// SetServices installs services directly, bypassing the bootstrap.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	searchService = s.Search
	cacheService = s.Cache
	indexService = s.Index
	documentService = s.Document
	settingsService = s.Settings
	scheduler = s.Scheduler
	healthCheck = s.Health
	watchConfig = s.WatchConfig
	closeServices = s.Close
}

func preRun(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(opts.Verbose)

	if bootstrap == nil || cmd.Annotations[annotationNoServices] == "true" {
		return nil
	}

	s, err := bootstrap(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	SetServices(s)
	return nil
}

func postRun(_ *cobra.Command, _ []string) error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

// retryPolicy returns the configured caller-level retry policy.
func retryPolicy() domain.RetrySettings {
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil && s != nil {
			return s.Retry
		}
	}
	return domain.DefaultAppSettings().Retry
}

// retrievalDefaults returns the configured search defaults.
func retrievalDefaults() domain.RetrievalSettings {
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil && s != nil {
			return s.Retrieval
		}
	}
	return domain.DefaultAppSettings().Retrieval
}

// explain adds a hint to errors an operator can act on.
func explain(err error) error {
	switch {
	case errors.Is(err, domain.ErrNoProviderAvailable):
		return fmt.Errorf("%w\nRun 'sercha-rag settings provider <name>' to configure one", err)
	default:
		return err
	}
}
