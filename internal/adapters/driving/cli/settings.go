package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure retrieval defaults, the semantic cache, retry policy and
embedding providers.

Use subcommands to configure specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure an embedding provider step by step.`,
	RunE:  runSettingsWizard,
}

var settingsProviderCmd = &cobra.Command{
	Use:   "provider [openai|voyage|gemini|ollama|mock]",
	Short: "Configure an embedding provider",
	Long: `Store the configuration of an embedding provider.

Cloud providers need an API key. Pass --key-env to read it from an environment
variable at runtime; otherwise the key is prompted for and stored in the
config file, which is written with owner-only permissions.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsProvider,
}

var settingsPreferredCmd = &cobra.Command{
	Use:   "preferred [provider]",
	Short: "Set the provider tried first",
	Long:  `Set the provider searches try first. Pass "none" to use the fixed fallback order.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsPreferred,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a single setting",
	Long: `Change a single setting.

Keys:
  environment             production | development
  top_k                   default result count (0-50)
  threshold               default search similarity (0-1)
  include_header_context  true | false
  include_notes           true | false
  include_details         true | false
  embedding_timeout       duration, e.g. 30s
  cache.enabled           true | false
  cache.threshold         cache hit similarity (0-1)
  cache.max_age           duration, e.g. 24h
  retry.max_attempts      total tries per call (1 disables retries)
  retry.initial_interval  duration, e.g. 500ms
  retry.max_interval      duration, e.g. 5s
  similarity              auto | portable | native`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var (
	providerModel    string
	providerBaseURL  string
	providerKeyEnv   string
	providerInactive bool
)

func init() {
	settingsProviderCmd.Flags().StringVarP(&providerModel, "model", "m", "", "embedding model (default: provider default)")
	settingsProviderCmd.Flags().StringVar(&providerBaseURL, "base-url", "", "override the provider endpoint")
	settingsProviderCmd.Flags().StringVar(&providerKeyEnv, "key-env", "", "environment variable holding the API key")
	settingsProviderCmd.Flags().BoolVar(&providerInactive, "inactive", false, "store the config without activating it")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsProviderCmd)
	settingsCmd.AddCommand(settingsPreferredCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Printf("Environment: %s\n", settings.Environment)
	cmd.Printf("Similarity:  %s\n", settings.Similarity)
	cmd.Println()

	cmd.Println("[Retrieval]")
	preferred := "(fallback order)"
	if settings.Retrieval.Provider != "" {
		preferred = settings.Retrieval.Provider.Description()
	}
	cmd.Printf("  Preferred provider: %s\n", preferred)
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Printf("  Threshold: %.2f\n", settings.Retrieval.Threshold)
	cmd.Printf("  Fields: %s\n", joinFields(settings.Retrieval.SearchOptions().Fields()))
	cmd.Printf("  Embedding timeout: %v\n", settings.Retrieval.EmbeddingTimeout)
	cmd.Println()

	cmd.Println("[Cache]")
	cmd.Printf("  Enabled: %s\n", yesNo(settings.Cache.Enabled))
	cmd.Printf("  Threshold: %.2f\n", settings.Cache.Threshold)
	cmd.Printf("  Max age: %v\n", settings.Cache.MaxAge)
	cmd.Println()

	cmd.Println("[Retry]")
	cmd.Printf("  Max attempts: %d\n", settings.Retry.MaxAttempts)
	cmd.Printf("  Backoff: %v to %v\n", settings.Retry.InitialInterval, settings.Retry.MaxInterval)
	cmd.Println()

	// Validation
	if err := settingsService.Validate(cmd.Context()); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'sercha-rag settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("sercha-rag Settings Wizard")
	cmd.Println("==========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	// Step 1: Provider
	cmd.Println("Step 1: Select Embedding Provider")
	cmd.Println("---------------------------------")
	providers := domain.ProviderPriority()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	selected := providers[idx-1]

	// Step 2: Model
	defaultModel := domain.DefaultEmbeddingModels()[selected]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Step 3: Credentials
	cfg := domain.ProviderConfig{Provider: selected, Model: model, Active: true}
	if selected.RequiresAPIKey() {
		cmd.Print("Enter API key, or env:NAME to read it from the environment: ")
		cfg.CredentialRef = readSecret(cmd.InOrStdin(), reader)
		cmd.Println()
		if cfg.CredentialRef == "" {
			return errors.New("API key is required for this provider")
		}
	} else {
		cmd.Print("Enter base URL [default]: ")
		cfg.BaseURL = readLine(reader)
	}

	if err := settingsService.SetProvider(cmd.Context(), cfg); err != nil {
		return fmt.Errorf("failed to configure provider: %w", err)
	}
	if err := settingsService.SetPreferredProvider(selected); err != nil {
		return fmt.Errorf("failed to set preferred provider: %w", err)
	}
	cmd.Printf("Embedding provider configured: %s (%s)\n\n", selected.Description(), model)

	// Final validation
	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(cmd.Context()); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func runSettingsProvider(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	provider := domain.AIProvider(strings.ToLower(args[0]))
	if !provider.IsValid() {
		return fmt.Errorf("unknown provider %q", args[0])
	}

	cfg := domain.ProviderConfig{
		Provider: provider,
		Model:    providerModel,
		BaseURL:  providerBaseURL,
		Active:   !providerInactive,
	}

	switch {
	case providerKeyEnv != "":
		cfg.CredentialRef = "env:" + providerKeyEnv
	case provider.RequiresAPIKey() && cfg.Active:
		cmd.Print("Enter API key: ")
		cfg.CredentialRef = readSecret(cmd.InOrStdin(), bufio.NewReader(cmd.InOrStdin()))
		cmd.Println()
		if cfg.CredentialRef == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetProvider(cmd.Context(), cfg); err != nil {
		return fmt.Errorf("failed to configure provider: %w", err)
	}

	cmd.Printf("Provider configured: %s\n", provider.Description())
	if cfg.CredentialRef != "" {
		cmd.Printf("  Credential: %s\n", describeCredential(cfg.CredentialRef))
	}
	return nil
}

func runSettingsPreferred(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	provider := domain.AIProvider(strings.ToLower(args[0]))
	if provider == "none" {
		provider = ""
	}
	if err := settingsService.SetPreferredProvider(provider); err != nil {
		return fmt.Errorf("failed to set preferred provider: %w", err)
	}

	if provider == "" {
		cmd.Println("Preferred provider cleared; the fallback order applies.")
		return nil
	}
	cmd.Printf("Preferred provider set to: %s\n", provider.Description())
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if err := applySetting(settings, args[0], args[1]); err != nil {
		return err
	}
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Printf("%s set to %s\n", args[0], args[1])
	return nil
}

// applySetting parses value into the field named by key.
func applySetting(s *domain.AppSettings, key, value string) error {
	var err error
	switch key {
	case "environment":
		s.Environment = domain.Environment(value)
	case "top_k":
		s.Retrieval.TopK, err = strconv.Atoi(value)
	case "threshold":
		s.Retrieval.Threshold, err = strconv.ParseFloat(value, 64)
	case "include_header_context":
		s.Retrieval.IncludeHeaderContext, err = strconv.ParseBool(value)
	case "include_notes":
		s.Retrieval.IncludeNotes, err = strconv.ParseBool(value)
	case "include_details":
		s.Retrieval.IncludeDetails, err = strconv.ParseBool(value)
	case "embedding_timeout":
		s.Retrieval.EmbeddingTimeout, err = time.ParseDuration(value)
	case "cache.enabled":
		s.Cache.Enabled, err = strconv.ParseBool(value)
	case "cache.threshold":
		s.Cache.Threshold, err = strconv.ParseFloat(value, 64)
	case "cache.max_age":
		s.Cache.MaxAge, err = time.ParseDuration(value)
	case "retry.max_attempts":
		s.Retry.MaxAttempts, err = strconv.Atoi(value)
	case "retry.initial_interval":
		s.Retry.InitialInterval, err = time.ParseDuration(value)
	case "retry.max_interval":
		s.Retry.MaxInterval, err = time.ParseDuration(value)
	case "similarity":
		s.Similarity = domain.SimilarityBackend(value)
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readSecret reads without echo when in is a terminal, otherwise a plain line.
func readSecret(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	return readLine(reader)
}

// describeCredential shows where a key comes from without revealing it.
func describeCredential(ref string) string {
	if name, ok := strings.CutPrefix(ref, "env:"); ok {
		return "from $" + name
	}
	return logger.Redact(ref)
}

func joinFields(fields []domain.ChunkField) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.String()
	}
	return strings.Join(names, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
