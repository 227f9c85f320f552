package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
)

var (
	settingsModel    string
	settingsAPIKey   string
	settingsFallback bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure model providers, embedding, gathering limits and
report language. Values persist to the config file; API keys can also
come from environment variables (GEMINI_API_KEY, OPENAI_API_KEY,
ANTHROPIC_API_KEY, RESEND_API_KEY).`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm [provider]",
	Short: "Configure a model provider",
	Long: `Set the primary model provider, or the fallback with --fallback.

Available providers: gemini, openai, anthropic`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsLLM,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding [provider]",
	Short: "Configure the embedding provider",
	Long: `Set the embedding provider used for indexing and retrieval.

Available providers: gemini, openai, ollama

Changing the embedding provider does not re-embed existing sessions;
their passages stay searchable only with the model that indexed them.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsEmbedding,
}

var settingsLanguageCmd = &cobra.Command{
	Use:   "language [language]",
	Short: "Set the report output language",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsLanguage,
}

func init() {
	settingsLLMCmd.Flags().StringVar(&settingsModel, "model", "", "model identifier (empty = provider default)")
	settingsLLMCmd.Flags().StringVar(&settingsAPIKey, "api-key", "", "API key (empty = environment variable)")
	settingsLLMCmd.Flags().BoolVar(&settingsFallback, "fallback", false, "configure the fallback slot instead of the primary")
	settingsEmbeddingCmd.Flags().StringVar(&settingsModel, "model", "", "model identifier (empty = provider default)")
	settingsEmbeddingCmd.Flags().StringVar(&settingsAPIKey, "api-key", "", "API key (empty = environment variable)")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLanguageCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	cmd.Println(headerStyle.Render("Current Settings"))
	cmd.Println()

	cmd.Println("[Providers]")
	if len(settings.Providers) == 0 {
		cmd.Println("  (none configured)")
	}
	for i, provider := range settings.Providers {
		slot := "Primary"
		if i > 0 {
			slot = "Fallback"
		}
		model := provider.Model
		if model == "" {
			model = "(default)"
		}
		key := "(not set)"
		if provider.APIKey != "" {
			key = maskAPIKey(provider.APIKey)
		}
		cmd.Printf("  %s: %s, model %s, key %s\n", slot, provider.Provider.Description(), model, key)
	}
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding)
	if settings.EmbeddingModel != "" {
		cmd.Printf("  Model: %s\n", settings.EmbeddingModel)
	}
	cmd.Println()

	cmd.Println("[Gathering]")
	cmd.Printf("  Max sources: %d\n", settings.Gather.MaxSources)
	cmd.Printf("  Concurrency: %d\n", settings.Gather.Concurrency)
	cmd.Println()

	cmd.Println("[Synthesis]")
	cmd.Printf("  Max turns: %d\n", settings.Synthesis.MaxTurns)
	cmd.Printf("  Token budget: %d\n", settings.Synthesis.TokenBudget)
	cmd.Printf("  Language: %s\n", settings.Synthesis.Language)
	cmd.Println()

	if err := settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'inquest settings llm <provider>' to configure a model provider.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsLLM(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	provider := domain.ModelProvider(args[0])
	if !provider.IsValid() {
		return fmt.Errorf("invalid model provider: %s", args[0])
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	entry := domain.ProviderSettings{
		Provider: provider,
		Model:    settingsModel,
		APIKey:   settingsAPIKey,
	}

	slot := 0
	if settingsFallback {
		slot = 1
	}
	for len(settings.Providers) <= slot {
		settings.Providers = append(settings.Providers, domain.ProviderSettings{})
	}
	settings.Providers[slot] = entry

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}

	label := "Primary"
	if settingsFallback {
		label = "Fallback"
	}
	cmd.Printf("%s provider set to %s\n", label, provider.Description())
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	provider := domain.EmbeddingProvider(args[0])
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", args[0])
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	settings.Embedding = provider
	settings.EmbeddingModel = settingsModel
	if settingsAPIKey != "" {
		settings.EmbeddingAPIKey = settingsAPIKey
	}

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}

	cmd.Printf("Embedding provider set to %s\n", provider)
	return nil
}

func runSettingsLanguage(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	settings.Synthesis.Language = args[0]
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}

	cmd.Printf("Report language set to %s\n", args[0])
	return nil
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
