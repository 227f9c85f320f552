// Package cli implements the cobra command tree driving the research
// pipeline. Services are injected by the composition root before
// Execute is called; commands fail gracefully when one is missing.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/inquest-cli/internal/core/ports/driving"
	"github.com/custodia-labs/inquest-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Injected driving ports.
var (
	researchService driving.ResearchService
	retrieveService driving.RetrieveService
	sessionService  driving.SessionService
	settingsService driving.SettingsService
)

// Services aggregates the driving ports the CLI depends on.
type Services struct {
	Research driving.ResearchService
	Retrieve driving.RetrieveService
	Sessions driving.SessionService
	Settings driving.SettingsService
}

// Configure injects the services. Must be called before Execute.
func Configure(s Services) {
	researchService = s.Research
	retrieveService = s.Retrieve
	sessionService = s.Sessions
	settingsService = s.Settings
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "inquest",
	Short: "Research a topic from the command line",
	Long: `Inquest researches a topic end to end: it gathers web pages, PDFs and
video transcripts, indexes them for semantic retrieval, and synthesizes
a cited Markdown report through a planning loop over LLM providers.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"log pipeline progress to stderr")
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}
