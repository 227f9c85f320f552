package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/inquest-cli/internal/core/ports/driving"
)

var (
	researchMaxSources int
	researchEmails     []string
	researchOutFile    string
)

var researchCmd = &cobra.Command{
	Use:   "research [topic]",
	Short: "Research a topic and produce a cited report",
	Long: `Gathers sources for the topic, indexes them, and runs the synthesis
loop until the model produces a cited report. The report is printed to
stdout; use --email to also deliver it, or --out to write it to a file.`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().IntVarP(&researchMaxSources, "max-sources", "n", 0,
		"maximum sources to gather (0 = configured default)")
	researchCmd.Flags().StringSliceVar(&researchEmails, "email", nil,
		"deliver the report to these addresses")
	researchCmd.Flags().StringVarP(&researchOutFile, "out", "o", "",
		"write the rendered report to a file")
	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	if researchService == nil {
		return errors.New("research service not configured")
	}

	outcome, err := researchService.Research(cmd.Context(), args[0], driving.ResearchOptions{
		MaxSources: researchMaxSources,
		Recipients: researchEmails,
	})
	if err != nil {
		if outcome != nil && outcome.Session != nil {
			cmd.PrintErrf("Session %s failed.\n", outcome.Session.ID)
		}
		return err
	}

	if researchOutFile != "" {
		if err := os.WriteFile(researchOutFile, outcome.Rendered, 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		cmd.Printf("Report written to %s\n", researchOutFile)
	} else {
		cmd.Println(string(outcome.Rendered))
	}

	if outcome.RenderError != nil {
		cmd.PrintErrf("Warning: rendering failed, report shown as plain Markdown: %v\n", outcome.RenderError)
	}
	if outcome.DeliveryError != nil {
		cmd.PrintErrf("Warning: delivery failed: %v\n", outcome.DeliveryError)
	} else if len(researchEmails) > 0 {
		cmd.Printf("Report delivered to %d recipients.\n", len(researchEmails))
	}

	cmd.PrintErrf("Session: %s\n", outcome.Session.ID)
	return nil
}
