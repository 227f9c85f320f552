package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
)

var retrieveK int

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [session-id] [query]",
	Short: "Retrieve passages from a past research session",
	Long: `Runs a similarity query against the indexed passages of a completed
session. Useful for inspecting what evidence a report was built on.`,
	Args: cobra.ExactArgs(2),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveK, "limit", "n", 8, "maximum number of passages")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if retrieveService == nil {
		return errors.New("retrieve service not configured")
	}

	results, err := retrieveService.Retrieve(cmd.Context(), args[0], args[1], domain.RetrieveOptions{
		K:             retrieveK,
		DedupBySource: true,
	})
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if len(results) == 0 {
		cmd.Println("No matching passages.")
		return nil
	}

	for i := range results {
		cmd.Printf("  [%d] (%.2f) source %s\n", i+1, results[i].Score, results[i].SourceID)
		cmd.Printf("      %s\n\n", truncateLine(results[i].Passage.Text, 160))
	}
	return nil
}
