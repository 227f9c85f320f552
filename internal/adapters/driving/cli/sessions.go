package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage research sessions",
	RunE:  runSessionsList,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show a session's synthesis turns",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete [session-id]",
	Short: "Delete a session and all its indexed material",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func styledStatus(status domain.SessionStatus) string {
	switch status {
	case domain.StatusDone:
		return doneStyle.Render(string(status))
	case domain.StatusFailed:
		return failedStyle.Render(string(status))
	default:
		return string(status)
	}
}

func runSessionsList(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	sessions, err := sessionService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	if len(sessions) == 0 {
		cmd.Println("No sessions yet. Run 'inquest research <topic>' to start one.")
		return nil
	}

	cmd.Println(headerStyle.Render("Sessions"))
	for i := range sessions {
		s := &sessions[i]
		cmd.Printf("  %s  %-12s %s\n",
			s.ID, styledStatus(s.Status), s.Topic)
		cmd.Printf("  %s\n", dimStyle.Render("created "+s.CreatedAt.Format("2006-01-02 15:04")))
	}
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	session, err := sessionService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	turns, err := sessionService.Turns(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("loading turns: %w", err)
	}

	cmd.Println(headerStyle.Render(session.Topic))
	cmd.Printf("Status: %s\n\n", styledStatus(session.Status))

	if len(turns) == 0 {
		cmd.Println("No synthesis turns recorded.")
		return nil
	}

	totalTokens := 0
	for i := range turns {
		turn := &turns[i]
		totalTokens += turn.TokensUsed

		label := string(turn.Action.Type)
		switch turn.Action.Type {
		case domain.ActionSearch, domain.ActionRetrieve:
			label = fmt.Sprintf("%s %q", turn.Action.Type, turn.Action.Query)
		case domain.ActionFetch:
			label = fmt.Sprintf("fetch %s", turn.Action.URL)
		}

		cmd.Printf("  [%d] %s\n", turn.Index, label)
		if turn.ToolResult != "" {
			cmd.Printf("      %s\n", dimStyle.Render(truncateLine(turn.ToolResult, 100)))
		}
		if turn.Retries > 0 {
			cmd.Printf("      %s\n", dimStyle.Render(fmt.Sprintf("%d provider retries", turn.Retries)))
		}
	}
	cmd.Printf("\nTokens used: %d across %d turns\n", totalTokens, len(turns))
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	if err := sessionService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	cmd.Printf("Deleted session %s\n", args[0])
	return nil
}

// truncateLine shortens text to a single display line.
func truncateLine(text string, maxLen int) string {
	for i, r := range text {
		if r == '\n' {
			text = text[:i]
			break
		}
	}
	if len(text) > maxLen {
		return text[:maxLen-3] + "..."
	}
	return text
}
