package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parlorvoice/parlor/pkg/cli"
)

var (
	sessionsAll      bool
	sessionsPageSize int
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Browse and inspect past sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, cleanup, err := connectLive(cmd, nil)
		if err != nil {
			return err
		}
		defer cleanup()

		ix := c.Sessions()
		if ix.TotalAvailable() == 0 {
			// Nothing seeded from the credential exchange; fetch the
			// first page over the transport.
			if err := c.LoadSessions(cmd.Context()); err != nil {
				return err
			}
		}

		pageSize := sessionsPageSize
		if pageSize <= 0 {
			pageSize = 50
		}
		if sessionsAll {
			for ix.LoadedCount() < ix.TotalAvailable() {
				if err := ix.LoadMore(cmd.Context(), pageSize); err != nil {
					return err
				}
			}
		}

		entries := ix.Entries()
		if outputJSON {
			return cli.Output(entries, cli.OutputOptions{Format: cli.FormatJSON})
		}

		styles := cli.NewStyles(cli.DefaultTheme)
		active := ix.Active()
		fmt.Println(styles.Header.Render(fmt.Sprintf("%-24s %-28s %-12s %s", "ID", "NAME", "AGENT", "UPDATED")))
		for i := range entries {
			s := &entries[i]
			line := fmt.Sprintf("%-24s %-28s %-12s %s",
				s.ID, s.DisplayName(), s.AgentKey, cli.FormatAgo(s.UpdatedAt.Time()))
			if active != nil && active.ID == s.ID {
				line = styles.Live.Render(line + "  (active)")
			}
			fmt.Println(line)
		}
		fmt.Println(styles.Dim.Render(fmt.Sprintf("%d of %d loaded", ix.LoadedCount(), ix.TotalAvailable())))
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:     "show <session-id>",
	Aliases: []string{"resume"},
	Short:   "Show one session's full transcript",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, cleanup, err := connectLive(cmd, nil)
		if err != nil {
			return err
		}
		defer cleanup()

		detail, err := c.Sessions().Resume(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if outputJSON {
			return cli.Output(detail, cli.OutputOptions{Format: cli.FormatJSON})
		}

		styles := cli.NewStyles(cli.DefaultTheme)
		fmt.Println(styles.Title.Render(detail.DisplayName()))
		fmt.Println(styles.Dim.Render(fmt.Sprintf("agent %s, %d messages", detail.AgentKey, len(detail.Messages))))
		for i := range detail.Messages {
			m := &detail.Messages[i]
			role := styles.Label.Render(fmt.Sprintf("%-6s", m.Role))
			body := m.Text
			if body == "" && m.AudioMs > 0 {
				body = styles.Dim.Render(fmt.Sprintf("[audio %s]", cli.FormatDuration(m.AudioMs)))
			}
			fmt.Printf("%s %s\n", role, body)
		}
		return nil
	},
}

func init() {
	sessionsListCmd.Flags().BoolVar(&sessionsAll, "all", false, "load every page, not just the first")
	sessionsListCmd.Flags().IntVar(&sessionsPageSize, "page-size", 0, "page size for incremental loads")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
}
