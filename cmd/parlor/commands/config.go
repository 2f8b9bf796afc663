package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parlorvoice/parlor/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration contexts",
}

var (
	addCtxBaseURL  string
	addCtxLiveURL  string
	addCtxUsername string
	addCtxPageSize int
)

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add a new server context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if addCtxBaseURL == "" {
			return fmt.Errorf("--base-url is required")
		}
		name := args[0]
		err := globalConfig.AddContext(name, &cli.Context{
			BaseURL:  addCtxBaseURL,
			LiveURL:  addCtxLiveURL,
			Username: addCtxUsername,
			PageSize: addCtxPageSize,
		})
		if err != nil {
			return err
		}
		cli.PrintSuccess("context %q added", name)
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Switch the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := globalConfig.UseContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("switched to context %q", args[0])
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := globalConfig.DeleteContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("context %q deleted", args[0])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputJSON {
			return cli.Output(globalConfig.Contexts, cli.OutputOptions{Format: cli.FormatJSON})
		}
		styles := cli.NewStyles(cli.DefaultTheme)
		for _, name := range globalConfig.ContextNames() {
			ctx := globalConfig.Contexts[name]
			marker := "  "
			if name == globalConfig.CurrentContext {
				marker = styles.Label.Render("* ")
			}
			fmt.Printf("%s%s\t%s\n", marker, name, styles.Dim.Render(ctx.BaseURL))
		}
		return nil
	},
}

var configCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the current context",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := currentContext()
		if err != nil {
			return err
		}
		return cli.Output(ctx, cli.OutputOptions{Format: outputFormat()})
	},
}

func init() {
	configAddContextCmd.Flags().StringVar(&addCtxBaseURL, "base-url", "", "HTTP API base URL (required)")
	configAddContextCmd.Flags().StringVar(&addCtxLiveURL, "live-url", "", "realtime endpoint (derived from base-url when empty)")
	configAddContextCmd.Flags().StringVar(&addCtxUsername, "username", "", "login username")
	configAddContextCmd.Flags().IntVar(&addCtxPageSize, "page-size", 0, "session index page size")

	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configCurrentCmd)
}
