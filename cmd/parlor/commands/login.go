package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parlorvoice/parlor/pkg/auth"
	"github.com/parlorvoice/parlor/pkg/cli"
)

var (
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and persist a resumable identity",
	Long: `Login exchanges username and password for a token pair and stores the
refresh token locally, so later commands and restarts resume the same
logical session without re-entering credentials.

The password is taken from --password, the PARLOR_PASSWORD environment
variable, or prompted for.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := currentContext()
		if err != nil {
			return err
		}

		username := loginUsername
		if username == "" {
			username = ctx.Username
		}
		if username == "" {
			return fmt.Errorf("no username; pass --username or set one on the context")
		}

		password := loginPassword
		if password == "" {
			password = os.Getenv("PARLOR_PASSWORD")
		}
		if password == "" {
			fmt.Fprintf(os.Stderr, "Password for %s: ", username)
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimSpace(line)
		}

		store, err := openIdentityStore()
		if err != nil {
			return err
		}
		defer store.Close()

		mgr := newAuthManager(ctx, store)
		defer mgr.Close()

		result, err := mgr.Login(cmd.Context(), auth.Credentials{
			Username: username,
			Password: password,
		})
		if err != nil {
			return err
		}

		cli.PrintSuccess("logged in as %s", username)
		cli.PrintInfo("session identity %s, token valid until %s",
			result.UISessionID, result.Token.ExpiresAt.Local().Format("15:04:05"))
		if result.FirstPage != nil {
			cli.PrintInfo("%d of %d sessions preloaded",
				len(result.FirstPage.Sessions), result.FirstPage.Total)
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Drop the persisted identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := currentContext()
		if err != nil {
			return err
		}
		store, err := openIdentityStore()
		if err != nil {
			return err
		}
		defer store.Close()

		mgr := newAuthManager(ctx, store)
		mgr.Logout(cmd.Context())
		mgr.Close()
		cli.PrintSuccess("logged out of context %q", ctx.Name)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginUsername, "username", "", "login username (defaults to the context's)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "login password (prefer PARLOR_PASSWORD or the prompt)")
}
