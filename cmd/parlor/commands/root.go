package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/parlorvoice/parlor/pkg/auth"
	"github.com/parlorvoice/parlor/pkg/cli"
	"github.com/parlorvoice/parlor/pkg/client"
	"github.com/parlorvoice/parlor/pkg/kv"
)

const appName = "parlor"

var (
	// Global flags
	cfgFile     string
	contextName string
	outputJSON  bool
	verbose     bool

	// Global configuration
	globalConfig *cli.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "parlor",
	Short: "Parlor realtime session CLI",
	Long: `Parlor CLI - a command line client for parlor conversational servers.

This tool maintains a persistent realtime connection to a parlor server
and lets you:
  - Authenticate and persist a resumable identity
  - Browse the session index page by page
  - Inspect full session transcripts
  - Hold a live session, streaming audio both ways

Configuration is stored in ~/.parlor/parlor/ and supports multiple
contexts, similar to kubectl's context management.

Examples:
  # Set up a new context
  parlor config add-context prod --base-url https://api.parlor.dev --username ada

  # Authenticate
  parlor -c prod login

  # Browse sessions
  parlor -c prod sessions list --all

  # Go live, reading microphone PCM from stdin
  arecord -f S16_LE -r 48000 -c 1 | parlor -c prod run
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.parlor/parlor/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name to use")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON (for piping)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	var err error
	globalConfig, err = cli.LoadConfigWithPath(appName, cfgFile)
	if err != nil {
		cli.PrintError("failed to load config: %v", err)
		os.Exit(1)
	}
	initLogging()
}

func initLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func currentContext() (*cli.Context, error) {
	return globalConfig.GetCurrentContext(contextName)
}

// liveURL derives the realtime endpoint from the context, turning the
// https base into a wss one when no explicit live_url is configured.
func liveURL(ctx *cli.Context) string {
	if ctx.LiveURL != "" {
		return ctx.LiveURL
	}
	u := ctx.BaseURL
	u = strings.Replace(u, "https://", "wss://", 1)
	u = strings.Replace(u, "http://", "ws://", 1)
	return strings.TrimRight(u, "/") + "/v1/live"
}

func outputFormat() cli.OutputFormat {
	if outputJSON {
		return cli.FormatJSON
	}
	return cli.FormatYAML
}

// openIdentityStore opens the persisted identity store for this install.
func openIdentityStore() (kv.Store, error) {
	paths, err := cli.NewPaths(appName)
	if err != nil {
		return nil, err
	}
	if err := paths.EnsureDirs(); err != nil {
		return nil, err
	}
	return kv.NewBadger(kv.BadgerOptions{Dir: paths.StateDir()})
}

// newAuthManager builds the token manager for the named context, backed by
// the identity store so credentials survive restarts.
func newAuthManager(ctx *cli.Context, store kv.Store) *auth.Manager {
	return auth.NewManager(auth.Config{
		BaseURL: ctx.BaseURL,
		Store:   store,
		Profile: ctx.Name,
	})
}

// newLiveClient builds the realtime client for an authenticated context.
func newLiveClient(ctx *cli.Context, tokens client.TokenSource, mod func(*client.Config)) *client.Client {
	cfg := client.Config{
		URL:      liveURL(ctx),
		Tokens:   tokens,
		PageSize: ctx.PageSize,
	}
	if mod != nil {
		mod(&cfg)
	}
	return client.New(cfg)
}

// connectLive restores the persisted identity, connects, and waits for the
// server's initialization snapshot.
func connectLive(cmd *cobra.Command, mod func(*client.Config)) (*client.Client, *auth.Manager, func(), error) {
	ctx, err := currentContext()
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := openIdentityStore()
	if err != nil {
		return nil, nil, nil, err
	}
	mgr := newAuthManager(ctx, store)
	if err := mgr.LoadPersisted(cmd.Context()); err != nil {
		store.Close()
		if err == auth.ErrNotAuthenticated {
			return nil, nil, nil, fmt.Errorf("not logged in; run '%s login' first", appName)
		}
		return nil, nil, nil, err
	}

	c := newLiveClient(ctx, mgr, mod)
	// The credential exchange already returned the first session page;
	// seeding it here skips the redundant post-connect fetch.
	if page := mgr.FirstPage(); page != nil {
		c.Sessions().LoadFirstPage(page)
	}
	ready := make(chan struct{})
	c.OnInitialized(func() { close(ready) })
	if err := c.Connect(cmd.Context()); err != nil {
		mgr.Close()
		store.Close()
		return nil, nil, nil, err
	}

	select {
	case <-ready:
	case <-time.After(15 * time.Second):
		cli.PrintWarning("server never finished its initialization snapshot")
	case <-cmd.Context().Done():
		c.Close()
		mgr.Close()
		store.Close()
		return nil, nil, nil, cmd.Context().Err()
	}

	cleanup := func() {
		c.Close()
		mgr.Close()
		store.Close()
	}
	return c, mgr, cleanup, nil
}
