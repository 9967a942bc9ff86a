package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aretw0/padnote"
	"github.com/aretw0/padnote/pkg/config"
	"github.com/aretw0/padnote/pkg/session"
)

const (
	keyConfigDir      = "config-dir"
	keyVerbose        = "verbose"
	keyAction         = "action"
	keyForwardTimeout = "forward-timeout"
	keyDevSafety      = "dev-safety"
)

// settings binds flags and PADNOTE_* environment variables.
var settings = viper.New()

// rootCmd starts the session, or forwards its action to the running one.
var rootCmd = &cobra.Command{
	Use:   "padnote",
	Short: "A sticky-note manager backed by plain files",
	Long: `Padnote keeps sticky notes as .txt and .png files in a notes directory,
with their positions and styles in a profiles document next to the preferences.

Only one padnote runs per user. Starting it again sends the --action to the
running session and exits.`,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if settings.GetBool(keyVerbose) {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
	Run: func(cmd *cobra.Command, args []string) {
		dir := configDir()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		coord := session.New(config.SocketPath(dir),
			session.WithLogger(slog.Default()),
			session.WithForwardTimeout(settings.GetDuration(keyForwardTimeout)),
		)
		outcome, err := coord.Run(ctx, session.ActionArgs(settings.GetString(keyAction)),
			padnote.Boot(dir, options()...),
		)
		if err != nil {
			fatal("Session failed", err)
		}
		slog.Debug("padnote finished", "outcome", outcome)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().

// configDir resolves the configuration directory or exits.
func configDir() string {
	dir, err := padnote.ResolveConfigDir(settings.GetString(keyConfigDir), options()...)
	if err != nil {
		fatal("Failed to resolve config dir", err)
	}
	return dir
}

func options() []padnote.Option {
	return []padnote.Option{
		padnote.WithLogger(slog.Default()),
		padnote.WithDevSafety(settings.GetBool(keyDevSafety)),
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String(keyConfigDir, "", "Configuration directory (env PADNOTE_CONFIG_DIR)")
	flags.BoolP(keyVerbose, "v", false, "Enable verbose logging")
	flags.Bool(keyDevSafety, true, "Keep `go run` sessions in a temporary sandbox")
	rootCmd.Flags().StringP(keyAction, "a", "", "Action to run, e.g. \"New note\" or \"Toggle actives\"")
	rootCmd.Flags().Duration(keyForwardTimeout, session.DefaultForwardTimeout, "How long to wait for a running session")

	if err := settings.BindPFlags(flags); err != nil {
		panic(err)
	}
	if err := settings.BindPFlags(rootCmd.Flags()); err != nil {
		panic(err)
	}
	settings.SetEnvPrefix("PADNOTE")
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()
}
