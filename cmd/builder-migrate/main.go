package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var version = "dev"

// errFindings makes the process exit non-zero without printing anything.
var errFindings = errors.New("closure-style builders found")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errFindings) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "builder-migrate",
		Short:         "Migrate serenity 0.11 closure-style builders to 0.12 builder values",
		Long:          `builder-migrate finds closure-style builders in Rust sources and rewrites them into the builder-value style of serenity 0.12.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupGlobals(cmd)
		},
	}

	root.PersistentFlags().Bool("verbose", false, "enable debug logging")
	root.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	root.PersistentFlags().String("config", "", "config file (default: <project>/.buildermigrate.yml)")
	root.PersistentFlags().Bool("strict", true, "require closure chain receivers to resolve to a builder type")
	root.PersistentFlags().Bool("multiline", false, "put each setter call on its own line")
	root.PersistentFlags().String("db", "", "suggestion database (default: ~/.cache/builder-migrate/suggestions.db)")

	root.AddCommand(
		newCheckCmd(),
		newFixCmd(),
		newScanCmd(),
		newSuggestionsCmd(),
		newServeCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)
	return root
}

// setupGlobals installs the stderr log handler and the color mode.
func setupGlobals(cmd *cobra.Command) error {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return err
	}
	switch mode {
	case "auto":
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("unknown color mode %q (want auto, on or off)", mode)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "builder-migrate", version)
		},
	}
}
