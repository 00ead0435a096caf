// Package cli wires the ingestion pipeline into the finfeed command
// tree.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"finfeed/internal/config"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	// Root overrides project-root discovery when non-empty.
	Root string

	Verbose bool
}

// Layout resolves the ledger tree layout for the current invocation.
func (o *RootOptions) Layout() (config.Layout, error) {
	layout, err := config.Resolve(o.Root)
	if err != nil {
		return config.Layout{}, WrapExitError(ExitCommandError, "failed to resolve project root", err)
	}
	return layout, nil
}

// NewRootCommand creates the root command for the finfeed CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "finfeed",
		Short: "finfeed - bank exports into a plain-text ledger",
		Long: `finfeed ingests bank exports (CSV files, the SimpleFIN Bridge API),
normalizes and deduplicates them, applies categorization rules, and
accumulates the results into an append-only hledger-style journal via
two-phase commit: ingest stages entries, post promotes them.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel := slog.LevelInfo
			if opts.Verbose {
				logLevel = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			})
			slog.SetDefault(slog.New(handler))
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Root, "root", "", "project root (default: $FINFEED_ROOT or upward search)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewIngestCommand(opts))
	cmd.AddCommand(NewPostCommand(opts))
	cmd.AddCommand(NewReviewCommand(opts))
	cmd.AddCommand(NewRulesCommand(opts))
	cmd.AddCommand(NewConnectCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))

	return cmd
}
