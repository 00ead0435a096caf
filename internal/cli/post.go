package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"finfeed/internal/promote"
)

// PostOptions holds flags for the post command.
type PostOptions struct {
	*RootOptions
	DryRun bool
}

// NewPostCommand creates the post command.
func NewPostCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PostOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Promote staged entries into permanent dated storage",
		Long: `Promote everything in journal/staging into journal/postings,
partitioned by the transaction dates the entries actually carry, then
regenerate main.journal's include manifest. Append-only: promoted
months accumulate across runs. With --dry-run the planned moves are
printed and nothing is touched.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report intended moves without touching any file")

	return cmd
}

func runPost(cmd *cobra.Command, opts *PostOptions) error {
	layout, err := opts.Layout()
	if err != nil {
		return err
	}

	engine := &promote.Engine{
		StagingDir:  layout.StagingDir,
		PostingsDir: layout.PostingsDir,
		MainJournal: layout.MainJournal,
	}

	res, err := engine.Run(opts.DryRun)
	if err != nil {
		return WrapExitError(ExitFailure, "promotion failed", err)
	}

	w := cmd.OutOrStdout()
	if len(res.Moves) == 0 {
		fmt.Fprintln(w, "Nothing staged, nothing to promote.")
		return nil
	}

	if res.DryRun {
		fmt.Fprintf(w, "Dry run: %d moves planned.\n", len(res.Moves))
	} else {
		fmt.Fprintf(w, "Promoted %d moves, manifest lists %d files.\n",
			len(res.Moves), len(res.ManifestFiles))
	}
	for _, mv := range res.Moves {
		fmt.Fprintf(w, "  %s [%s] -> %s\n", mv.StagedFile, mv.Month, mv.Dest)
	}
	return nil
}
