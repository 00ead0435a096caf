package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"finfeed/internal/journal"
)

// ReviewOptions holds flags for the review command.
type ReviewOptions struct {
	*RootOptions
	Uncategorized bool
}

// NewReviewCommand creates the review command.
func NewReviewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReviewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "review",
		Short: "List staged entries awaiting promotion",
		Long: `List everything currently staged, with the account each entry was
categorized into. Use --uncategorized to see only the entries that
still need an account rule; add rules with "finfeed rules" and
re-ingest, or edit the staged files directly, before posting.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReview(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Uncategorized, "uncategorized", false, "show only entries without an account rule")

	return cmd
}

func runReview(cmd *cobra.Command, opts *ReviewOptions) error {
	layout, err := opts.Layout()
	if err != nil {
		return err
	}

	entries, err := journal.ParseStagingDir(layout.StagingDir)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to parse staging files", err)
	}

	uncategorized := 0
	shown := entries[:0:0]
	for _, e := range entries {
		if e.Uncategorized() {
			uncategorized++
		}
		if opts.Uncategorized && !e.Uncategorized() {
			continue
		}
		shown = append(shown, e)
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(w, "Nothing staged.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tPAYEE\tAMOUNT\tACCOUNT\tFILE")
	for _, e := range shown {
		fmt.Fprintf(tw, "%s\t%s\t$%s\t%s\t%s\n", e.Date, e.Payee, e.Amount, e.Account, e.File)
	}
	if err := tw.Flush(); err != nil {
		return WrapExitError(ExitFailure, "failed to render table", err)
	}

	fmt.Fprintf(w, "\n%d staged, %d uncategorized.\n", len(entries), uncategorized)
	return nil
}
