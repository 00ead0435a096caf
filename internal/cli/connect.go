package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"finfeed/internal/simplefin"
)

// ConnectOptions holds flags for the connect command.
type ConnectOptions struct {
	*RootOptions
	AccessURL string
}

// NewConnectCommand creates the connect command.
func NewConnectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConnectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Store SimpleFIN Bridge credentials",
		Long: `Store the access URL issued by a SimpleFIN Bridge so that
"finfeed ingest --source simplefin" can pull transactions. The URL
embeds credentials and is saved with owner-only permissions under
import/state/.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConnect(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.AccessURL, "access-url", "", "SimpleFIN access URL (required)")
	_ = cmd.MarkFlagRequired("access-url")

	return cmd
}

func runConnect(cmd *cobra.Command, opts *ConnectOptions) error {
	layout, err := opts.Layout()
	if err != nil {
		return err
	}

	if err := simplefin.SaveAccessURL(layout.StateDir, opts.AccessURL); err != nil {
		return WrapExitError(ExitCommandError, "failed to store access url", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "SimpleFIN access stored. Try `finfeed ingest --source simplefin`.")
	return nil
}
