package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"finfeed/internal/rules"
)

// NewRulesCommand creates the rules command group.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage payee and account categorization rules",
		Long: `Add categorization rules. Payee rules rewrite raw bank descriptions
into clean names (case-insensitive regex, first match wins); account
rules assign an account to a clean payee (case-insensitive exact
match). Both files are rewritten wholesale on every change.

Example:
  finfeed rules add-payee "TRADER JOE" "Trader Joe's"
  finfeed rules add-account "Trader Joe's" Expenses:Groceries`,
	}

	cmd.AddCommand(newAddPayeeCommand(rootOpts))
	cmd.AddCommand(newAddAccountCommand(rootOpts))

	return cmd
}

func newAddPayeeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "add-payee <pattern> <name>",
		Short:         "Add a payee-cleaning rule",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return addRule(cmd, rootOpts, func(rs *rules.RuleSet) (*rules.RuleSet, error) {
				return rs.WithPayeeRule(rules.PayeeRule{Pattern: args[0], Name: args[1]})
			})
		},
	}
}

func newAddAccountCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "add-account <payee> <account>",
		Short:         "Add a payee-to-account rule",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return addRule(cmd, rootOpts, func(rs *rules.RuleSet) (*rules.RuleSet, error) {
				return rs.WithAccountRule(rules.AccountRule{Payee: args[0], Account: args[1]})
			})
		},
	}
}

func addRule(cmd *cobra.Command, rootOpts *RootOptions, add func(*rules.RuleSet) (*rules.RuleSet, error)) error {
	layout, err := rootOpts.Layout()
	if err != nil {
		return err
	}

	rs, err := rules.Load(layout.RulesDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load rules", err)
	}

	updated, err := add(rs)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid rule", err)
	}

	if err := rules.Save(layout.RulesDir, updated); err != nil {
		return WrapExitError(ExitFailure, "failed to save rules", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Rules saved: %d payee, %d account.\n",
		len(updated.PayeeRules), len(updated.AccountRules))
	return nil
}
