package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <fixture.json>",
		Short: "Canonicalize a fixture module and exit non-zero if it has diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pr, result, err := runMain(args[0])
			if err != nil {
				return err
			}
			if pr.bag.HasErrors() {
				for _, d := range pr.bag.Items() {
					fmt.Fprintln(cmd.ErrOrStderr(), d.String())
				}
				cmd.SilenceUsage = true
				return fmt.Errorf("found %d diagnostic(s)", len(pr.bag.Items()))
			}
			if result != "" {
				fmt.Fprintln(cmd.OutOrStdout(), result)
			}
			return nil
		},
	}
	return cmd
}
