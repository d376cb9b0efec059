package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCanonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "canon <fixture.json>",
		Short: "Canonicalize a fixture module and dump CanonResult diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pr, err := runPipeline(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "nodes:    %d\n", len(pr.canon.Arena.Kinds))
			fmt.Fprintf(cmd.OutOrStdout(), "roots:    %d named, %d methods\n", len(pr.canon.NamedRoots), len(pr.canon.MethodRoots))
			fmt.Fprintf(cmd.OutOrStdout(), "problems: %d\n", len(pr.canon.Problems))

			for _, d := range pr.bag.Items() {
				fmt.Fprintln(cmd.OutOrStdout(), d.String())
			}
			return nil
		},
	}
	return cmd
}
