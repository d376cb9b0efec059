// Command korec drives the korelang compiler core's canonicalizer and
// evaluator from the command line over a JSON fixture (see fixture.go),
// since lexing and parsing a real .kore source file are out of scope
// for this module.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/korelang/korec/internal/config"
	"github.com/korelang/korec/internal/corelog"
)

func main() {
	os.Exit(run())
}

// run builds the root command, executes it, and returns the process
// exit code — grounded on the teacher's own main(), which also resists
// calling os.Exit from inside Execute's RunE so deferred cleanup (here,
// none yet, but future subcommands may open files) still runs.
func run() int {
	cfg := config.Default()

	rootCmd := &cobra.Command{
		Use:           "korec",
		Short:         "korelang compiler core: canonicalize, check, and watch fixture modules",
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = corelog.New(cfg.Verbosity)
		},
	}
	config.RegisterFlags(rootCmd.PersistentFlags(), &cfg)

	rootCmd.AddCommand(newCanonCommand(), newCheckCommand(), newWatchCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
