package main

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// newWatchCommand builds the fsnotify-driven rerun loop: every time the
// fixture file (or the directory holding it, to survive editors that
// write-then-rename rather than write-in-place) changes, the fixture is
// re-canonicalized and re-checked, same as a single `korec check` run.
//
// fsnotify has no precedent elsewhere in this module's corpus, so its
// use here follows the library's own documented Watcher API rather than
// a teacher pattern: NewWatcher, Add a directory, and select over its
// Events/Errors channels.
func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <fixture.json>",
		Short: "Re-run canon/check every time the fixture file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("watch: creating watcher: %w", err)
			}
			defer watcher.Close()

			dir := filepath.Dir(path)
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("watch: watching %s: %w", dir, err)
			}

			runOnce(cmd, path)

			for {
				select {
				case ev, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if filepath.Clean(ev.Name) != filepath.Clean(path) {
						continue
					}
					if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
						continue
					}
					runOnce(cmd, path)
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					fmt.Fprintln(cmd.ErrOrStderr(), "watch:", err)
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				}
			}
		},
	}
	return cmd
}

// runOnce re-runs the pipeline and prints its outcome, swallowing
// errors into stderr rather than returning them — a watch loop keeps
// running after a bad edit, it doesn't exit on the first one.
func runOnce(cmd *cobra.Command, path string) {
	pr, result, err := runMain(path)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
		return
	}
	if pr.bag.HasErrors() {
		for _, d := range pr.bag.Items() {
			fmt.Fprintln(cmd.ErrOrStderr(), d.String())
		}
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ok: %d node(s), %d root(s)\n", len(pr.canon.Arena.Kinds), len(pr.canon.NamedRoots))
	if result != "" {
		fmt.Fprintln(cmd.OutOrStdout(), result)
	}
}
