package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/israelmalagutti/gee/internal/colors"
)

var continueCmd = &cobra.Command{
	Use:   "continue",
	Short: "Resume a rebase that stopped on a conflict",
	Long: `Pick up a rebase that is stopped in the current branch directory, for
example after gee was interrupted while resolving a conflict.

gee walks through the remaining conflicts, then verifies the result,
records it and backs the branch up to origin as a normal update would.

Example:
  # after fixing files by hand:
  git add .
  gee continue`,
	Args: cobra.NoArgs,
	RunE: runContinue,
}

func init() {
	rootCmd.AddCommand(continueCmd)
}

func runContinue(cmd *cobra.Command, args []string) (err error) {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.release(&err)

	if !ws.repo.IsRebaseInProgress() {
		fmt.Fprintln(cmd.OutOrStdout(), colors.Muted("No rebase in progress."))
		return nil
	}

	res, err := ws.engine.Resume(ws.repo)
	if err != nil {
		return err
	}

	children, err := ws.store.AllChildrenOf(res.Child)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		ws.log.Tipf("%s has child branches; run gee update_all to move them along.", res.Child)
	}
	return nil
}
