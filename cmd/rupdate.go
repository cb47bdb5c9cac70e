package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/israelmalagutti/gee/internal/errors"
)

var rupdateCmd = &cobra.Command{
	Use:   "rupdate",
	Short: "Rebase this branch and all its ancestors, oldest first",
	Long: `Recursively rebase each branch onto its parent, from the main branch
down to the current branch.

A conflict can happen in an ancestor of the current branch. An ancestor
with uncommitted changes stops the update before anything is rebased onto it.`,
	Aliases: []string{"rup"},
	Args:    cobra.NoArgs,
	RunE:    runRupdate,
}

func init() {
	rootCmd.AddCommand(rupdateCmd)
}

func runRupdate(cmd *cobra.Command, args []string) (err error) {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.release(&err)

	if _, err := ws.resumeStalled(); err != nil {
		return err
	}
	branch, err := ws.requireBranch()
	if err != nil {
		return err
	}

	chain, err := ws.chains.ChainFor(branch)
	if err != nil {
		return err
	}
	ws.log.Debugf("update chain: %s", strings.Join(chain, " "))

	for _, b := range chain {
		parent, err := ws.store.Parent(b)
		if err != nil {
			return err
		}
		ws.log.Banner("Updating branch \"" + b + "\" from \"" + parent + "\"")

		if _, err := ws.rebaseOntoParent(b); err != nil {
			if b != branch && errors.Is(err, errors.ErrUncommittedChanges) {
				return errors.Userf("Branch %s, an ancestor of %s, has uncommitted changes.", b, branch).
					WithHints("Commit branch " + b + " and try again.").
					Wrapping(err)
			}
			return err
		}
	}

	ws.log.Infof("Done.")
	return nil
}
