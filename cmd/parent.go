package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/israelmalagutti/gee/internal/errors"
)

var setParentBranch string

var getParentCmd = &cobra.Command{
	Use:   "get_parent [branch]",
	Short: "Show which branch this branch is branched from",
	Long: `Show the parent branch of the specified branch.

If no branch is specified, shows the parent of the current branch.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGetParent,
}

var setParentCmd = &cobra.Command{
	Use:   "set_parent <parent>",
	Short: "Set another branch as parent of this branch",
	Long: `gee keeps track of which branch each branch is branched from. This
command changes the parent of the current branch (or of --branch).

Run "gee update" afterwards to move the branch onto its new parent.

The parent can be a local branch or an upstream ref such as
upstream/refs/pull/123/head. A parent that would make the branch its own
ancestor is rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: runSetParent,
}

func init() {
	setParentCmd.Flags().StringVarP(&setParentBranch, "branch", "b", "", "Branch to reparent (default: current branch)")
	rootCmd.AddCommand(getParentCmd)
	rootCmd.AddCommand(setParentCmd)
}

func runGetParent(cmd *cobra.Command, args []string) (err error) {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.release(&err)

	branch := ws.current
	if len(args) > 0 {
		branch = args[0]
	}
	if branch == "" {
		return errors.Userf("Not in a branch directory; name the branch.")
	}

	parent, err := ws.store.Parent(branch)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is the parent branch of %s\n", parent, branch)
	return nil
}

func runSetParent(cmd *cobra.Command, args []string) (err error) {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.release(&err)

	branch := setParentBranch
	if branch == "" {
		if branch, err = ws.requireBranch(); err != nil {
			return err
		}
	}
	parent := args[0]

	main := ws.registry.MainRepo()
	if ws.store.IsUpstream(branch) {
		return errors.Userf("%s is an upstream ref; only local branches have a recorded parent.", branch)
	}
	if branch == ws.main {
		return errors.Userf("The parent of %s is always %s.", ws.main, ws.store.UpstreamMain())
	}
	if !ws.store.IsUpstream(parent) && !main.BranchExists(parent) {
		return errors.Userf("Branch %s does not exist.", parent)
	}

	previous, err := ws.store.Parent(branch)
	if err != nil {
		return err
	}
	if err := ws.store.SetParent(branch, parent); err != nil {
		return err
	}
	if _, err := ws.chains.ChainFor(branch); err != nil {
		if restoreErr := ws.store.SetParent(branch, previous); restoreErr != nil {
			return restoreErr
		}
		if errors.Is(err, errors.ErrParentageCycle) {
			return errors.Userf("%s descends from %s; it cannot be its parent.", parent, branch).Wrapping(errors.ErrParentageCycle)
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s is the parent branch of %s\n", parent, branch)
	return nil
}
