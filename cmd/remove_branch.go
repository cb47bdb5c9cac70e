package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/israelmalagutti/gee/internal/errors"
)

var removeBranchCmd = &cobra.Command{
	Use:   "remove_branch [branch]",
	Short: "Delete a branch, its directory and its origin copy",
	Long: `Delete a branch together with its worktree directory and its copy on
origin. Children of the branch become children of its parent.

If no branch is specified, removes the current branch. Asks first when the
branch has commits that are not in the main branch, or uncommitted changes.`,
	Aliases: []string{"rmbr"},
	Args:    cobra.MaximumNArgs(1),
	RunE:    runRemoveBranch,
}

func init() {
	rootCmd.AddCommand(removeBranchCmd)
}

func runRemoveBranch(cmd *cobra.Command, args []string) (err error) {
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
		return errors.Userf("Must specify a branch name to remove.")
	}
	if branch == ws.main {
		return errors.Userf("Refusing to remove the main branch %s.", ws.main)
	}

	main := ws.registry.MainRepo()
	if !main.BranchExists(branch) {
		if _, ok, err := ws.store.Lookup(branch); err == nil && ok {
			ws.log.Infof("Branch %s no longer exists; forgetting its parent.", branch)
			return ws.store.Remove(branch)
		}
		return errors.Userf("Branch %s does not exist.", branch)
	}

	ws.log.Banner("Deleting " + branch)

	counts, err := ws.divergence.AheadBehind(ws.main, branch)
	if err != nil {
		return err
	}
	if counts.Behind > 0 {
		ws.log.Warnf("Branch %q is %d commit(s) ahead of %s.", branch, counts.Behind, ws.main)
		if err := ws.confirmOrStop(fmt.Sprintf("Are you sure you want to force-remove branch %s?", branch)); err != nil {
			return err
		}
	}

	dir, dirErr := ws.registry.RootOf(branch)
	if dirErr == nil {
		repo, err := main.At(dir)
		if err != nil {
			return err
		}
		changes, err := repo.UncommittedChanges()
		if err != nil {
			return err
		}
		if len(changes) > 0 {
			ws.log.Warnf("Branch %q contains uncommitted changes.", branch)
			if err := ws.confirmOrStop(fmt.Sprintf("Are you sure you want to force-remove branch %s?", branch)); err != nil {
				return err
			}
		}
	}

	sha, err := main.RevParse(branch)
	if err != nil {
		return err
	}

	if dirErr == nil {
		if err := main.RemoveWorktree(dir); err != nil {
			return err
		}
		if err := ws.registry.Refresh(); err != nil {
			return err
		}
	}
	if err := main.DeleteBranch(branch, true); err != nil {
		return err
	}

	origin := ws.cfg.OriginRemote
	if main.HasRemote(origin) && main.RemoteBranchExists(origin, branch) {
		if err := main.DeleteRemoteBranch(origin, branch); err != nil {
			ws.log.Warnf("%v", err)
		}
	} else {
		ws.log.Infof("Not deleting remote branch %s: was never created.", branch)
	}

	if err := ws.store.Remove(branch); err != nil {
		return err
	}

	ws.log.Deleted(branch)
	ws.log.Infof("To undo: gee make_branch %s %s", branch, sha)
	if dirErr == nil && ws.current == branch {
		ws.log.Tipf("cd %s", main.GetWorkDir())
	}
	return nil
}

// confirmOrStop asks a question that defaults to no, and stops the command
// unless the answer is yes.
func (w *workspace) confirmOrStop(message string) error {
	ok, err := w.confirm(message, false)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Userf("Stopped; nothing was changed.")
	}
	w.log.Infof("As you wish.")
	return nil
}
