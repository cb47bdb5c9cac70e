package cmd

import (
	"github.com/spf13/cobra"

	"github.com/israelmalagutti/gee/internal/errors"
	"github.com/israelmalagutti/gee/internal/git"
)

var makeBranchCmd = &cobra.Command{
	Use:   "make_branch <branch> [<commit-ish>]",
	Short: "Create a child branch of the current branch",
	Long: `Create a new branch based on the current branch, checked out in its own
directory next to the main checkout:

  <repo>/<branch>

The current branch is recorded as the parent of the new branch. If
<commit-ish> is given, the new branch is reset to that revision. If origin
already has a branch with that name, its commits are pulled in.

Example:
  gee make_branch fix-login
  gee mkbr hotfix v1.2.0`,
	Aliases: []string{"mkbr"},
	Args:    cobra.RangeArgs(1, 2),
	RunE:    runMakeBranch,
}

func init() {
	rootCmd.AddCommand(makeBranchCmd)
}

func runMakeBranch(cmd *cobra.Command, args []string) (err error) {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.release(&err)

	name := args[0]
	main := ws.registry.MainRepo()
	if main.BranchExists(name) {
		return errors.Userf("Branch %s already exists.", name)
	}
	if !main.IsValidBranchName(name) {
		return errors.Userf("%q is not a valid branch name.", name)
	}
	if ws.store.IsUpstream(name) {
		return errors.Userf("Branch %s would be mistaken for a branch of the %s remote.", name, ws.cfg.UpstreamRemote)
	}

	parent := ws.current
	if parent == "" {
		parent = ws.main
	}
	parentDir, err := ws.registry.Ensure(parent)
	if err != nil {
		return err
	}
	parentRepo, err := git.OpenRepo(parentDir)
	if err != nil {
		return err
	}

	path := ws.registry.DefaultPath(name)
	if err := parentRepo.AddWorktree(path, name, true, parent); err != nil {
		return err
	}
	if err := ws.registry.Refresh(); err != nil {
		return err
	}
	ws.log.Created(name, parent, path)

	if err := ws.store.SetParent(name, parent); err != nil {
		return err
	}

	repo, err := git.OpenRepo(path)
	if err != nil {
		return err
	}
	if len(args) > 1 {
		ws.log.Infof("Setting HEAD of branch %q to %q", name, args[1])
		if err := repo.ResetHard(args[1]); err != nil {
			return err
		}
	}

	origin := ws.cfg.OriginRemote
	if repo.HasRemote(origin) && repo.RemoteBranchExists(origin, name) {
		if err := repo.PullRebase(origin, name); err != nil {
			return errors.Userf("Failed to pull %s/%s into %s.", origin, name, name).
				WithHints("Resolve it in " + path).
				Wrapping(err)
		}
		ws.log.Infof("Pulled in changes from %s/%s", origin, name)
	}

	ws.log.Tipf("cd %s", path)
	return nil
}
