package cmd

import (
	"github.com/spf13/cobra"

	"github.com/israelmalagutti/gee/internal/errors"
	"github.com/israelmalagutti/gee/internal/git"
	"github.com/israelmalagutti/gee/internal/rebase"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Rebase this branch onto its parent",
	Long: `Rebase the current branch onto its parent branch.

If origin/<branch> has commits the local branch lacks, gee offers to
integrate them first. When the parent is the main branch, main is updated
from upstream before the rebase.

If a conflict occurs, gee walks you through each conflicting file. A
rebase left stopped in this directory by an earlier run is resumed instead.`,
	Aliases: []string{"up"},
	Args:    cobra.NoArgs,
	RunE:    runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) (err error) {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.release(&err)

	resumed, err := ws.resumeStalled()
	if err != nil {
		return err
	}
	if resumed != "" {
		ws.log.Infof("Done.")
		return nil
	}

	branch, err := ws.requireBranch()
	if err != nil {
		return err
	}

	if err := ws.integrateMirror(ws.repo, branch); err != nil {
		return err
	}

	parent, err := ws.store.Parent(branch)
	if err != nil {
		return err
	}
	if parent == ws.main {
		if _, err := ws.rebaseOntoParent(ws.main); err != nil {
			return err
		}
	}
	if _, err := ws.rebaseOntoParent(branch); err != nil {
		return err
	}

	ws.log.Infof("Done.")
	return nil
}

// rebaseOntoParent rebases branch onto its recorded parent
func (w *workspace) rebaseOntoParent(branch string) (*rebase.Result, error) {
	parent, err := w.store.Parent(branch)
	if err != nil {
		return nil, err
	}
	return w.engine.Rebase(rebase.Request{Child: branch, Parent: parent})
}

// integrateMirror offers to pull in commits that exist only on the origin
// copy of branch, e.g. pushed from another machine.
func (w *workspace) integrateMirror(repo *git.Repo, branch string) error {
	origin := w.cfg.OriginRemote
	if !repo.HasRemote(origin) || !repo.RemoteBranchExists(origin, branch) {
		return nil
	}
	if err := repo.Fetch(origin); err != nil {
		return err
	}
	behind, err := w.divergence.MirrorAhead(branch)
	if err != nil || behind == 0 {
		return err
	}

	mirror := w.divergence.MirrorRef(branch)
	w.log.Warnf("Remote branch %s is %d commit(s) ahead of %s.", mirror, behind, branch)
	w.log.Lines(
		"There are two likely causes. Either:",
		"",
		"* you or another user pushed commits into this branch from another branch",
		"  or machine, in which case you probably want to integrate these changes, or",
		"",
		"* you rebased your local branch but did not force-push it to "+origin+",",
		"  in which case you should force-push instead of integrating.",
	)
	ok, err := w.confirm("Do you want to integrate changes from "+mirror+"?", true)
	if err != nil {
		return err
	}
	if !ok {
		w.log.Infof("You may need to \"git push -u %s --force\" to fix your %s remote.", origin, origin)
		return nil
	}

	head, _ := repo.RevParse(branch)
	w.log.Infof("Pulling in changes from %s", mirror)
	w.log.Infof("Old head commit before rebase: %s", head)
	if err := repo.Rebase(git.RebaseOptions{Branch: branch, Upstream: mirror}); err != nil {
		if repo.IsRebaseInProgress() {
			return errors.Userf("Integrating %s into %s stopped on a conflict.", mirror, branch).
				WithHints("Resolve it in "+repo.GetWorkDir()+" and run: gee continue",
					"Or give up with: git rebase --abort").
				Wrapping(errors.ErrRebaseStalled)
		}
		return err
	}
	return nil
}
