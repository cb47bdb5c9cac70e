package cmd

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/israelmalagutti/gee/internal/errors"
	"github.com/israelmalagutti/gee/internal/git"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Check the gee directory for problems and fix them",
	Long: `Check every directory of the repository and every branch:

  - offers to abort rebases that were left in progress
  - checks out the right branch in directories that drifted to another one
  - creates a directory for every branch that has none
  - guesses a parent for every branch that has none recorded`,
	Args: cobra.NoArgs,
	RunE: runRepair,
}

func init() {
	rootCmd.AddCommand(repairCmd)
}

func runRepair(cmd *cobra.Command, args []string) (err error) {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.release(&err)

	main := ws.registry.MainRepo()
	repoDir := main.RepoDir()

	ws.log.Infof("Checking each directory in %s...", repoDir)
	entries, err := os.ReadDir(repoDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() || e.Name() == ".gee" {
			continue
		}
		if err := ws.repairDir(filepath.Join(repoDir, e.Name()), e.Name()); err != nil {
			return err
		}
	}

	ws.log.Infof("Checking each branch in the local repository...")
	branches, err := main.ListBranches()
	if err != nil {
		return err
	}
	sort.Strings(branches)
	if err := ws.registry.Refresh(); err != nil {
		return err
	}
	for _, b := range branches {
		if _, err := ws.registry.RootOf(b); err == nil {
			continue
		}
		dir, err := ws.registry.Ensure(b)
		if err != nil {
			ws.log.Warnf("Cannot create a directory for %s: %v", b, err)
			continue
		}
		ws.log.Infof("Created %s for branch %s", dir, b)
	}

	ws.log.Infof("Checking the parents file...")
	guesses := make(map[string]string)
	for _, b := range branches {
		if b == ws.main {
			continue
		}
		_, ok, err := ws.store.Lookup(b)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		ws.log.Warnf("%s is missing \"parent\" metadata.", b)
		parent, err := ws.guessParent(main, b, branches)
		if err != nil {
			return err
		}
		guesses[b] = parent
	}
	// record every guess before checking any, so ChainFor never guesses itself
	for b, parent := range guesses {
		if err := ws.store.SetParent(b, parent); err != nil {
			return err
		}
	}
	for _, b := range branches {
		parent, ok := guesses[b]
		if !ok {
			continue
		}
		if _, err := ws.chains.ChainFor(b); err != nil {
			ws.log.Debugf("guessed parent %s of %s makes a cycle: %v", parent, b, err)
			parent = ws.main
			if err := ws.store.SetParent(b, parent); err != nil {
				return err
			}
		}
		ws.log.Infof("Guessed that %s is the parent of %s", parent, b)
	}

	ws.log.Infof("Done.")
	return nil
}

func (w *workspace) repairDir(dir, name string) error {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		w.log.Warnf("Skipping non-git directory %s", dir)
		return nil
	}
	repo, err := git.OpenRepo(dir)
	if err != nil {
		w.log.Warnf("Skipping %s: %v", dir, err)
		return nil
	}

	if repo.IsRebaseInProgress() {
		w.log.Warnf("Rebase in progress in %s", dir)
		w.log.Lines(repo.RunGitCommandCanFail("status"))
		ok, err := w.confirm("Do you want to abort this rebase operation now?", false)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := repo.AbortRebase(); err != nil || repo.IsRebaseInProgress() {
			return errors.Invariantf("rebase in %s is still in progress after aborting it", dir).Wrapping(err)
		}
	}

	current, err := repo.GetCurrentBranch()
	if err != nil {
		w.log.Warnf("%s is not on any branch.", dir)
		return nil
	}
	if current == name || !repo.BranchExists(name) {
		return nil
	}
	w.log.Warnf("%s pointed to branch %s instead of %s.", dir, current, name)
	if err := repo.Checkout(name); err != nil {
		w.log.Warnf("%v", err)
		return nil
	}
	w.log.Infof("... Fixed.")
	return w.registry.Refresh()
}

// guessParent returns the closest other branch that branch was built on,
// falling back to main.
func (w *workspace) guessParent(repo *git.Repo, branch string, branches []string) (string, error) {
	head, err := repo.RevParse(branch)
	if err != nil {
		return "", err
	}

	best, bestDistance := w.main, -1
	for _, c := range branches {
		if c == branch {
			continue
		}
		sha, err := repo.RevParse(c)
		if err != nil || (sha == head && c != w.main) {
			continue
		}
		if ok, err := repo.IsAncestor(c, branch); err != nil || !ok {
			continue
		}
		distance, _, err := repo.CountAheadBehind(branch, c)
		if err != nil {
			continue
		}
		if bestDistance < 0 || distance < bestDistance || (distance == bestDistance && c == w.main) {
			best, bestDistance = c, distance
		}
	}

	return best, nil
}
