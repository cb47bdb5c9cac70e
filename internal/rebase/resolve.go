package rebase

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/israelmalagutti/gee/internal/errors"
	"github.com/israelmalagutti/gee/internal/git"
)

type stepOutcome int

const (
	// stepDone means the stopped step was dealt with; look at the rebase again
	stepDone stepOutcome = iota
	stepAborted
	// stepStuck means conflict markers are left and no file is unmerged
	stepStuck
)

// resolveConflicts drives a stopped rebase until it completes or the user
// aborts it. It never returns with the rebase stopped unless it also
// returns an error saying so.
func (e *Engine) resolveConflicts(a *attempt) error {
	for a.repo.IsRebaseInProgress() {
		a.result.transition(ConflictSuspended)
		e.log.Conflict(a.req.Child, a.req.Target())

		outcome, err := e.resolveStep(a)
		if err != nil {
			return err
		}
		switch outcome {
		case stepAborted:
			if err := a.repo.AbortRebase(); err != nil {
				a.result.transition(Failed)
				return fmt.Errorf("failed to abort the rebase of %s: %w", a.req.Child, err)
			}
			a.result.transition(Aborted)
			return errors.Userf("Rebase of %s aborted.", a.req.Child).
				WithHints(fmt.Sprintf("%s was restored; %s still holds the old head.", a.req.Child, a.result.Backup)).
				Wrapping(errors.ErrRebaseAborted)
		case stepStuck:
			return errors.Userf("Conflict markers remain in %s.", a.repo.GetWorkDir()).
				WithHints(a.repo.ConflictMarkers()...).
				WithHints("Fix them, stage the files, and run: gee continue").
				Wrapping(errors.ErrRebaseStalled)
		}
		a.result.transition(Attempting)
	}
	return nil
}

// resolveStep handles one stopped commit of the rebase
func (e *Engine) resolveStep(a *attempt) (stepOutcome, error) {
	repo := a.repo
	entries, err := repo.Status()
	if err != nil {
		return stepDone, err
	}

	from := repo.RebaseHead()
	e.log.Banner(
		"Attempting to apply: "+repo.Describe(from),
		"onto:                "+repo.Describe("HEAD"),
	)

	if len(entries) == 0 {
		// the commit became empty, e.g. it was already applied upstream
		e.log.Infof("Nothing left to apply from %s; skipping it.", repo.Describe(from))
		if err := repo.SkipRebase(); err != nil && repo.RebaseHead() == from {
			return stepDone, fmt.Errorf("failed to skip %s: %w", from, err)
		}
		return stepDone, nil
	}

	for _, entry := range entries {
		if !entry.IsUnmerged() {
			continue
		}
		c := Conflict{
			Path:  entry.Path,
			Code:  entry.Code,
			Label: ConflictLabel(entry.Code),
			From:  from,
			Onto:  "HEAD",
		}
		outcome, resolved, err := e.resolveFile(a, c)
		if err != nil {
			return stepDone, err
		}
		if !resolved {
			return outcome, nil
		}
	}

	if markers := repo.ConflictMarkers(); len(markers) > 0 {
		e.log.Warnf("Conflict markers remain:")
		e.log.Lines(markers...)
		if e.hasUnmerged(repo) {
			return stepDone, nil
		}
		return stepStuck, nil
	}

	if err := repo.AddAll(); err != nil {
		return stepDone, err
	}
	if err := repo.ContinueRebase(); err != nil && !repo.IsRebaseInProgress() {
		return stepDone, errors.Invariantf("git rebase --continue failed with no rebase left in progress").
			Observed(err.Error()).Wrapping(err)
	}
	return stepDone, nil
}

func (e *Engine) hasUnmerged(repo *git.Repo) bool {
	entries, err := repo.Status()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry.IsUnmerged() {
			return true
		}
	}
	return false
}

// resolveFile prompts until the file is resolved. When it returns
// resolved == false the whole step ended and outcome says how.
func (e *Engine) resolveFile(a *attempt, c Conflict) (stepOutcome, bool, error) {
	repo := a.repo
	for {
		action, err := e.prompt.Choose(c)
		if err != nil {
			return stepDone, false, err
		}

		switch action {
		case KeepOld:
			return stepDone, true, e.takeSide(repo, "--ours", c.Path)

		case KeepNew:
			return stepDone, true, e.takeSide(repo, "--theirs", c.Path)

		case MergeTool, GUIMergeTool:
			tool := ""
			if action == GUIMergeTool {
				tool = e.guiMergeTool(repo)
			}
			if err := e.tools.MergeTool(repo, c.Path, tool); err != nil {
				e.log.Warnf("Merge tool failed: %v", err)
				continue
			}
			if fileHasConflictMarkers(filepath.Join(repo.GetWorkDir(), c.Path)) {
				e.log.Warnf("%s still contains conflict markers.", c.Path)
				continue
			}
			return stepDone, true, repo.AddPath(c.Path)

		case Restart:
			ok, err := e.prompt.Confirm("Abort this rebase and restart it as an interactive rebase?", false)
			if err != nil {
				return stepDone, false, err
			}
			if !ok {
				continue
			}
			if err := repo.AbortRebase(); err != nil {
				return stepDone, false, fmt.Errorf("failed to abort the rebase of %s: %w", a.req.Child, err)
			}
			opts := git.RebaseOptions{Branch: a.req.Child, Upstream: a.upstream}
			if a.req.Onto != "" {
				opts.Onto = a.target
			}
			// a conflict during the interactive rebase is picked up by the caller's loop
			if err := repo.RebaseInteractive(opts); err != nil {
				e.log.Warnf("Interactive rebase stopped: %v", err)
			}
			return stepDone, false, nil

		case Shell:
			if err := e.tools.Shell(repo.GetWorkDir(), shellHelp(a)); err != nil {
				return stepDone, false, err
			}
			return stepDone, false, nil

		case ViewPatch:
			if err := e.tools.ViewPatch(repo, c.From); err != nil {
				e.log.Warnf("Cannot show %s: %v", c.From, err)
			}

		case Skip:
			if err := repo.SkipRebase(); err != nil && repo.RebaseHead() == c.From {
				return stepDone, false, fmt.Errorf("failed to skip %s: %w", c.From, err)
			}
			return stepDone, false, nil

		case Abort:
			return stepAborted, false, nil

		default:
			return stepDone, false, errors.Invariantf("unknown conflict action %d", action)
		}
	}
}

// takeSide resolves path with one side's content. A side that deleted the
// file resolves by deleting it.
func (e *Engine) takeSide(repo *git.Repo, side, path string) error {
	if err := repo.CheckoutSide(side, path); err != nil {
		e.log.Debugf("%s has no %s version, removing it: %v", path, side, err)
		return repo.RemovePath(path)
	}
	return repo.AddPath(path)
}

func (e *Engine) guiMergeTool(repo *git.Repo) string {
	if tool := repo.GetConfig("merge.guitool"); tool != "" {
		return tool
	}
	return e.opts.GUIMergeTool
}

func shellHelp(a *attempt) []string {
	return []string{
		"",
		fmt.Sprintf("You are in a shell in the middle of rebasing %s onto %s.", a.req.Child, a.req.Target()),
		"Useful commands:",
		"  git status                 see what is conflicted",
		"  git add <file>             mark a file resolved",
		"  git rebase --continue      apply the remaining commits",
		"  git rebase --skip          drop the commit being applied",
		"  git rebase --abort         give up and restore " + a.req.Child,
		"Exit the shell to go back to gee.",
		"",
	}
}

// fileHasConflictMarkers scans a file for an unresolved conflict hunk
func fileHasConflictMarkers(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	start, end := false, false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "<<<<<<< "), line == "<<<<<<<":
			start = true
		case strings.HasPrefix(line, ">>>>>>> "), line == ">>>>>>>":
			end = true
		}
	}
	return start && end
}
