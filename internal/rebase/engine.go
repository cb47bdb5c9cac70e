// Package rebase moves branches onto their parents, one branch at a time,
// stopping for the user when git cannot replay a commit on its own.
package rebase

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/israelmalagutti/gee/internal/colors"
	"github.com/israelmalagutti/gee/internal/errors"
	"github.com/israelmalagutti/gee/internal/gh"
	"github.com/israelmalagutti/gee/internal/git"
	"github.com/israelmalagutti/gee/internal/parentage"
	"github.com/israelmalagutti/gee/internal/worktree"
)

// PullRequestChecker finds open pull requests for a branch
type PullRequestChecker interface {
	OpenPullRequests(branch string) ([]gh.PullRequest, error)
}

// Options tunes an Engine
type Options struct {
	UpstreamRemote string
	OriginRemote   string
	// GUIMergeTool is used when merge.guitool is not configured
	GUIMergeTool string
}

// Engine rebases branches living in their own worktrees
type Engine struct {
	registry *worktree.Registry
	store    *parentage.Store
	prs      PullRequestChecker
	prompt   Prompter
	tools    Tools
	log      *colors.Splog
	opts     Options
}

// Deps are the collaborators of an Engine. PullRequests may be nil.
type Deps struct {
	Registry     *worktree.Registry
	Store        *parentage.Store
	PullRequests PullRequestChecker
	Prompter     Prompter
	Tools        Tools
	Log          *colors.Splog
}

// NewEngine creates an Engine
func NewEngine(deps Deps, opts Options) *Engine {
	if deps.Log == nil {
		deps.Log = colors.NewSplog()
	}
	if deps.Tools == nil {
		deps.Tools = TerminalTools{}
	}
	if deps.Prompter == nil {
		deps.Prompter = AutoPrompter{Log: deps.Log}
	}
	if opts.UpstreamRemote == "" {
		opts.UpstreamRemote = "upstream"
	}
	if opts.OriginRemote == "" {
		opts.OriginRemote = "origin"
	}
	return &Engine{
		registry: deps.Registry,
		store:    deps.Store,
		prs:      deps.PullRequests,
		prompt:   deps.Prompter,
		tools:    deps.Tools,
		log:      deps.Log,
		opts:     opts,
	}
}

// attempt is a rebase underway in one worktree
type attempt struct {
	req  Request
	repo *git.Repo
	// upstream is the resolved Parent, target the commit Child must end up on
	upstream string
	target   string
	result   *Result
}

// Rebase replays req.Child onto its parent (or req.Onto), resolving
// conflicts with the Prompter, then verifies, records and pushes the result.
// A declined open pull request gate returns a Skipped result and no error.
func (e *Engine) Rebase(req Request) (*Result, error) {
	res := newResult(req.Child)

	proceed, err := e.checkOpenPullRequests(req.Child)
	if err != nil {
		return res, err
	}
	if !proceed {
		e.log.Warnf("Skipped update of branch %s.", req.Child)
		res.Skipped = true
		return res, nil
	}

	// branch information disappears from the worktree list while a rebase
	// is in progress, so look it up first
	if err := e.registry.Refresh(); err != nil {
		return res, err
	}
	repo, err := e.registry.RepoFor(req.Child)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			// a stopped rebase detaches HEAD, hiding the branch from the list
			if stalled, serr := git.OpenRepo(e.registry.DefaultPath(req.Child)); serr == nil && stalled.IsRebaseInProgress() {
				return res, e.checkClean(stalled, req.Child)
			}
			return res, errors.Userf("Branch %s has no working directory.", req.Child).
				WithHints("Run: gee repair").Wrapping(err)
		}
		return res, err
	}

	if err := e.checkClean(repo, req.Child); err != nil {
		return res, err
	}
	upstream := e.store.IsUpstream(req.Parent)
	if upstream && req.Onto != "" {
		return res, errors.Userf("Cannot rebase %s onto %s: %s is an upstream branch.", req.Child, req.Onto, req.Parent)
	}

	a := &attempt{req: req, repo: repo, result: res}
	if a.upstream, err = e.resolveHead(repo, req.Parent); err != nil {
		return res, err
	}
	a.target = a.upstream
	if req.Onto != "" {
		if a.target, err = e.resolveHead(repo, req.Onto); err != nil {
			return res, err
		}
	}

	res.transition(Attempting)
	res.Backup = BackupTag(req.Child)
	if err := repo.Tag(res.Backup, req.Child, true); err != nil {
		res.transition(Failed)
		return res, err
	}

	if req.Onto != "" {
		e.log.Infof("Rebasing %s onto %s, replaying the commits not in %s", req.Child, req.Onto, req.Parent)
	} else {
		e.log.Infof("Rebasing %s onto %s", req.Child, req.Parent)
	}

	if upstream {
		err = repo.PullRebase(e.opts.UpstreamRemote, e.remoteRef(req.Parent))
	} else {
		err = repo.Rebase(git.RebaseOptions{Branch: req.Child, Upstream: req.Parent, Onto: req.Onto})
	}
	if err != nil {
		if !repo.IsRebaseInProgress() {
			res.transition(Failed)
			if upstream {
				return res, fmt.Errorf("failed to pull %s into %s: %w", req.Parent, req.Child, err)
			}
			return res, errors.Invariantf("rebase of %s onto %s failed, but no rebase is in progress", req.Child, req.Target()).
				Observed(err.Error()).Wrapping(err)
		}
		if err := e.resolveConflicts(a); err != nil {
			return res, err
		}
	}

	return res, e.finish(a)
}

// Resume picks up a rebase that is stopped in repo, for example after gee
// was killed while waiting for the user.
func (e *Engine) Resume(repo *git.Repo) (*Result, error) {
	stateDir := repo.RebaseStateDir()
	if stateDir == "" {
		return nil, errors.Userf("No rebase in progress in %s.", repo.GetWorkDir())
	}
	headName := readStateFile(stateDir, "head-name")
	child := strings.TrimPrefix(headName, "refs/heads/")
	if child == "" || child == headName {
		return nil, errors.Userf("The rebase in %s is not rebasing a branch.", repo.GetWorkDir()).
			WithHints("Finish it with git rebase --continue, or git rebase --abort")
	}
	target := readStateFile(stateDir, "onto")
	if target == "" {
		return nil, errors.Invariantf("rebase state in %s has no onto commit", stateDir)
	}
	parent, err := e.store.Parent(child)
	if err != nil {
		return nil, err
	}

	res := newResult(child)
	res.transition(Attempting)
	res.Backup = BackupTag(child)
	a := &attempt{
		req:      Request{Child: child, Parent: parent},
		repo:     repo,
		upstream: target,
		target:   target,
		result:   res,
	}
	if err := e.resolveConflicts(a); err != nil {
		return res, err
	}
	return res, e.finish(a)
}

func readStateFile(dir, name string) string {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// finish verifies a completed rebase, records it and backs it up
func (e *Engine) finish(a *attempt) error {
	child := a.req.Child
	if a.repo.IsRebaseInProgress() {
		a.result.transition(ConflictSuspended)
		return errors.Userf("The rebase of %s is still in progress.", child).
			WithHints("Resolve it in "+a.repo.GetWorkDir()+" and run: gee continue",
				"Or give up with: git rebase --abort").
			Wrapping(errors.ErrRebaseStalled)
	}

	ok, err := a.repo.IsAncestor(a.target, child)
	if err != nil {
		a.result.transition(Failed)
		return err
	}
	if !ok {
		a.result.transition(Failed)
		head, _ := a.repo.RevParse(child)
		return errors.Invariantf("rebase of %s onto %s reported success, but %s is not an ancestor", child, a.req.Target(), a.target).
			Observed("head of "+child+": "+head, "expected ancestor: "+a.target)
	}
	a.result.transition(Succeeded)

	if err := e.store.SetMergeBase(child, a.target); err != nil {
		return err
	}
	head, _ := a.repo.RevParse(child)
	if before, _ := a.repo.RevParse(a.result.Backup); head != "" && head == before {
		e.log.AlreadyUpToDate(child)
	} else {
		e.log.Rebased(child, a.req.Target())
		e.log.Tipf("To undo: git checkout %s; git reset --hard %s", child, a.result.Backup)
	}

	if !a.repo.HasRemote(e.opts.OriginRemote) {
		e.log.Warnf("No %s remote; %s is not backed up.", e.opts.OriginRemote, child)
		return nil
	}
	if err := a.repo.ForcePush(e.opts.OriginRemote, child); err != nil {
		return fmt.Errorf("rebased %s, but failed to back it up: %w", child, err)
	}
	return nil
}

// checkOpenPullRequests warns about reviews a rebase would disturb.
// Failing to reach the hosting service only warns.
func (e *Engine) checkOpenPullRequests(branch string) (bool, error) {
	if e.prs == nil {
		return true, nil
	}
	prs, err := e.prs.OpenPullRequests(branch)
	if err != nil {
		e.log.Warnf("Could not check for open pull requests on %s: %v", branch, err)
		return true, nil
	}
	if len(prs) == 0 {
		return true, nil
	}

	numbers := make([]string, len(prs))
	for i, pr := range prs {
		numbers[i] = fmt.Sprintf("#%d", pr.Number)
	}
	e.log.Warnf("Open PR exists for branch %s: %s", branch, strings.Join(numbers, " "))
	e.log.Lines(
		"If a reviewer is already looking at your PR, rebasing this branch",
		"will break the reviewer's ability to see what has changed when",
		"you commit new changes.",
	)
	return e.prompt.Confirm(fmt.Sprintf("Rebase %s anyway?", branch), false)
}

func (e *Engine) checkClean(repo *git.Repo, branch string) error {
	if repo.IsRebaseInProgress() {
		return errors.Userf("A rebase is already in progress in %s.", repo.GetWorkDir()).
			WithHints("Run: gee continue", "Or give up with: git rebase --abort").
			Wrapping(errors.ErrRebaseStalled)
	}
	changes, err := repo.UncommittedChanges()
	if err != nil {
		return err
	}
	if len(changes) > 0 {
		return errors.Userf("Branch %s contains %d uncommitted changes:\n    %s", branch, len(changes), strings.Join(changes, "\n    ")).
			WithHints("Commit or stash them, then try again.").
			Wrapping(errors.ErrUncommittedChanges)
	}
	return nil
}

// remoteRef turns upstream/<ref> into the name the upstream remote uses
func (e *Engine) remoteRef(parent string) string {
	return strings.TrimPrefix(parent, e.opts.UpstreamRemote+"/")
}

// resolveHead returns the commit ref points at right now. Upstream refs are
// asked of the remote, since the local tracking ref may be stale.
func (e *Engine) resolveHead(repo *git.Repo, ref string) (string, error) {
	if !e.store.IsUpstream(ref) {
		sha, err := repo.RevParse(ref)
		if err != nil {
			return "", errors.Userf("Cannot resolve %s.", ref).Wrapping(err)
		}
		return sha, nil
	}

	remoteRef := e.remoteRef(ref)
	if !strings.HasPrefix(remoteRef, "refs/") {
		remoteRef = "refs/heads/" + remoteRef
	}
	sha, err := repo.LsRemote(e.opts.UpstreamRemote, remoteRef)
	if err != nil {
		return "", err
	}
	if sha == "" {
		return "", errors.Userf("%s has no %s.", e.opts.UpstreamRemote, remoteRef)
	}
	return sha, nil
}
