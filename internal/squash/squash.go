// Package squash rebases the descendants of a squash-merged branch so they
// stop carrying the commits that were squashed away.
package squash

import (
	"fmt"
	"sort"
	"strings"

	"github.com/israelmalagutti/gee/internal/colors"
	"github.com/israelmalagutti/gee/internal/errors"
	"github.com/israelmalagutti/gee/internal/git"
	"github.com/israelmalagutti/gee/internal/parentage"
	"github.com/israelmalagutti/gee/internal/rebase"
	"github.com/israelmalagutti/gee/internal/stack"
)

// UnsquashedTag names the tag holding a branch's head from before its squash merge
func UnsquashedTag(branch string) string {
	return branch + "-unsquashed"
}

// Rebaser runs one rebase. *rebase.Engine implements it.
type Rebaser interface {
	Rebase(req rebase.Request) (*rebase.Result, error)
}

// Propagator finds and rebases the descendants of a squash-merged branch
type Propagator struct {
	repo   *git.Repo
	store  *parentage.Store
	chains *stack.Builder
	engine Rebaser
	prompt rebase.Prompter
	log    *colors.Splog
}

// NewPropagator creates a Propagator. repo may be any worktree of the repository.
func NewPropagator(repo *git.Repo, store *parentage.Store, chains *stack.Builder, engine Rebaser, prompt rebase.Prompter, log *colors.Splog) *Propagator {
	if log == nil {
		log = colors.NewSplog()
	}
	return &Propagator{
		repo:   repo,
		store:  store,
		chains: chains,
		engine: engine,
		prompt: prompt,
		log:    log,
	}
}

// Discover lists the branches that still carry the commits squashed out of
// merged, ancestors first. unsquashed is the pre-squash head of merged.
//
// Branches containing the first squashed commit are found through git;
// descendants recorded in the parentage table are added because a branch
// rebased since may no longer contain that commit.
func (p *Propagator) Discover(merged, unsquashed string) ([]string, error) {
	if !p.repo.BranchExists(merged) {
		return nil, errors.Userf("Branch %s does not exist.", merged)
	}
	if !p.repo.RefExists(unsquashed) {
		return nil, errors.Userf("Cannot find %s, the head of %s before it was squash-merged.", unsquashed, merged).
			WithHints(fmt.Sprintf("Tag it with: git tag --force %s <old head of %s>", unsquashed, merged))
	}

	base, err := p.repo.MergeBase(merged, unsquashed)
	if err != nil {
		return nil, err
	}
	squashed, err := p.repo.CommitsBetween(base, unsquashed)
	if err != nil {
		return nil, err
	}
	if len(squashed) == 0 {
		p.log.Debugf("%s has no commits outside %s", unsquashed, merged)
		return nil, nil
	}

	candidates := make(map[string]bool)
	containing, err := p.repo.BranchesContaining(squashed[0])
	if err != nil {
		return nil, err
	}
	for _, b := range containing {
		candidates[b] = true
	}
	children, err := p.store.AllChildrenOf(merged)
	if err != nil {
		return nil, err
	}
	for _, b := range children {
		candidates[b] = true
	}
	delete(candidates, merged)
	delete(candidates, p.store.Main())

	var kids []string
	for b := range candidates {
		if p.repo.BranchExists(b) {
			kids = append(kids, b)
		}
	}
	if len(kids) == 0 {
		return nil, nil
	}
	sort.Strings(kids)

	chain, err := p.chains.ChainForAll(kids)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(kids))
	for _, b := range kids {
		wanted[b] = true
	}
	ordered := make([]string, 0, len(kids))
	for _, b := range chain {
		if wanted[b] {
			ordered = append(ordered, b)
		}
	}
	return ordered, nil
}

// Propagate rebases every discovered branch onto merged, replaying only the
// commits it has beyond unsquashed. The parentage of merged is left alone.
// It stops at the first branch that fails.
func (p *Propagator) Propagate(merged, unsquashed string) ([]*rebase.Result, error) {
	kids, err := p.Discover(merged, unsquashed)
	if err != nil {
		return nil, err
	}
	if len(kids) == 0 {
		p.log.Infof("No branches depend on the squashed commits of %s.", merged)
		return nil, nil
	}

	p.log.Warnf("The following branches contain the commits that were just squash-merged, "+
		"and need to be rebased to avoid future merge conflicts: %s", strings.Join(kids, " "))
	ok, err := p.prompt.Confirm("Rebase child branches now?", true)
	if err != nil {
		return nil, err
	}
	if !ok {
		p.log.Warnf("Skipped rebasing the children of %s.", merged)
		return nil, nil
	}

	results := make([]*rebase.Result, 0, len(kids))
	for _, kid := range kids {
		p.log.Banner("Rebasing " + kid)
		res, err := p.engine.Rebase(rebase.Request{Child: kid, Parent: unsquashed, Onto: merged})
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, fmt.Errorf("failed to propagate %s to %s: %w", merged, kid, err)
		}
	}
	return results, nil
}
