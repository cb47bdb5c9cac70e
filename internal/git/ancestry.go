package git

import (
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// IsAncestor reports whether ancestor is reachable from descendant.
// A commit counts as its own ancestor.
func (r *Repo) IsAncestor(ancestor, descendant string) (bool, error) {
	a, err := r.RevParse(ancestor)
	if err != nil {
		return false, err
	}
	d, err := r.RevParse(descendant)
	if err != nil {
		return false, err
	}
	if a == d {
		return true, nil
	}

	repo, err := gogit.PlainOpenWithOptions(r.workDir, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", r.workDir, err)
	}
	ac, err := repo.CommitObject(plumbing.NewHash(a))
	if err != nil {
		return false, fmt.Errorf("failed to load commit %s: %w", a, err)
	}
	dc, err := repo.CommitObject(plumbing.NewHash(d))
	if err != nil {
		return false, fmt.Errorf("failed to load commit %s: %w", d, err)
	}
	return ac.IsAncestor(dc)
}
