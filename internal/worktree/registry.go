// Package worktree maps branches to the directories they are checked out in.
package worktree

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/israelmalagutti/gee/internal/errors"
	"github.com/israelmalagutti/gee/internal/git"
)

// Entry is one worktree that has a branch checked out
type Entry struct {
	Branch string
	Path   string
}

// Registry is a projection of `git worktree list`. It is not refreshed
// implicitly: call Refresh after adding or removing worktrees.
type Registry struct {
	repo    *git.Repo
	entries map[string]string
	first   string
}

// NewRegistry creates a registry over the repository of repo.
// The listing always runs from the main checkout.
func NewRegistry(repo *git.Repo) (*Registry, error) {
	main, err := repo.At(repo.MainWorktreeDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open main checkout: %w", err)
	}
	r := &Registry{repo: main}
	if err := r.Refresh(); err != nil {
		return nil, err
	}
	return r, nil
}

// Refresh re-reads the worktree list
func (r *Registry) Refresh() error {
	output, err := r.repo.ListWorktrees()
	if err != nil {
		return err
	}
	entries, first := ParseWorktreeList(output)
	r.entries = make(map[string]string, len(entries))
	for _, e := range entries {
		r.entries[e.Branch] = e.Path
	}
	r.first = first
	return nil
}

// ParseWorktreeList parses `git worktree list --porcelain`. Worktrees with no
// branch (detached HEAD, bare, or mid-rebase) are dropped. The branch of the
// first, main, worktree is returned separately and is "" when it has none.
func ParseWorktreeList(output string) ([]Entry, string) {
	var entries []Entry
	first := ""
	seen := 0
	path, branch := "", ""

	flush := func() {
		if path == "" {
			return
		}
		if seen == 0 {
			first = branch
		}
		seen++
		if branch != "" {
			entries = append(entries, Entry{Branch: branch, Path: path})
		}
		path, branch = "", ""
	}

	for _, line := range strings.Split(output, "\n") {
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "worktree "):
			flush()
			path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "branch refs/heads/"):
			branch = strings.TrimPrefix(line, "branch refs/heads/")
		}
	}
	flush()
	return entries, first
}

// RootOf returns the directory where branch is checked out
func (r *Registry) RootOf(branch string) (string, error) {
	path, ok := r.entries[branch]
	if !ok {
		return "", &errors.NotFoundError{Kind: "worktree for branch", Name: branch}
	}
	return path, nil
}

// RepoFor opens the worktree of branch
func (r *Registry) RepoFor(branch string) (*git.Repo, error) {
	root, err := r.RootOf(branch)
	if err != nil {
		return nil, err
	}
	return r.repo.At(root)
}

// MainBranch returns the branch checked out in the main worktree
func (r *Registry) MainBranch() (string, bool) {
	return r.first, r.first != ""
}

// MainRepo returns the main checkout
func (r *Registry) MainRepo() *git.Repo {
	return r.repo
}

// Entries returns every worktree with a branch, sorted by branch
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, 0, len(r.entries))
	for b, p := range r.entries {
		entries = append(entries, Entry{Branch: b, Path: p})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Branch < entries[j].Branch })
	return entries
}

// DefaultPath is where gee puts the worktree of branch
func (r *Registry) DefaultPath(branch string) string {
	return filepath.Join(r.repo.RepoDir(), branch)
}

// Ensure makes sure branch has a worktree, creating <repo-dir>/<branch> when
// it has none. It returns the worktree root.
func (r *Registry) Ensure(branch string) (string, error) {
	if root, err := r.RootOf(branch); err == nil {
		return root, nil
	}
	if !r.repo.BranchExists(branch) {
		return "", &errors.NotFoundError{Kind: "branch", Name: branch}
	}

	path := r.DefaultPath(branch)
	if _, err := os.Stat(path); err == nil {
		return "", errors.Userf("%s exists but is not a worktree of %s", path, branch).
			WithHints("Move it aside, or run: git -C " + path + " checkout " + branch)
	}
	if err := r.repo.AddWorktree(path, branch, false, ""); err != nil {
		return "", err
	}
	if err := r.Refresh(); err != nil {
		return "", err
	}
	return r.RootOf(branch)
}
