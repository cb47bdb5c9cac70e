package git

import (
	"fmt"
	"strings"

	"github.com/israelmalagutti/gee/internal/errors"
)

// GetCurrentBranch returns the name of the current branch
func (r *Repo) GetCurrentBranch() (string, error) {
	output, err := r.RunGitCommand("branch", "--show-current")
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}

	branch := strings.TrimSpace(output)
	if branch == "" {
		return "", errors.Userf("%s is not on any branch (detached HEAD)", r.workDir)
	}

	return branch, nil
}

// ListBranches returns a list of all local branches
func (r *Repo) ListBranches() ([]string, error) {
	output, err := r.RunGitCommand("branch", "--format=%(refname:short)")
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}

	return splitLines(output), nil
}

// BranchExists checks if a local branch exists
func (r *Repo) BranchExists(branch string) bool {
	_, err := r.RunGitCommand("show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	return err == nil
}

// IsValidBranchName checks name against git's branch naming rules
func (r *Repo) IsValidBranchName(name string) bool {
	_, err := r.RunGitCommand("check-ref-format", "--branch", name)
	return err == nil
}

// RefExists checks if any ref or commit-ish resolves to a commit
func (r *Repo) RefExists(ref string) bool {
	_, err := r.RunGitCommand("rev-parse", "--verify", "--quiet", ref+"^{commit}")
	return err == nil
}

// DeleteBranch deletes a branch (force delete if merged is false)
func (r *Repo) DeleteBranch(branch string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}

	_, err := r.RunGitCommand("branch", flag, branch)
	if err != nil {
		return fmt.Errorf("failed to delete branch %s: %w", branch, err)
	}
	return nil
}

// RevParse returns the commit SHA of a ref
func (r *Repo) RevParse(ref string) (string, error) {
	output, err := r.RunGitCommand("rev-parse", ref+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", ref, err)
	}
	return output, nil
}

// MergeBase returns the best common ancestor of two refs
func (r *Repo) MergeBase(a, b string) (string, error) {
	output, err := r.RunGitCommand("merge-base", a, b)
	if err != nil {
		return "", fmt.Errorf("failed to get merge base of %s and %s: %w", a, b, err)
	}
	return output, nil
}

// Tag creates a lightweight tag, replacing an existing one when force is set
func (r *Repo) Tag(name, ref string, force bool) error {
	args := []string{"tag"}
	if force {
		args = append(args, "-f")
	}
	args = append(args, name, ref)
	if _, err := r.RunGitCommand(args...); err != nil {
		return fmt.Errorf("failed to tag %s as %s: %w", ref, name, err)
	}
	return nil
}

// ResetHard moves the current branch and working tree to ref
func (r *Repo) ResetHard(ref string) error {
	if _, err := r.RunGitCommand("reset", "--hard", ref); err != nil {
		return fmt.Errorf("failed to reset to %s: %w", ref, err)
	}
	return nil
}

// Checkout switches this worktree to branch
func (r *Repo) Checkout(branch string) error {
	if _, err := r.RunGitCommand("checkout", branch); err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", branch, err)
	}
	return nil
}

// BranchesContaining lists local branches whose history includes commit
func (r *Repo) BranchesContaining(commit string) ([]string, error) {
	output, err := r.RunGitCommand("branch", "--format", "%(refname:short)", "--contains", commit)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches containing %s: %w", commit, err)
	}
	return splitLines(output), nil
}

// CommitsBetween lists commits reachable from to but not from, oldest first
func (r *Repo) CommitsBetween(from, to string) ([]string, error) {
	output, err := r.RunGitCommand("rev-list", "--reverse", from+".."+to)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits %s..%s: %w", from, to, err)
	}
	return splitLines(output), nil
}

// CountAheadBehind returns how many commits a has that b lacks, and the reverse
func (r *Repo) CountAheadBehind(a, b string) (int, int, error) {
	output, err := r.RunGitCommand("rev-list", "--left-right", "--count", a+"..."+b)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compare %s with %s: %w", a, b, err)
	}
	var ahead, behind int
	if _, err := fmt.Sscanf(output, "%d %d", &ahead, &behind); err != nil {
		return 0, 0, errors.Invariantf("cannot parse rev-list count").Observed(output).Wrapping(err)
	}
	return ahead, behind, nil
}

// ChangedFiles lists the files `git diff` reports for base: the working tree
// against a commit, or a range such as parent...branch
func (r *Repo) ChangedFiles(base string) ([]string, error) {
	output, err := r.RunGitCommand("diff", "--name-only", base)
	if err != nil {
		return nil, fmt.Errorf("failed to diff against %s: %w", base, err)
	}
	return splitLines(output), nil
}

// Describe returns the abbreviated SHA and subject of a commit
func (r *Repo) Describe(ref string) string {
	output, err := r.RunGitCommand("log", "-1", "--format=%h %s", ref)
	if err != nil {
		return ref
	}
	return output
}

func splitLines(output string) []string {
	if output == "" {
		return []string{}
	}
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
