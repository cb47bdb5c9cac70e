package git

import (
	"fmt"
)

// AddWorktree checks out branch in a new worktree at path.
// When create is set the branch is created from start (HEAD when empty).
func (r *Repo) AddWorktree(path, branch string, create bool, start string) error {
	args := []string{"worktree", "add", "--quiet"}
	if create {
		args = append(args, "-b", branch, path)
		if start != "" {
			args = append(args, start)
		}
	} else {
		args = append(args, path, branch)
	}
	if _, err := r.RunGitCommand(args...); err != nil {
		return fmt.Errorf("failed to add worktree %s: %w", path, err)
	}
	return nil
}

// RemoveWorktree deletes a worktree, discarding local changes
func (r *Repo) RemoveWorktree(path string) error {
	if _, err := r.RunGitCommand("worktree", "remove", "--force", path); err != nil {
		return fmt.Errorf("failed to remove worktree %s: %w", path, err)
	}
	return nil
}

// ListWorktrees returns the raw `git worktree list --porcelain` output
func (r *Repo) ListWorktrees() (string, error) {
	output, err := r.RunGitCommand("worktree", "list", "--porcelain")
	if err != nil {
		return "", fmt.Errorf("failed to list worktrees: %w", err)
	}
	return output, nil
}
