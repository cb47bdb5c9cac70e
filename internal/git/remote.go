package git

import (
	"fmt"
	"strings"
)

// HasRemote reports whether a remote is configured
func (r *Repo) HasRemote(remote string) bool {
	_, err := r.RunGitCommand("remote", "get-url", remote)
	return err == nil
}

// LsRemote returns the SHA a remote advertises for ref, or "" when it has none
func (r *Repo) LsRemote(remote, ref string) (string, error) {
	output, err := r.RunGitCommand("ls-remote", remote, ref)
	if err != nil {
		return "", fmt.Errorf("failed to query %s for %s: %w", remote, ref, err)
	}
	for _, line := range splitLines(output) {
		fields := strings.Fields(line)
		if len(fields) == 2 {
			return fields[0], nil
		}
	}
	return "", nil
}

// RemoteBranchExists checks whether remote has branch, asking the remote itself
func (r *Repo) RemoteBranchExists(remote, branch string) bool {
	sha, err := r.LsRemote(remote, "refs/heads/"+branch)
	return err == nil && sha != ""
}

// Fetch fetches refs (or everything) from remote
func (r *Repo) Fetch(remote string, refs ...string) error {
	args := append([]string{"fetch", "--quiet", remote}, refs...)
	if _, err := r.RunGitCommand(args...); err != nil {
		return fmt.Errorf("failed to fetch from %s: %w", remote, err)
	}
	return nil
}

// ForcePush publishes branch to remote, replacing whatever the remote had
func (r *Repo) ForcePush(remote, branch string) error {
	if _, err := r.RunGitCommand("push", "--quiet", "-u", remote, "+"+branch); err != nil {
		return fmt.Errorf("failed to push %s to %s: %w", branch, remote, err)
	}
	return nil
}

// DeleteRemoteBranch removes branch from remote
func (r *Repo) DeleteRemoteBranch(remote, branch string) error {
	if _, err := r.RunGitCommand("push", "--quiet", remote, "--delete", branch); err != nil {
		return fmt.Errorf("failed to delete %s from %s: %w", branch, remote, err)
	}
	return nil
}

// PullRebase fetches ref from remote and rebases the current branch onto it
func (r *Repo) PullRebase(remote, ref string) error {
	_, err := r.RunGitCommand("pull", "--quiet", "--rebase", "--no-autostash", remote, ref)
	return err
}
