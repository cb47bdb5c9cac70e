package git

import (
	"os"
	"path/filepath"
)

// RebaseOptions describes a `git rebase [--onto ONTO] UPSTREAM BRANCH`
type RebaseOptions struct {
	Branch      string
	Upstream    string
	Onto        string
	Interactive bool
}

func (o RebaseOptions) args() []string {
	args := []string{"rebase", "--no-autostash"}
	if o.Interactive {
		args = append(args, "-i")
	}
	if o.Onto != "" {
		args = append(args, "--onto", o.Onto)
	}
	return append(args, o.Upstream, o.Branch)
}

// Rebase runs a non-interactive rebase. A conflict is reported as an error
// while the rebase stays in progress; check IsRebaseInProgress.
func (r *Repo) Rebase(opts RebaseOptions) error {
	opts.Interactive = false
	_, err := r.RunGitCommand(opts.args()...)
	return err
}

// RebaseInteractive runs `rebase -i` attached to the terminal
func (r *Repo) RebaseInteractive(opts RebaseOptions) error {
	opts.Interactive = true
	return r.RunInteractive(opts.args()...)
}

// IsRebaseInProgress reports whether this worktree is in the middle of a rebase
func (r *Repo) IsRebaseInProgress() bool {
	return r.RebaseStateDir() != ""
}

// RebaseHead returns the commit being applied by a stopped rebase
func (r *Repo) RebaseHead() string {
	sha, err := r.RunGitCommand("rev-parse", "--verify", "--quiet", "REBASE_HEAD")
	if err != nil {
		return ""
	}
	return sha
}

// ContinueRebase continues a stopped rebase without opening an editor
func (r *Repo) ContinueRebase() error {
	_, err := r.runEnv([]string{"GIT_EDITOR=true"}, "rebase", "--continue")
	return err
}

// SkipRebase drops the commit a stopped rebase could not apply
func (r *Repo) SkipRebase() error {
	_, err := r.RunGitCommand("rebase", "--skip")
	return err
}

// AbortRebase aborts an in-progress rebase
func (r *Repo) AbortRebase() error {
	_, err := r.RunGitCommand("rebase", "--abort")
	return err
}

// RebaseStateDir returns the directory git keeps the rebase state in, or ""
func (r *Repo) RebaseStateDir() string {
	for _, name := range []string{"rebase-merge", "rebase-apply"} {
		dir := filepath.Join(r.gitDir, name)
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			return dir
		}
	}
	return ""
}
