// Package testutil builds throwaway gee layouts backed by real git repositories.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// Layout is a gee directory tree:
//
//	<Root>/upstream.git   bare "upstream" remote
//	<Root>/origin.git     bare "origin" remote
//	<Root>/repo/main      main checkout, owns the shared .git
//	<Root>/repo/<branch>  one worktree per branch
type Layout struct {
	Root     string
	RepoDir  string
	MainDir  string
	Upstream string
	Origin   string
}

// NewLayout creates a layout whose main branch holds one commit, pushed to
// both remotes.
func NewLayout(t *testing.T) *Layout {
	t.Helper()
	root := t.TempDir()
	l := &Layout{
		Root:     root,
		RepoDir:  filepath.Join(root, "repo"),
		MainDir:  filepath.Join(root, "repo", "main"),
		Upstream: filepath.Join(root, "upstream.git"),
		Origin:   filepath.Join(root, "origin.git"),
	}

	l.Git(t, root, "init", "--quiet", "--bare", l.Upstream)
	l.Git(t, root, "init", "--quiet", "--bare", l.Origin)
	if err := os.MkdirAll(l.MainDir, 0755); err != nil {
		t.Fatalf("failed to create %s: %v", l.MainDir, err)
	}
	l.Git(t, l.MainDir, "init", "--quiet")
	l.Git(t, l.MainDir, "symbolic-ref", "HEAD", "refs/heads/main")
	l.Git(t, l.MainDir, "config", "user.email", "test@test.com")
	l.Git(t, l.MainDir, "config", "user.name", "Test User")
	l.Git(t, l.MainDir, "config", "commit.gpgsign", "false")
	l.Git(t, l.MainDir, "config", "tag.gpgsign", "false")
	l.Commit(t, "main", "README.md", "# Test\n", "initial")
	l.Git(t, l.MainDir, "remote", "add", "upstream", l.Upstream)
	l.Git(t, l.MainDir, "remote", "add", "origin", l.Origin)
	l.Git(t, l.MainDir, "push", "--quiet", "upstream", "main")
	l.Git(t, l.MainDir, "push", "--quiet", "origin", "main")
	l.Git(t, l.MainDir, "fetch", "--quiet", "upstream")
	return l
}

// Git runs git in dir and returns its trimmed output, failing the test on error.
func (l *Layout) Git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := l.GitCanFail(dir, args...)
	if err != nil {
		t.Fatalf("git %s failed in %s: %v\n%s", strings.Join(args, " "), dir, err, out)
	}
	return out
}

// GitCanFail runs git in dir and returns its trimmed output and error.
func (l *Layout) GitCanFail(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_EDITOR=true")
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// BranchDir returns the worktree location gee uses for branch.
func (l *Layout) BranchDir(branch string) string {
	return filepath.Join(l.RepoDir, branch)
}

// AddBranch creates branch from start in its own worktree and returns the worktree.
func (l *Layout) AddBranch(t *testing.T, branch, start string) string {
	t.Helper()
	dir := l.BranchDir(branch)
	l.Git(t, l.MainDir, "worktree", "add", "--quiet", "-b", branch, dir, start)
	return dir
}

// Commit writes file in the worktree of branch and commits it, returning the new SHA.
func (l *Layout) Commit(t *testing.T, branch, file, content, msg string) string {
	t.Helper()
	dir := l.BranchDir(branch)
	l.WriteFile(t, branch, file, content)
	l.Git(t, dir, "add", file)
	l.Git(t, dir, "commit", "--quiet", "-m", msg)
	return l.Head(t, branch)
}

// WriteFile writes file in the worktree of branch without committing it.
func (l *Layout) WriteFile(t *testing.T, branch, file, content string) {
	t.Helper()
	path := filepath.Join(l.BranchDir(branch), file)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// Head returns the commit branch points at.
func (l *Layout) Head(t *testing.T, branch string) string {
	t.Helper()
	return l.Git(t, l.MainDir, "rev-parse", "refs/heads/"+branch)
}

// ParentsPath is the location of the parentage file.
func (l *Layout) ParentsPath() string {
	return filepath.Join(l.RepoDir, ".gee", "parents")
}

// WriteParents replaces the parentage file with content.
func (l *Layout) WriteParents(t *testing.T, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(l.ParentsPath()), 0755); err != nil {
		t.Fatalf("failed to create .gee: %v", err)
	}
	if err := os.WriteFile(l.ParentsPath(), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write parents file: %v", err)
	}
}

// IsAncestor reports whether ancestor is reachable from descendant.
func (l *Layout) IsAncestor(t *testing.T, ancestor, descendant string) bool {
	t.Helper()
	_, err := l.GitCanFail(l.MainDir, "merge-base", "--is-ancestor", ancestor, descendant)
	return err == nil
}
