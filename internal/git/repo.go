package git

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/israelmalagutti/gee/internal/errors"
)

// Repo is a git working tree. Every command runs inside workDir, so a Repo
// opened on one worktree never observes the branch state of another.
type Repo struct {
	workDir   string
	gitDir    string
	commonDir string
}

// NewRepo opens the repository containing the current directory
func NewRepo() (*Repo, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return OpenRepo(wd)
}

// OpenRepo opens the git working tree containing dir
func OpenRepo(dir string) (*Repo, error) {
	if !IsGitRepo(dir) {
		return nil, errors.Userf("%s is not a git repository (or any of the parent directories)", dir)
	}

	probe := &Repo{workDir: dir}
	out, err := probe.RunGitCommand("rev-parse", "--show-toplevel", "--absolute-git-dir", "--git-common-dir")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository layout: %w", err)
	}
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		return nil, errors.Invariantf("unexpected rev-parse output in %s", dir).Observed(lines...)
	}

	repo := &Repo{
		workDir: lines[0],
		gitDir:  lines[1],
	}
	// --git-common-dir is relative to the directory it ran in
	repo.commonDir = lines[2]
	if !filepath.IsAbs(repo.commonDir) {
		repo.commonDir = filepath.Join(dir, repo.commonDir)
	}
	repo.commonDir = filepath.Clean(repo.commonDir)

	return repo, nil
}

// IsGitRepo checks if dir is inside a git repository
func IsGitRepo(dir string) bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = dir
	return cmd.Run() == nil
}

// GetCommonDir returns the common git directory (shared across worktrees)
func (r *Repo) GetCommonDir() string {
	return r.commonDir
}

// GetGitDir returns the git directory of this worktree
func (r *Repo) GetGitDir() string {
	return r.gitDir
}

// GetWorkDir returns the working directory
func (r *Repo) GetWorkDir() string {
	return r.workDir
}

// MainWorktreeDir is the checkout that owns the shared .git directory.
func (r *Repo) MainWorktreeDir() string {
	return filepath.Dir(r.commonDir)
}

// RepoDir is the directory holding one checkout per branch.
func (r *Repo) RepoDir() string {
	return filepath.Dir(r.MainWorktreeDir())
}

// GetParentsPath returns the path of the parentage file
func (r *Repo) GetParentsPath() string {
	return filepath.Join(r.RepoDir(), ".gee", "parents")
}

// GetConfigPath returns the path of the gee config file
func (r *Repo) GetConfigPath() string {
	return filepath.Join(r.RepoDir(), ".gee", "config.yaml")
}

// At returns a Repo for another worktree of the same repository
func (r *Repo) At(dir string) (*Repo, error) {
	if dir == r.workDir {
		return r, nil
	}
	return OpenRepo(dir)
}

func (r *Repo) run(args ...string) (string, error) {
	return r.runEnv(nil, args...)
}

func (r *Repo) runEnv(env []string, args ...string) (string, error) {
	start := time.Now()
	cmd := exec.Command("git", args...)
	cmd.Dir = r.workDir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	log.Debug().
		Str("dir", r.workDir).
		Strs("args", args).
		Dur("took", time.Since(start)).
		Err(err).
		Msg("git")
	if err != nil {
		return buf.String(), &errors.GitError{
			Tool:   "git",
			Args:   args,
			Dir:    r.workDir,
			Err:    err,
			Output: strings.TrimSpace(buf.String()),
		}
	}
	return buf.String(), nil
}

// RunGitCommand executes a git command and returns its trimmed output
func (r *Repo) RunGitCommand(args ...string) (string, error) {
	out, err := r.run(args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// RunGitCommandRaw is RunGitCommand without trimming leading whitespace,
// for porcelain formats where columns are significant.
func (r *Repo) RunGitCommandRaw(args ...string) (string, error) {
	out, err := r.run(args...)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

// RunGitCommandCanFail runs git and returns output even when git exits non-zero.
// Commands like `diff --check` report findings through their exit status.
func (r *Repo) RunGitCommandCanFail(args ...string) string {
	out, _ := r.run(args...)
	return strings.TrimRight(out, "\n")
}

// RunInteractive runs git attached to the user's terminal
func (r *Repo) RunInteractive(args ...string) error {
	log.Debug().Str("dir", r.workDir).Strs("args", args).Msg("git (interactive)")
	cmd := exec.Command("git", args...)
	cmd.Dir = r.workDir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return &errors.GitError{Tool: "git", Args: args, Dir: r.workDir, Err: err}
	}
	return nil
}

// GetConfig returns a git config value, or "" when unset
func (r *Repo) GetConfig(key string) string {
	out, err := r.RunGitCommand("config", "--get", key)
	if err != nil {
		return ""
	}
	return out
}
