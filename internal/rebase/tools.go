package rebase

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/israelmalagutti/gee/internal/git"
)

// Tools runs the interactive programs the conflict loop hands control to
type Tools interface {
	// MergeTool runs `git mergetool` on path; tool selects a GUI tool when set
	MergeTool(repo *git.Repo, path, tool string) error
	// Shell runs an interactive shell in dir until the user exits it
	Shell(dir string, help []string) error
	// ViewPatch pages through commit
	ViewPatch(repo *git.Repo, commit string) error
}

// TerminalTools attaches the programs to the user's terminal
type TerminalTools struct{}

// MergeTool runs the configured merge tool
func (TerminalTools) MergeTool(repo *git.Repo, path, tool string) error {
	args := []string{"mergetool"}
	if tool != "" {
		args = append(args, "--tool="+tool, "--no-prompt")
	}
	return repo.RunInteractive(append(args, "--", path)...)
}

// Shell starts $SHELL with the help text printed first
func (TerminalTools) Shell(dir string, help []string) error {
	fmt.Fprintln(os.Stderr, strings.Join(help, "\n"))
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	cmd := exec.Command(shell)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), "GEE_REBASE_SHELL=1")
	// the exit status of an interactive shell carries no meaning
	_ = cmd.Run()
	return nil
}

// ViewPatch shows commit through less
func (TerminalTools) ViewPatch(repo *git.Repo, commit string) error {
	return repo.RunInteractive("-c", "core.pager=less -R", "--paginate", "show", "--color", commit)
}
