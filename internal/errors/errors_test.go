package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitUserError, ExitCode(New("plain")))
	assert.Equal(t, ExitUserError, ExitCode(Userf("branch %s is dirty", "feat")))
	assert.Equal(t, ExitBug, ExitCode(Invariantf("rebase lied")))

	wrapped := fmt.Errorf("failed to update: %w", Invariantf("rebase lied"))
	assert.Equal(t, ExitBug, ExitCode(wrapped))
}

func TestUserErrorHints(t *testing.T) {
	err := Userf("Branch %s contains 2 uncommitted changes", "feat").
		WithHints("Commit all changes and try again.").
		Wrapping(ErrUncommittedChanges)

	assert.Equal(t, "Branch feat contains 2 uncommitted changes\n  Commit all changes and try again.", err.Error())
	assert.True(t, Is(err, ErrUncommittedChanges))
}

func TestInvariantErrorState(t *testing.T) {
	err := Invariantf("chain too deep").Observed("a -> b", "b -> a").Wrapping(ErrChainTooDeep)

	assert.Contains(t, err.Error(), "internal error: chain too deep")
	assert.Contains(t, err.Error(), "\n  b -> a")
	assert.True(t, Is(err, ErrChainTooDeep))
}

func TestNotFoundError(t *testing.T) {
	err := fmt.Errorf("lookup: %w", &NotFoundError{Kind: "worktree", Name: "feat"})

	assert.True(t, Is(err, ErrNotFound))
	var nf *NotFoundError
	assert.True(t, As(err, &nf))
	assert.Equal(t, "feat", nf.Name)
}

func TestGitError(t *testing.T) {
	err := &GitError{Tool: "git", Args: []string{"rebase", "main"}, Err: New("exit status 1"), Output: "CONFLICT"}
	assert.Equal(t, "git rebase main failed: exit status 1\nCONFLICT", err.Error())
}
