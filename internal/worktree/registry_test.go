package worktree

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/israelmalagutti/gee/internal/errors"
	"github.com/israelmalagutti/gee/internal/git"
	"github.com/israelmalagutti/gee/internal/testutil"
)

func TestParseWorktreeList(t *testing.T) {
	output := `worktree /src/repo/main
HEAD 1111111111111111111111111111111111111111
branch refs/heads/main

worktree /src/repo/feat
HEAD 2222222222222222222222222222222222222222
branch refs/heads/feat

worktree /src/repo/rebasing
HEAD 3333333333333333333333333333333333333333
detached

worktree /src/repo/with space
HEAD 4444444444444444444444444444444444444444
branch refs/heads/users/me/topic
`
	entries, first := ParseWorktreeList(output)
	assert.Equal(t, "main", first)
	assert.Equal(t, []Entry{
		{Branch: "main", Path: "/src/repo/main"},
		{Branch: "feat", Path: "/src/repo/feat"},
		{Branch: "users/me/topic", Path: "/src/repo/with space"},
	}, entries)
}

func TestParseWorktreeListDetachedMain(t *testing.T) {
	entries, first := ParseWorktreeList("worktree /src/repo/main\nHEAD 1111\ndetached\n")
	assert.Empty(t, entries)
	assert.Equal(t, "", first)
}

func TestRegistry(t *testing.T) {
	l := testutil.NewLayout(t)
	featDir := l.AddBranch(t, "feat", "main")

	repo, err := git.OpenRepo(featDir)
	require.NoError(t, err)
	reg, err := NewRegistry(repo)
	require.NoError(t, err)

	main, ok := reg.MainBranch()
	assert.True(t, ok)
	assert.Equal(t, "main", main)

	root, err := reg.RootOf("feat")
	require.NoError(t, err)
	assert.Equal(t, "feat", filepath.Base(root))

	_, err = reg.RootOf("nope")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	t.Run("refresh is explicit", func(t *testing.T) {
		l.AddBranch(t, "late", "main")
		_, err := reg.RootOf("late")
		assert.ErrorIs(t, err, errors.ErrNotFound)

		require.NoError(t, reg.Refresh())
		_, err = reg.RootOf("late")
		assert.NoError(t, err)
	})

	t.Run("detached worktrees are dropped", func(t *testing.T) {
		l.Git(t, featDir, "checkout", "--quiet", "--detach")
		require.NoError(t, reg.Refresh())
		_, err := reg.RootOf("feat")
		assert.ErrorIs(t, err, errors.ErrNotFound)
		l.Git(t, featDir, "checkout", "--quiet", "feat")
	})
}

func TestEnsure(t *testing.T) {
	l := testutil.NewLayout(t)
	l.Git(t, l.MainDir, "branch", "orphaned", "main")

	repo, err := git.OpenRepo(l.MainDir)
	require.NoError(t, err)
	reg, err := NewRegistry(repo)
	require.NoError(t, err)

	root, err := reg.Ensure("orphaned")
	require.NoError(t, err)
	assert.Equal(t, "orphaned", filepath.Base(root))

	again, err := reg.Ensure("orphaned")
	require.NoError(t, err)
	assert.Equal(t, root, again)

	_, err = reg.Ensure("missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}
