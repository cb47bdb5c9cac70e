package divergence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/israelmalagutti/gee/internal/git"
	"github.com/israelmalagutti/gee/internal/testutil"
)

func setup(t *testing.T) (*testutil.Layout, *Calculator) {
	t.Helper()
	l := testutil.NewLayout(t)
	l.AddBranch(t, "feat", "main")
	repo, err := git.OpenRepo(l.MainDir)
	require.NoError(t, err)
	return l, NewCalculator(repo, "origin")
}

func TestAheadBehind(t *testing.T) {
	l, c := setup(t)

	counts, err := c.AheadBehind("feat", "main")
	require.NoError(t, err)
	assert.True(t, counts.Same())

	l.Commit(t, "feat", "a.txt", "a\n", "feat: a")
	l.Commit(t, "feat", "b.txt", "b\n", "feat: b")
	l.Commit(t, "main", "m.txt", "m\n", "main: m")

	counts, err = c.AheadBehind("feat", "main")
	require.NoError(t, err)
	assert.Equal(t, Counts{Ahead: 2, Behind: 1}, counts)

	reverse, err := c.AheadBehind("main", "feat")
	require.NoError(t, err)
	assert.Equal(t, Counts{Ahead: counts.Behind, Behind: counts.Ahead}, reverse)
}

func TestAheadBehindUnknownRef(t *testing.T) {
	_, c := setup(t)
	_, err := c.AheadBehind("feat", "nope")
	assert.Error(t, err)
}

func TestReport(t *testing.T) {
	l, c := setup(t)

	line, err := c.Report("feat", "main")
	require.NoError(t, err)
	assert.Equal(t, "feat                : same as main", line)

	l.Commit(t, "feat", "a.txt", "a\n", "feat: a")
	l.Git(t, l.BranchDir("feat"), "push", "--quiet", "origin", "feat")
	l.Git(t, l.MainDir, "fetch", "--quiet", "origin")
	l.Git(t, l.BranchDir("feat"), "reset", "--quiet", "--hard", "main")

	line, err = c.Report("feat", "main")
	require.NoError(t, err)
	assert.Equal(t, "feat                : same as main, 1 behind origin/feat", line)

	ahead, err := c.MirrorAhead("feat")
	require.NoError(t, err)
	assert.Equal(t, 1, ahead)

	l.Commit(t, "main", "m.txt", "m\n", "main: m")
	line, err = c.Report("main", "feat")
	require.NoError(t, err)
	assert.Equal(t, "main                : 1 ahead, 0 behind feat", line)
}
