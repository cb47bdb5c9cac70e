package squash

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/israelmalagutti/gee/internal/colors"
	"github.com/israelmalagutti/gee/internal/errors"
	"github.com/israelmalagutti/gee/internal/git"
	"github.com/israelmalagutti/gee/internal/parentage"
	"github.com/israelmalagutti/gee/internal/rebase"
	"github.com/israelmalagutti/gee/internal/stack"
	"github.com/israelmalagutti/gee/internal/testutil"
	"github.com/israelmalagutti/gee/internal/worktree"
)

type answer bool

func (answer) Choose(rebase.Conflict) (rebase.Action, error) { return rebase.Abort, nil }

func (a answer) Confirm(string, bool) (bool, error) { return bool(a), nil }

type fixture struct {
	l          *testutil.Layout
	store      *parentage.Store
	propagator *Propagator
	out        *bytes.Buffer
	// firstSquashed is the oldest commit of base before the squash merge
	firstSquashed string
	squashed      string
}

// newFixture builds base -> child -> grand, plus stale which is recorded as
// a child of base without sharing its commits, then squash-merges base into
// main and resets base onto the squashed commit.
func newFixture(t *testing.T, prompt rebase.Prompter) *fixture {
	t.Helper()
	l := testutil.NewLayout(t)
	f := &fixture{l: l, out: &bytes.Buffer{}}

	l.AddBranch(t, "base", "main")
	f.firstSquashed = l.Commit(t, "base", "base1.txt", "one\n", "base one")
	l.Commit(t, "base", "base2.txt", "two\n", "base two")
	l.AddBranch(t, "child", "base")
	l.Commit(t, "child", "child.txt", "child\n", "child work")
	l.AddBranch(t, "grand", "child")
	l.Commit(t, "grand", "grand.txt", "grand\n", "grand work")
	l.AddBranch(t, "stale", "main")
	l.Commit(t, "stale", "stale.txt", "stale\n", "stale work")
	l.AddBranch(t, "unrelated", "main")
	l.Commit(t, "unrelated", "unrelated.txt", "unrelated\n", "unrelated work")
	l.WriteParents(t, "base main\nchild base\ngrand child\nstale base\ngone base\nunrelated main\n")

	l.Git(t, l.MainDir, "merge", "--squash", "--quiet", "base")
	l.Git(t, l.MainDir, "commit", "--quiet", "-m", "base (#1)")
	f.squashed = l.Head(t, "main")
	l.Git(t, l.MainDir, "tag", UnsquashedTag("base"), "base")
	l.Git(t, l.BranchDir("base"), "reset", "--quiet", "--hard", "main")

	repo, err := git.OpenRepo(l.MainDir)
	require.NoError(t, err)
	reg, err := worktree.NewRegistry(repo)
	require.NoError(t, err)
	log := colors.NewSplogTo(f.out)
	f.store = parentage.NewStore(l.ParentsPath(), "main", "upstream", log)
	engine := rebase.NewEngine(rebase.Deps{
		Registry: reg,
		Store:    f.store,
		Prompter: prompt,
		Log:      log,
	}, rebase.Options{})
	f.propagator = NewPropagator(repo, f.store, stack.NewBuilder(f.store, 0), engine, prompt, log)
	return f
}

func TestDiscover(t *testing.T) {
	f := newFixture(t, answer(true))

	kids, err := f.propagator.Discover("base", UnsquashedTag("base"))
	require.NoError(t, err)
	assert.Equal(t, []string{"child", "grand", "stale"}, kids)
}

func TestDiscoverNothingSquashed(t *testing.T) {
	f := newFixture(t, answer(true))
	f.l.Git(t, f.l.MainDir, "tag", "--force", UnsquashedTag("base"), "base")

	kids, err := f.propagator.Discover("base", UnsquashedTag("base"))
	require.NoError(t, err)
	assert.Empty(t, kids)
}

func TestDiscoverMissingTag(t *testing.T) {
	f := newFixture(t, answer(true))

	_, err := f.propagator.Discover("base", "nope-unsquashed")
	require.Error(t, err)
	var userErr *errors.UserError
	assert.True(t, errors.As(err, &userErr))
	assert.Contains(t, err.Error(), "nope-unsquashed")

	_, err = f.propagator.Discover("missing", UnsquashedTag("base"))
	assert.True(t, errors.As(err, &userErr))
}

func TestPropagate(t *testing.T) {
	f := newFixture(t, answer(true))
	l := f.l
	unrelated := l.Head(t, "unrelated")

	results, err := f.propagator.Propagate("base", UnsquashedTag("base"))
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, kid := range []string{"child", "grand", "stale"} {
		assert.Equal(t, kid, results[i].Child)
		assert.Equal(t, rebase.Succeeded, results[i].State)
		assert.True(t, l.IsAncestor(t, f.squashed, kid), "%s is on the squashed commit", kid)
		assert.False(t, l.IsAncestor(t, f.firstSquashed, kid), "%s still carries squashed commits", kid)

		ahead, behind, err := mustRepo(t, l.MainDir).CountAheadBehind(kid, "base")
		require.NoError(t, err)
		assert.Zero(t, behind)
		assert.Positive(t, ahead)
	}

	_, err = os.Stat(filepath.Join(l.BranchDir("grand"), "child.txt"))
	assert.NoError(t, err)
	assert.Equal(t, unrelated, l.Head(t, "unrelated"))

	rec, ok, err := f.store.Lookup("base")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "main", rec.Parent)
	assert.Empty(t, rec.MergeBase)

	rec, _, err = f.store.Lookup("child")
	require.NoError(t, err)
	assert.Equal(t, "base", rec.Parent)
	assert.Equal(t, f.squashed, rec.MergeBase)
}

func TestPropagateDeclined(t *testing.T) {
	f := newFixture(t, answer(false))
	child := f.l.Head(t, "child")

	results, err := f.propagator.Propagate("base", UnsquashedTag("base"))
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, child, f.l.Head(t, "child"))
	assert.Contains(t, f.out.String(), "Skipped rebasing the children of base.")
}

func mustRepo(t *testing.T, dir string) *git.Repo {
	t.Helper()
	repo, err := git.OpenRepo(dir)
	require.NoError(t, err)
	return repo
}
