package rebase

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/israelmalagutti/gee/internal/colors"
	"github.com/israelmalagutti/gee/internal/errors"
	"github.com/israelmalagutti/gee/internal/gh"
	"github.com/israelmalagutti/gee/internal/git"
	"github.com/israelmalagutti/gee/internal/parentage"
	"github.com/israelmalagutti/gee/internal/testutil"
	"github.com/israelmalagutti/gee/internal/worktree"
)

// scripted answers prompts from fixed lists, then falls back to Abort / no
type scripted struct {
	actions  []Action
	confirms []bool
	asked    []Conflict
	messages []string
}

func (s *scripted) Choose(c Conflict) (Action, error) {
	s.asked = append(s.asked, c)
	if len(s.actions) == 0 {
		return Abort, nil
	}
	a := s.actions[0]
	s.actions = s.actions[1:]
	return a, nil
}

func (s *scripted) Confirm(message string, _ bool) (bool, error) {
	s.messages = append(s.messages, message)
	if len(s.confirms) == 0 {
		return false, nil
	}
	c := s.confirms[0]
	s.confirms = s.confirms[1:]
	return c, nil
}

type fakePRs struct {
	prs []gh.PullRequest
	err error
}

func (f fakePRs) OpenPullRequests(string) ([]gh.PullRequest, error) {
	return f.prs, f.err
}

type harness struct {
	l      *testutil.Layout
	engine *Engine
	store  *parentage.Store
	out    *bytes.Buffer
}

func newHarness(t *testing.T, prompt Prompter, prs PullRequestChecker) *harness {
	t.Helper()
	l := testutil.NewLayout(t)
	repo, err := git.OpenRepo(l.MainDir)
	require.NoError(t, err)
	reg, err := worktree.NewRegistry(repo)
	require.NoError(t, err)

	var out bytes.Buffer
	log := colors.NewSplogTo(&out)
	store := parentage.NewStore(l.ParentsPath(), "main", "upstream", log)
	engine := NewEngine(Deps{
		Registry:     reg,
		Store:        store,
		PullRequests: prs,
		Prompter:     prompt,
		Log:          log,
	}, Options{})
	return &harness{l: l, engine: engine, store: store, out: &out}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRebaseOntoParent(t *testing.T) {
	h := newHarness(t, &scripted{}, nil)
	l := h.l
	l.AddBranch(t, "feature", "main")
	require.NoError(t, h.store.SetParent("feature", "main"))
	before := l.Commit(t, "feature", "feature.txt", "feature\n", "feature work")
	mainHead := l.Commit(t, "main", "main.txt", "main\n", "main work")

	res, err := h.engine.Rebase(Request{Child: "feature", Parent: "main"})
	require.NoError(t, err)

	assert.Equal(t, Succeeded, res.State)
	assert.Equal(t, []State{Idle, Attempting, Succeeded}, res.Trace)
	assert.True(t, l.IsAncestor(t, mainHead, "feature"))

	ahead, behind, err := mustRepo(t, l.MainDir).CountAheadBehind("feature", "main")
	require.NoError(t, err)
	assert.Equal(t, 1, ahead)
	assert.Equal(t, 0, behind)

	rec, ok, err := h.store.Lookup("feature")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, mainHead, rec.MergeBase)

	assert.Equal(t, before, l.Git(t, l.MainDir, "rev-parse", "feature.REBASE_BACKUP"))
	assert.Equal(t, l.Head(t, "feature"), l.Git(t, l.Origin, "rev-parse", "refs/heads/feature"))
	assert.Contains(t, h.out.String(), "git reset --hard feature.REBASE_BACKUP")
}

func mustRepo(t *testing.T, dir string) *git.Repo {
	t.Helper()
	repo, err := git.OpenRepo(dir)
	require.NoError(t, err)
	return repo
}

func TestRebaseUncommittedChangesFailsFast(t *testing.T) {
	h := newHarness(t, &scripted{}, nil)
	l := h.l
	l.AddBranch(t, "feature", "main")
	before := l.Commit(t, "feature", "feature.txt", "feature\n", "feature work")
	l.Commit(t, "main", "main.txt", "main\n", "main work")
	l.WriteFile(t, "feature", "scratch.txt", "wip\n")

	res, err := h.engine.Rebase(Request{Child: "feature", Parent: "main"})

	require.ErrorIs(t, err, errors.ErrUncommittedChanges)
	assert.Equal(t, errors.ExitUserError, errors.ExitCode(err))
	assert.Equal(t, []State{Idle}, res.Trace)
	assert.Equal(t, before, l.Head(t, "feature"))
	_, tagErr := l.GitCanFail(l.MainDir, "rev-parse", "--verify", "--quiet", "feature.REBASE_BACKUP")
	assert.Error(t, tagErr)
	_, statErr := os.Stat(l.ParentsPath())
	assert.True(t, os.IsNotExist(statErr))
}

func conflictingBranches(t *testing.T, l *testutil.Layout) {
	t.Helper()
	l.AddBranch(t, "feature", "main")
	l.Commit(t, "feature", "README.md", "from feature\n", "feature: readme")
	l.Commit(t, "main", "README.md", "from main\n", "main: readme")
}

func TestConflictKeepNew(t *testing.T) {
	prompt := &scripted{actions: []Action{KeepNew}}
	h := newHarness(t, prompt, nil)
	conflictingBranches(t, h.l)

	res, err := h.engine.Rebase(Request{Child: "feature", Parent: "main"})
	require.NoError(t, err)

	assert.Equal(t, Succeeded, res.State)
	assert.Equal(t, []State{Idle, Attempting, ConflictSuspended, Attempting, Succeeded}, res.Trace)
	require.Len(t, prompt.asked, 1)
	assert.Equal(t, "README.md", prompt.asked[0].Path)
	assert.Equal(t, "Both modified", prompt.asked[0].Label)
	assert.Equal(t, "from feature\n", readFile(t, filepath.Join(h.l.BranchDir("feature"), "README.md")))
	assert.True(t, h.l.IsAncestor(t, "main", "feature"))
	assert.Contains(t, h.out.String(), "Attempting to apply")
}

func TestConflictOnPathWithSpaces(t *testing.T) {
	for _, tc := range []struct {
		action Action
		want   string
	}{
		{KeepNew, "from feature\n"},
		{KeepOld, "from main\n"},
	} {
		t.Run(tc.action.Key(), func(t *testing.T) {
			prompt := &scripted{actions: []Action{tc.action}}
			h := newHarness(t, prompt, nil)
			l := h.l
			l.AddBranch(t, "feature", "main")
			l.Commit(t, "feature", "my notes.txt", "from feature\n", "feature: notes")
			l.Commit(t, "main", "my notes.txt", "from main\n", "main: notes")

			res, err := h.engine.Rebase(Request{Child: "feature", Parent: "main"})
			require.NoError(t, err)

			assert.Equal(t, Succeeded, res.State)
			require.Len(t, prompt.asked, 1)
			assert.Equal(t, "my notes.txt", prompt.asked[0].Path)
			assert.Equal(t, tc.want, readFile(t, filepath.Join(l.BranchDir("feature"), "my notes.txt")))
			assert.False(t, mustRepo(t, l.BranchDir("feature")).IsRebaseInProgress())
		})
	}
}

func TestConflictKeepOld(t *testing.T) {
	prompt := &scripted{actions: []Action{KeepOld}}
	h := newHarness(t, prompt, nil)
	conflictingBranches(t, h.l)

	res, err := h.engine.Rebase(Request{Child: "feature", Parent: "main"})
	require.NoError(t, err)

	assert.Equal(t, Succeeded, res.State)
	assert.Equal(t, "from main\n", readFile(t, filepath.Join(h.l.BranchDir("feature"), "README.md")))
}

func TestConflictAbort(t *testing.T) {
	prompt := &scripted{actions: []Action{ViewPatch, Abort}}
	h := newHarness(t, prompt, nil)
	h.engine.tools = noTools{}
	conflictingBranches(t, h.l)
	before := h.l.Head(t, "feature")

	res, err := h.engine.Rebase(Request{Child: "feature", Parent: "main"})

	require.ErrorIs(t, err, errors.ErrRebaseAborted)
	assert.Equal(t, Aborted, res.State)
	assert.Len(t, prompt.asked, 2)
	assert.Equal(t, before, h.l.Head(t, "feature"))
	assert.False(t, mustRepo(t, h.l.BranchDir("feature")).IsRebaseInProgress())
}

func TestConflictSkipCommit(t *testing.T) {
	prompt := &scripted{actions: []Action{Skip}}
	h := newHarness(t, prompt, nil)
	conflictingBranches(t, h.l)

	res, err := h.engine.Rebase(Request{Child: "feature", Parent: "main"})
	require.NoError(t, err)

	assert.Equal(t, Succeeded, res.State)
	assert.Equal(t, h.l.Head(t, "main"), h.l.Head(t, "feature"))
}

func TestAutoPrompterKeepsNew(t *testing.T) {
	h := newHarness(t, nil, nil)
	conflictingBranches(t, h.l)

	res, err := h.engine.Rebase(Request{Child: "feature", Parent: "main"})
	require.NoError(t, err)

	assert.Equal(t, Succeeded, res.State)
	assert.Equal(t, "from feature\n", readFile(t, filepath.Join(h.l.BranchDir("feature"), "README.md")))
}

func TestOpenPullRequestGate(t *testing.T) {
	prs := fakePRs{prs: []gh.PullRequest{{Number: 7, State: "OPEN"}}}

	t.Run("declined", func(t *testing.T) {
		prompt := &scripted{confirms: []bool{false}}
		h := newHarness(t, prompt, prs)
		h.l.AddBranch(t, "feature", "main")
		h.l.Commit(t, "main", "main.txt", "main\n", "main work")
		before := h.l.Head(t, "feature")

		res, err := h.engine.Rebase(Request{Child: "feature", Parent: "main"})
		require.NoError(t, err)

		assert.True(t, res.Skipped)
		assert.Equal(t, Idle, res.State)
		assert.Equal(t, before, h.l.Head(t, "feature"))
		assert.Contains(t, h.out.String(), "Open PR exists for branch feature: #7")
	})

	t.Run("accepted", func(t *testing.T) {
		prompt := &scripted{confirms: []bool{true}}
		h := newHarness(t, prompt, prs)
		h.l.AddBranch(t, "feature", "main")
		h.l.Commit(t, "main", "main.txt", "main\n", "main work")

		res, err := h.engine.Rebase(Request{Child: "feature", Parent: "main"})
		require.NoError(t, err)
		assert.Equal(t, Succeeded, res.State)
	})

	t.Run("hosting unreachable", func(t *testing.T) {
		h := newHarness(t, &scripted{}, fakePRs{err: errors.New("gh: not logged in")})
		h.l.AddBranch(t, "feature", "main")

		res, err := h.engine.Rebase(Request{Child: "feature", Parent: "main"})
		require.NoError(t, err)
		assert.Equal(t, Succeeded, res.State)
		assert.Contains(t, h.out.String(), "Could not check for open pull requests")
	})
}

func TestRebaseFromUpstream(t *testing.T) {
	h := newHarness(t, &scripted{}, nil)
	l := h.l
	other := filepath.Join(l.Root, "other")
	l.Git(t, l.Root, "clone", "--quiet", "--branch", "main", l.Upstream, other)
	l.Git(t, other, "config", "user.email", "test@test.com")
	l.Git(t, other, "config", "user.name", "Test User")
	l.Git(t, other, "config", "commit.gpgsign", "false")
	require.NoError(t, os.WriteFile(filepath.Join(other, "up.txt"), []byte("up\n"), 0644))
	l.Git(t, other, "add", "up.txt")
	l.Git(t, other, "commit", "--quiet", "-m", "upstream work")
	l.Git(t, other, "push", "--quiet", "origin", "main")
	upstreamHead := l.Git(t, other, "rev-parse", "HEAD")

	res, err := h.engine.Rebase(Request{Child: "main", Parent: "upstream/main"})
	require.NoError(t, err)

	assert.Equal(t, Succeeded, res.State)
	assert.Equal(t, upstreamHead, l.Head(t, "main"))
}

func TestRebaseUpstreamOntoIsRejected(t *testing.T) {
	h := newHarness(t, &scripted{}, nil)
	_, err := h.engine.Rebase(Request{Child: "main", Parent: "upstream/main", Onto: "main"})

	var userErr *errors.UserError
	assert.ErrorAs(t, err, &userErr)
}

func TestRebaseWithoutWorktree(t *testing.T) {
	h := newHarness(t, &scripted{}, nil)
	h.l.Git(t, h.l.MainDir, "branch", "loose", "main")

	_, err := h.engine.Rebase(Request{Child: "loose", Parent: "main"})

	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.Contains(t, err.Error(), "gee repair")
}

func TestRebaseWhileStalled(t *testing.T) {
	h := newHarness(t, &scripted{}, nil)
	conflictingBranches(t, h.l)
	_, err := h.l.GitCanFail(h.l.BranchDir("feature"), "rebase", "main")
	require.Error(t, err)

	_, err = h.engine.Rebase(Request{Child: "feature", Parent: "main"})
	assert.ErrorIs(t, err, errors.ErrRebaseStalled)
}

func TestResume(t *testing.T) {
	prompt := &scripted{actions: []Action{KeepNew}}
	h := newHarness(t, prompt, nil)
	conflictingBranches(t, h.l)
	require.NoError(t, h.store.SetParent("feature", "main"))
	_, err := h.l.GitCanFail(h.l.BranchDir("feature"), "rebase", "main")
	require.Error(t, err)

	res, err := h.engine.Resume(mustRepo(t, h.l.BranchDir("feature")))
	require.NoError(t, err)

	assert.Equal(t, Succeeded, res.State)
	assert.Equal(t, "feature", res.Child)
	assert.True(t, h.l.IsAncestor(t, "main", "feature"))
	assert.Equal(t, "from feature\n", readFile(t, filepath.Join(h.l.BranchDir("feature"), "README.md")))
}

func TestResumeWithoutRebase(t *testing.T) {
	h := newHarness(t, &scripted{}, nil)
	_, err := h.engine.Resume(mustRepo(t, h.l.MainDir))

	var userErr *errors.UserError
	assert.ErrorAs(t, err, &userErr)
}

func TestConflictLabel(t *testing.T) {
	assert.Equal(t, "Deleted by them", ConflictLabel("UD"))
	assert.Equal(t, "Added by us", ConflictLabel("AU"))
	assert.Contains(t, ConflictLabel("XY"), "XY")
}

func TestFileHasConflictMarkers(t *testing.T) {
	dir := t.TempDir()
	marked := filepath.Join(dir, "marked")
	clean := filepath.Join(dir, "clean")
	require.NoError(t, os.WriteFile(marked, []byte("a\n<<<<<<< HEAD\nb\n=======\nc\n>>>>>>> feat\n"), 0644))
	require.NoError(t, os.WriteFile(clean, []byte("a\n=======\nc\n"), 0644))

	assert.True(t, fileHasConflictMarkers(marked))
	assert.False(t, fileHasConflictMarkers(clean))
	assert.False(t, fileHasConflictMarkers(filepath.Join(dir, "missing")))
}

type noTools struct{}

func (noTools) MergeTool(*git.Repo, string, string) error { return nil }
func (noTools) Shell(string, []string) error               { return nil }
func (noTools) ViewPatch(*git.Repo, string) error          { return nil }
