package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/israelmalagutti/gee/internal/colors"
	"github.com/israelmalagutti/gee/internal/config"
	"github.com/israelmalagutti/gee/internal/divergence"
	"github.com/israelmalagutti/gee/internal/errors"
	"github.com/israelmalagutti/gee/internal/gh"
	"github.com/israelmalagutti/gee/internal/git"
	"github.com/israelmalagutti/gee/internal/parentage"
	"github.com/israelmalagutti/gee/internal/rebase"
	"github.com/israelmalagutti/gee/internal/stack"
	"github.com/israelmalagutti/gee/internal/worktree"
)

// workspace is everything a command needs to act on a gee repository.
// Commands must defer release so the parentage table is written back on
// every exit path.
type workspace struct {
	// repo is the worktree the command was started in, or the main checkout
	repo *git.Repo
	// current is the branch checked out in repo, "" when detached
	current string
	main    string

	cfg        *config.Config
	log        *colors.Splog
	store      *parentage.Store
	registry   *worktree.Registry
	prompt     rebase.Prompter
	engine     *rebase.Engine
	chains     *stack.Builder
	divergence *divergence.Calculator
}

// interactive reports whether questions can be asked on the terminal
func interactive(cfg *config.Config) bool {
	if yesFlag || cfg.NonInteractive {
		return false
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func openWorkspace() (*workspace, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	repo, err := openRepoFrom(wd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(repo.GetConfigPath())
	if err != nil {
		return nil, err
	}

	registry, err := worktree.NewRegistry(repo)
	if err != nil {
		return nil, err
	}

	mainBranch := cfg.Main
	if mainBranch == "" {
		b, ok := registry.MainBranch()
		if !ok {
			return nil, errors.Userf("The main checkout %s is not on a branch.", repo.MainWorktreeDir()).
				WithHints("Check out the main branch there, or set main in " + repo.GetConfigPath())
		}
		mainBranch = b
	}

	log := colors.NewSplog()
	log.SetQuiet(quietFlag)
	store := parentage.NewStore(repo.GetParentsPath(), mainBranch, cfg.UpstreamRemote, log)

	var prompt rebase.Prompter = rebase.SurveyPrompter{}
	if !interactive(cfg) {
		prompt = rebase.AutoPrompter{Log: log}
	}

	deps := rebase.Deps{
		Registry: registry,
		Store:    store,
		Prompter: prompt,
		Log:      log,
	}
	if cfg.UpstreamRepo != "" {
		deps.PullRequests = gh.NewClient(cfg.UpstreamRepo, cfg.GitHubUser)
	}

	current, _ := repo.GetCurrentBranch()

	return &workspace{
		repo:     repo,
		current:  current,
		main:     mainBranch,
		cfg:      cfg,
		log:      log,
		store:    store,
		registry: registry,
		prompt:   prompt,
		engine: rebase.NewEngine(deps, rebase.Options{
			UpstreamRemote: cfg.UpstreamRemote,
			OriginRemote:   cfg.OriginRemote,
			GUIMergeTool:   cfg.GUIMergeTool,
		}),
		chains:     stack.NewBuilder(store, cfg.MaxChainDepth),
		divergence: divergence.NewCalculator(registry.MainRepo(), cfg.OriginRemote),
	}, nil
}

// openRepoFrom opens the worktree containing dir. From the repository
// directory itself, which holds the worktrees but is not one, it opens the
// main checkout.
func openRepoFrom(dir string) (*git.Repo, error) {
	if git.IsGitRepo(dir) {
		return git.OpenRepo(dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		// only the main checkout has a .git directory; worktrees have a .git file
		info, err := os.Stat(filepath.Join(dir, e.Name(), ".git"))
		if err == nil && info.IsDir() {
			return git.OpenRepo(filepath.Join(dir, e.Name()))
		}
	}
	return nil, errors.Userf("%s is not a gee repository or branch directory.", dir)
}

// requireBranch returns the current branch, failing outside a branch worktree
func (w *workspace) requireBranch() (string, error) {
	if w.current == "" {
		return "", errors.Userf("Not in a branch directory: %s", w.repo.GetWorkDir())
	}
	return w.current, nil
}

// resumeStalled finishes a rebase left stopped in the current directory,
// e.g. by an earlier run that was killed, and returns the branch it was
// rebasing. It returns "" when no rebase is in progress.
func (w *workspace) resumeStalled() (string, error) {
	if !w.repo.IsRebaseInProgress() {
		return "", nil
	}
	w.log.Warnf("A rebase is in progress in %s; resuming it.", w.repo.GetWorkDir())
	res, err := w.engine.Resume(w.repo)
	if err != nil {
		return "", err
	}
	w.current = res.Child
	return res.Child, nil
}

// release writes the parentage table back, keeping the first error
func (w *workspace) release(errp *error) {
	if err := w.store.Close(); err != nil {
		if *errp == nil {
			*errp = err
			return
		}
		w.log.Errorf("Failed to save %s: %v", w.store.Path(), err)
	}
}

// confirm asks a yes/no question, or takes the default when not interactive
func (w *workspace) confirm(message string, defaultYes bool) (bool, error) {
	return w.prompt.Confirm(message, defaultYes)
}
