package cmd

import (
	"github.com/spf13/cobra"

	"github.com/israelmalagutti/gee/internal/errors"
	"github.com/israelmalagutti/gee/internal/squash"
)

var propagateUnsquashed string

var propagateCmd = &cobra.Command{
	Use:   "propagate [merged-branch]",
	Short: "Rebase the children of a squash-merged branch",
	Long: `After a branch was squash-merged and reset onto the squashed commit, its
child branches still carry the original commits, and would conflict with
the squashed commit on their next update.

propagate finds every branch containing those commits, or recorded as a
descendant of the merged branch, and rebases each one onto the merged
branch, replaying only its own commits.

The head of the merged branch from before the squash must be tagged, by
default as <merged-branch>-unsquashed:

  git tag --force fix-login-unsquashed fix-login
  # squash-merge fix-login, then:
  git -C <repo>/fix-login reset --hard upstream/main
  gee propagate fix-login`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPropagate,
}

func init() {
	propagateCmd.Flags().StringVar(&propagateUnsquashed, "unsquashed", "", "Ref of the head before the squash merge (default: <merged-branch>-unsquashed)")
	rootCmd.AddCommand(propagateCmd)
}

func runPropagate(cmd *cobra.Command, args []string) (err error) {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.release(&err)

	merged := ws.current
	if len(args) > 0 {
		merged = args[0]
	}
	if merged == "" {
		return errors.Userf("Must specify the merged branch.")
	}
	unsquashed := propagateUnsquashed
	if unsquashed == "" {
		unsquashed = squash.UnsquashedTag(merged)
	}

	p := squash.NewPropagator(ws.registry.MainRepo(), ws.store, ws.chains, ws.engine, ws.prompt, ws.log)
	if _, err := p.Propagate(merged, unsquashed); err != nil {
		return err
	}
	ws.log.Infof("Done.")
	return nil
}
