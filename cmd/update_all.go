package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/israelmalagutti/gee/internal/errors"
)

var updateAllCmd = &cobra.Command{
	Use:   "update_all",
	Short: "Rebase every local branch onto its parent",
	Long: `Update all local branches in order, rebasing each child branch onto its
parent after the parent itself was updated.

Branches with uncommitted changes are skipped. Branches that fail to update
are reported at the end.`,
	Aliases: []string{"up_all"},
	Args:    cobra.NoArgs,
	RunE:    runUpdateAll,
}

func init() {
	rootCmd.AddCommand(updateAllCmd)
}

func runUpdateAll(cmd *cobra.Command, args []string) (err error) {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.release(&err)

	branches, err := ws.registry.MainRepo().ListBranches()
	if err != nil {
		return err
	}
	chain, err := ws.chains.ChainForAll(branches)
	if err != nil {
		return err
	}
	ws.log.Infof("Updating %s", strings.Join(chain, " "))

	var failed []string
	for _, b := range chain {
		ws.log.Banner("Updating branch \"" + b + "\"")

		_, err := ws.rebaseOntoParent(b)
		switch {
		case err == nil:
		case errors.Is(err, errors.ErrUncommittedChanges):
			ws.log.Warnf("%v", err)
			ws.log.Lines("This branch will not be updated.")
		default:
			var bug *errors.InvariantError
			if errors.As(err, &bug) {
				return err
			}
			ws.log.Warnf("Failed to update %s: %v", b, err)
			failed = append(failed, b)
		}
	}

	if len(failed) > 0 {
		return errors.Userf("The following branches could not be updated: %s", strings.Join(failed, " "))
	}
	ws.log.Infof("Done.")
	return nil
}
