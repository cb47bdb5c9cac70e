package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var whatsoutCmd = &cobra.Command{
	Use:   "whatsout",
	Short: "List the files this branch changes",
	Long:  `Report which files in this branch differ from its parent branch.`,
	Args:  cobra.NoArgs,
	RunE:  runWhatsout,
}

func init() {
	rootCmd.AddCommand(whatsoutCmd)
}

func runWhatsout(cmd *cobra.Command, args []string) (err error) {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.release(&err)

	branch, err := ws.requireBranch()
	if err != nil {
		return err
	}
	parent, err := ws.store.Parent(branch)
	if err != nil {
		return err
	}

	files, err := ws.repo.ChangedFiles(parent + "..." + branch)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	}

	changes, err := ws.repo.UncommittedChanges()
	if err != nil {
		return err
	}
	if len(changes) > 0 {
		ws.log.Infof("Note: This branch contains uncommitted changes.")
	}
	return nil
}
