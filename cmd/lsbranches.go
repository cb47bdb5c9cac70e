package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var lsbranchesNoFetch bool

var lsbranchesCmd = &cobra.Command{
	Use:   "lsbranches",
	Short: "List branches and how far they are from their parents",
	Long: `List every branch except the main branch, with how many commits it is
ahead of and behind its parent, and how many commits its origin copy has
that the local branch lacks.

Example:
  fix-login           : 2 ahead, 1 behind main
  fix-login-tests     : same as fix-login, 1 behind origin/fix-login-tests`,
	Aliases: []string{"lsb", "lsbr"},
	Args:    cobra.NoArgs,
	RunE:    runLsbranches,
}

func init() {
	lsbranchesCmd.Flags().BoolVar(&lsbranchesNoFetch, "no-fetch", false, "Do not fetch from the remotes first")
	rootCmd.AddCommand(lsbranchesCmd)
}

func runLsbranches(cmd *cobra.Command, args []string) (err error) {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.release(&err)

	main := ws.registry.MainRepo()
	if !lsbranchesNoFetch {
		for _, remote := range []string{ws.cfg.OriginRemote, ws.cfg.UpstreamRemote} {
			if !main.HasRemote(remote) {
				continue
			}
			if err := main.Fetch(remote); err != nil {
				ws.log.Warnf("%v", err)
			}
		}
	}

	branches, err := main.ListBranches()
	if err != nil {
		return err
	}
	sort.Strings(branches)

	out := cmd.OutOrStdout()
	for _, b := range branches {
		if b == ws.main {
			continue
		}
		parent, err := ws.store.Parent(b)
		if err != nil {
			return err
		}
		line, err := ws.divergence.Report(b, parent)
		if err != nil {
			ws.log.Warnf("Cannot compare %s with %s: %v", b, parent, err)
			continue
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
