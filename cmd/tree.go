package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/israelmalagutti/gee/internal/errors"
	"github.com/israelmalagutti/gee/internal/stack"
)

var (
	treeShort bool
	treeLong  bool
	treeASCII bool
)

var treeCmd = &cobra.Command{
	Use:   "tree [branch]",
	Short: "Show the branches as a tree of parents and children",
	Long: `Display the parentage of all local branches as a tree rooted at the main
branch, with the current branch highlighted. Branches whose parent is
missing, or part of a cycle, are shown under the main branch with a note.

With a branch argument, shows only the path from the main branch to it.

Modes:
  gee tree          - Tree view with commit SHAs
  gee tree --short  - Compact indented view (● = current, ○ = other)
  gee tree --long   - Tree view with commit messages`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().BoolVar(&treeShort, "short", false, "Show compact view")
	treeCmd.Flags().BoolVar(&treeLong, "long", false, "Show commit messages")
	treeCmd.Flags().BoolVar(&treeASCII, "ascii", false, "Draw with ASCII characters only")
}

func runTree(cmd *cobra.Command, args []string) (err error) {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.release(&err)

	repo := ws.registry.MainRepo()
	s, err := stack.BuildStack(repo, ws.store, ws.current)
	if err != nil {
		return fmt.Errorf("failed to build branch tree: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(args) > 0 {
		path := s.RenderPath(args[0])
		if path == "" {
			return errors.Userf("Branch %s does not exist.", args[0])
		}
		fmt.Fprintln(out, path)
		return nil
	}

	opts := stack.TreeOptions{
		ShowCommitSHA: true,
		ShowCommitMsg: treeLong,
		ASCII:         treeASCII,
	}
	if treeShort {
		fmt.Fprint(out, s.RenderShort(opts))
	} else {
		fmt.Fprint(out, s.RenderTree(repo, opts))
	}
	return nil
}
