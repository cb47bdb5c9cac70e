package cmd

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/israelmalagutti/gee/internal/errors"
)

var version = "0.1.0"

var (
	yesFlag     bool
	verboseFlag bool
	quietFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "gee",
	Short: "gee - one worktree per branch, rebased onto its parent",
	Long: `gee manages a tree of branches, each checked out in its own directory
next to the main checkout:

  <repo>/main        the main branch, owner of the shared .git
  <repo>/<branch>    one worktree per branch

Every branch remembers its parent. gee keeps branches rebased onto their
parents, walks you through conflicts, backs branches up to your origin
remote, and moves child branches along after a squash merge.`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

// Execute runs the root command and returns the process exit code
func Execute() int {
	err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version))
	return errors.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "Answer yes to every question, even those that default to no, and keep the new version of conflicting files")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Only print warnings and errors")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Trace every git and gh invocation")
}

func setupLogging(cmd *cobra.Command, args []string) error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	if verboseFlag {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
	return nil
}
