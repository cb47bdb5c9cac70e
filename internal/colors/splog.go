package colors

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Splog reports progress to the user with semantic colors.
// Every method writes whole lines. Debug output goes through zerolog instead.
type Splog struct {
	out   io.Writer
	quiet bool
	width int
}

// NewSplog creates a Splog writing to stderr, leaving stdout for command results.
func NewSplog() *Splog {
	return NewSplogTo(os.Stderr)
}

// NewSplogTo creates a Splog writing to w.
func NewSplogTo(w io.Writer) *Splog {
	return &Splog{out: w, width: 78}
}

// SetQuiet enables/disables quiet mode (suppresses info output)
func (s *Splog) SetQuiet(quiet bool) {
	s.quiet = quiet
}

// Infof prints an informational line
func (s *Splog) Infof(format string, a ...any) {
	if s.quiet {
		return
	}
	fmt.Fprintln(s.out, Info(fmt.Sprintf(format, a...)))
}

// Lines prints each line with the info style
func (s *Splog) Lines(lines ...string) {
	for _, line := range lines {
		s.Infof("%s", line)
	}
}

// Successf prints a success line (green)
func (s *Splog) Successf(format string, a ...any) {
	if s.quiet {
		return
	}
	fmt.Fprintln(s.out, Success("✓ ")+fmt.Sprintf(format, a...))
}

// Warnf prints a warning line. Warnings are never suppressed.
func (s *Splog) Warnf(format string, a ...any) {
	fmt.Fprintln(s.out, Warning("WARNING: "+fmt.Sprintf(format, a...)))
}

// Errorf prints an error line. Errors are never suppressed.
func (s *Splog) Errorf(format string, a ...any) {
	fmt.Fprintln(s.out, Error("FATAL: ")+fmt.Sprintf(format, a...))
}

// Tipf prints a muted hint line
func (s *Splog) Tipf(format string, a ...any) {
	if s.quiet {
		return
	}
	fmt.Fprintln(s.out, Muted("tip: "+fmt.Sprintf(format, a...)))
}

// Debugf forwards to the zerolog debug level
func (s *Splog) Debugf(format string, a ...any) {
	log.Debug().Msgf(format, a...)
}

// Banner prints lines framed by a bar, to separate the phases of a long operation.
func (s *Splog) Banner(lines ...string) {
	if s.quiet {
		return
	}
	width := 0
	for _, line := range lines {
		if len(line) > width {
			width = len(line)
		}
	}
	if width > s.width-4 {
		width = s.width - 4
	}
	bar := strings.Repeat("#", width+4)
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, Banner(bar))
	for _, line := range lines {
		if len(line) > width {
			line = line[:width]
		}
		fmt.Fprintln(s.out, Banner(fmt.Sprintf("# %-*s #", width, line)))
	}
	fmt.Fprintln(s.out, Banner(bar))
}

// Rebased prints rebase feedback
func (s *Splog) Rebased(branch, onto string) {
	s.Successf("Rebased %s onto %s", BranchCurrent(branch), BranchParent(onto))
}

// Conflict prints conflict feedback
func (s *Splog) Conflict(branch, onto string) {
	s.Warnf("Conflict rebasing %s onto %s", branch, onto)
}

// Created prints branch creation feedback
func (s *Splog) Created(branch, parent, dir string) {
	s.Successf("Created %s from %s in %s", BranchCurrent(branch), BranchParent(parent), Muted(dir))
}

// Deleted prints branch deletion feedback
func (s *Splog) Deleted(branch string) {
	s.Successf("Deleted branch %s", Muted(branch))
}

// AlreadyUpToDate prints "already up to date"
func (s *Splog) AlreadyUpToDate(branch string) {
	if s.quiet {
		return
	}
	fmt.Fprintln(s.out, Info(branch)+" is already up to date")
}
