// Package errors defines the error kinds gee distinguishes: expected user
// errors, internal invariant violations, and failures of the git and gh tools.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors that can be used with errors.Is() for error type checking
var (
	// ErrNotFound is wrapped by NotFoundError
	ErrNotFound = errors.New("not found")

	// ErrRebaseAborted indicates the user aborted a rebase during conflict resolution
	ErrRebaseAborted = errors.New("rebase aborted")

	// ErrRebaseStalled indicates a rebase is still stopped on a conflict
	ErrRebaseStalled = errors.New("rebase still in progress")

	// ErrUncommittedChanges indicates a working directory has uncommitted modifications
	ErrUncommittedChanges = errors.New("uncommitted changes")

	// ErrParentageCycle indicates the parent graph contains a cycle
	ErrParentageCycle = errors.New("parentage cycle")

	// ErrChainTooDeep indicates the parent graph is deeper than the configured bound
	ErrChainTooDeep = errors.New("parentage chain too deep")
)

// Exit codes returned by the gee binary.
const (
	ExitSuccess   = 0
	ExitUserError = 1
	ExitBug       = 2
)

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Is reports whether target is in err's chain.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GitError represents a failed invocation of git or gh.
// It keeps the command line and the combined output for diagnostics.
type GitError struct {
	Tool   string
	Args   []string
	Dir    string
	Err    error
	Output string
}

func (e *GitError) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Tool, strings.Join(e.Args, " "))
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Output != "" {
		msg = fmt.Sprintf("%s\n%s", msg, e.Output)
	}
	return msg
}

func (e *GitError) Unwrap() error {
	return e.Err
}

// UserError is an expected failure caused by repository state or arguments.
// It is reported as a single line, plus optional hints, without diagnostics.
type UserError struct {
	Msg   string
	Hints []string
	Err   error
}

func (e *UserError) Error() string {
	if len(e.Hints) == 0 {
		return e.Msg
	}
	return e.Msg + "\n  " + strings.Join(e.Hints, "\n  ")
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// Userf builds a UserError from a format string.
func Userf(format string, args ...any) *UserError {
	return &UserError{Msg: fmt.Sprintf(format, args...)}
}

// WithHints attaches remediation hints to a UserError.
func (e *UserError) WithHints(hints ...string) *UserError {
	e.Hints = append(e.Hints, hints...)
	return e
}

// Wrapping attaches a sentinel or cause so callers can match with errors.Is.
func (e *UserError) Wrapping(err error) *UserError {
	e.Err = err
	return e
}

// InvariantError signals a condition that should never happen: either a bug
// in gee or an unexpected interaction with git. State carries what was observed.
type InvariantError struct {
	Msg   string
	State []string
	Err   error
}

func (e *InvariantError) Error() string {
	var b strings.Builder
	b.WriteString("internal error: ")
	b.WriteString(e.Msg)
	for _, s := range e.State {
		b.WriteString("\n  ")
		b.WriteString(s)
	}
	return b.String()
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}

// Invariantf builds an InvariantError from a format string.
func Invariantf(format string, args ...any) *InvariantError {
	return &InvariantError{Msg: fmt.Sprintf(format, args...)}
}

// Observed appends observed state lines to the error.
func (e *InvariantError) Observed(state ...string) *InvariantError {
	e.State = append(e.State, state...)
	return e
}

// Wrapping attaches a sentinel or cause so callers can match with errors.Is.
func (e *InvariantError) Wrapping(err error) *InvariantError {
	e.Err = err
	return e
}

// NotFoundError reports a missing named entity, such as a branch worktree.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var bug *InvariantError
	if errors.As(err, &bug) {
		return ExitBug
	}
	return ExitUserError
}
