package git

import (
	"fmt"
	"strings"
)

// StatusEntry is one line of `git status --porcelain`
type StatusEntry struct {
	// Code is the two-letter XY status, e.g. "UU" for both modified
	Code string
	Path string
}

// IsUnmerged reports whether the entry is a merge conflict
func (e StatusEntry) IsUnmerged() bool {
	switch e.Code {
	case "DD", "AU", "UD", "UA", "DU", "AA", "UU":
		return true
	}
	return false
}

// Status returns the porcelain status of the working tree
func (r *Repo) Status() ([]StatusEntry, error) {
	output, err := r.RunGitCommandRaw("status", "--porcelain", "-z")
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	return ParseStatus(output), nil
}

// ParseStatus parses `git status --porcelain -z` output. Paths are taken
// verbatim; git does not quote them in this format.
func ParseStatus(output string) []StatusEntry {
	var entries []StatusEntry
	fields := strings.Split(output, "\x00")
	for i := 0; i < len(fields); i++ {
		field := fields[i]
		if len(field) < 4 {
			continue
		}
		code := field[:2]
		entries = append(entries, StatusEntry{Code: code, Path: field[3:]})
		// renames and copies carry the source path in the next field
		if strings.ContainsAny(code, "RC") {
			i++
		}
	}
	return entries
}

// UncommittedChanges lists modified and untracked files in the working tree
func (r *Repo) UncommittedChanges() ([]string, error) {
	output, err := r.RunGitCommandRaw("status", "--short", "-uall")
	if err != nil {
		return nil, fmt.Errorf("failed to check for uncommitted changes: %w", err)
	}
	var changes []string
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) != "" {
			changes = append(changes, line)
		}
	}
	return changes, nil
}

// ConflictMarkers lists the diff --check complaints about leftover conflict
// markers, in both the working tree and the index.
func (r *Repo) ConflictMarkers() []string {
	var markers []string
	for _, args := range [][]string{{"diff", "--check"}, {"diff", "--cached", "--check"}} {
		output := r.RunGitCommandCanFail(args...)
		for _, line := range strings.Split(output, "\n") {
			if strings.Contains(line, "conflict marker") {
				markers = append(markers, line)
			}
		}
	}
	return markers
}

// AddPath stages one path
func (r *Repo) AddPath(path string) error {
	if _, err := r.RunGitCommand("add", "--", path); err != nil {
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}
	return nil
}

// AddAll stages every change in the working tree
func (r *Repo) AddAll() error {
	if _, err := r.RunGitCommand("add", "."); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}
	return nil
}

// CheckoutSide resolves a conflicted path with one side's version.
// side is "--ours" or "--theirs".
func (r *Repo) CheckoutSide(side, path string) error {
	if _, err := r.RunGitCommand("checkout", side, "--", path); err != nil {
		return fmt.Errorf("failed to checkout %s version of %s: %w", side, path, err)
	}
	return nil
}

// RemovePath deletes a path from the index and the working tree
func (r *Repo) RemovePath(path string) error {
	if _, err := r.RunGitCommand("rm", "--quiet", "-f", "--", path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
