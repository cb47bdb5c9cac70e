// Package parentage persists which branch each branch was made from.
//
// The parents file lives at <repo-dir>/.gee/parents and holds one line per
// branch with three shell-quoted fields: branch, parent, and the merge-base
// recorded by the last rebase. It is meant to be readable and hand-editable.
package parentage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/israelmalagutti/gee/internal/colors"
	"github.com/israelmalagutti/gee/internal/errors"
)

// Record is one line of the parents file
type Record struct {
	Branch    string
	Parent    string
	MergeBase string
}

// Store is the in-memory parentage table. It loads lazily on first use, and
// after that the in-memory copy is authoritative: the file is never re-read.
// Callers must Close the store to flush it.
type Store struct {
	path           string
	main           string
	upstreamRemote string
	log            *colors.Splog

	loaded  bool
	records map[string]*Record
}

// NewStore creates a store backed by path
func NewStore(path, main, upstreamRemote string, log *colors.Splog) *Store {
	if log == nil {
		log = colors.NewSplog()
	}
	return &Store{
		path:           path,
		main:           main,
		upstreamRemote: upstreamRemote,
		log:            log,
		records:        make(map[string]*Record),
	}
}

// Path returns the location of the parents file
func (s *Store) Path() string {
	return s.path
}

// Main returns the name of the main branch
func (s *Store) Main() string {
	return s.main
}

// UpstreamMain is the implicit parent of the main branch
func (s *Store) UpstreamMain() string {
	return s.upstreamRemote + "/" + s.main
}

// IsUpstream reports whether ref names something on the upstream remote.
// Upstream refs are pulled from, never rebased. Local branches must not
// use the prefix.
func (s *Store) IsUpstream(ref string) bool {
	return strings.HasPrefix(ref, s.upstreamRemote+"/")
}

// Load reads the parents file, creating it when missing.
// Calling Load again is a no-op.
func (s *Store) Load() error {
	if s.loaded {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(s.path), err)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read parents file: %w", err)
		}
		if err := os.WriteFile(s.path, nil, 0644); err != nil {
			return fmt.Errorf("failed to create parents file: %w", err)
		}
	}

	records, err := parse(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	s.records = records
	s.loaded = true
	return nil
}

func parse(data string) (map[string]*Record, error) {
	records := make(map[string]*Record)
	for n, line := range strings.Split(data, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields, err := shellquote.Split(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+1, err)
		}
		switch len(fields) {
		case 2:
			fields = append(fields, "")
		case 3:
		default:
			return nil, fmt.Errorf("line %d: expected 3 fields, got %d", n+1, len(fields))
		}
		records[fields[0]] = &Record{Branch: fields[0], Parent: fields[1], MergeBase: fields[2]}
	}
	return records, nil
}

// format renders records sorted by branch name
func format(records map[string]*Record) string {
	var b strings.Builder
	for _, name := range sortedKeys(records) {
		r := records[name]
		b.WriteString(shellquote.Join(r.Branch, r.Parent, r.MergeBase))
		b.WriteString("\n")
	}
	return b.String()
}

// Save writes the table back. It refuses to replace a non-empty file with an
// empty table.
func (s *Store) Save() error {
	if !s.loaded {
		return nil
	}

	if len(s.records) == 0 {
		if fi, err := os.Stat(s.path); err == nil && fi.Size() > 0 {
			s.log.Warnf("Almost wrote empty parents file %s; keeping the old one.", s.path)
			return nil
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(format(s.records)), 0644); err != nil {
		return fmt.Errorf("failed to write parents file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace parents file: %w", err)
	}
	return nil
}

// Close flushes the table if it was ever loaded
func (s *Store) Close() error {
	return s.Save()
}

// Parent returns the parent of branch. The main branch's parent is the
// upstream main. A branch with no record is assumed to be a child of main;
// the guess is recorded so that it is persisted.
func (s *Store) Parent(branch string) (string, error) {
	if err := s.Load(); err != nil {
		return "", err
	}
	if r, ok := s.records[branch]; ok && r.Parent != "" {
		return r.Parent, nil
	}

	parent := s.main
	if branch == s.main {
		parent = s.UpstreamMain()
	} else {
		s.log.Warnf("Unknown parent of %s, assuming %s.", branch, s.main)
	}
	s.record(branch).Parent = parent
	return parent, nil
}

// Lookup returns the record of branch without guessing
func (s *Store) Lookup(branch string) (Record, bool, error) {
	if err := s.Load(); err != nil {
		return Record{}, false, err
	}
	r, ok := s.records[branch]
	if !ok {
		return Record{}, false, nil
	}
	return *r, true, nil
}

// SetParent overwrites the parent of branch
func (s *Store) SetParent(branch, parent string) error {
	if err := s.Load(); err != nil {
		return err
	}
	s.record(branch).Parent = parent
	return nil
}

// SetMergeBase records the merge-base of branch with its parent
func (s *Store) SetMergeBase(branch, sha string) error {
	if err := s.Load(); err != nil {
		return err
	}
	s.record(branch).MergeBase = sha
	return nil
}

func (s *Store) record(branch string) *Record {
	r, ok := s.records[branch]
	if !ok {
		r = &Record{Branch: branch}
		s.records[branch] = r
	}
	return r
}

// ChildrenOf returns the branches whose parent is branch
func (s *Store) ChildrenOf(branch string) ([]string, error) {
	if err := s.Load(); err != nil {
		return nil, err
	}
	var children []string
	for _, name := range sortedKeys(s.records) {
		if s.records[name].Parent == branch {
			children = append(children, name)
		}
	}
	return children, nil
}

// AllChildrenOf returns every transitive descendant of branch, sorted.
// Each branch is visited at most once, so a cyclic table still terminates.
func (s *Store) AllChildrenOf(branch string) ([]string, error) {
	if err := s.Load(); err != nil {
		return nil, err
	}
	visited := map[string]bool{branch: true}
	queue := []string{branch}
	var found []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, name := range sortedKeys(s.records) {
			if s.records[name].Parent != current || visited[name] {
				continue
			}
			visited[name] = true
			found = append(found, name)
			queue = append(queue, name)
		}
	}
	sort.Strings(found)
	return found, nil
}

// Remove deletes branch and splices its children onto its former parent
func (s *Store) Remove(branch string) error {
	if err := s.Load(); err != nil {
		return err
	}
	if branch == s.main {
		return errors.Userf("refusing to remove the parentage of %s", s.main)
	}

	former := s.main
	if r, ok := s.records[branch]; ok && r.Parent != "" {
		former = r.Parent
	}
	delete(s.records, branch)

	for _, r := range s.records {
		if r.Parent == branch {
			r.Parent = former
		}
	}
	return nil
}

// Records returns a copy of every record, sorted by branch
func (s *Store) Records() ([]Record, error) {
	if err := s.Load(); err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(s.records))
	for _, name := range sortedKeys(s.records) {
		records = append(records, *s.records[name])
	}
	return records, nil
}

func sortedKeys(records map[string]*Record) []string {
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
