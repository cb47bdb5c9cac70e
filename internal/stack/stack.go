// Package stack turns the parentage table into orderings and trees of branches.
package stack

import (
	"fmt"
	"sort"

	"github.com/israelmalagutti/gee/internal/git"
	"github.com/israelmalagutti/gee/internal/parentage"
)

// Node represents a branch in the branch tree
type Node struct {
	Name      string
	Parent    *Node
	Children  []*Node
	IsTrunk   bool
	IsCurrent bool
	CommitSHA string
	// Note explains a branch that hangs off the trunk for lack of a usable parent
	Note string
}

// Stack is the parentage forest of a repository, rooted at the main branch
type Stack struct {
	Trunk     *Node
	Nodes     map[string]*Node
	Current   string
	TrunkName string
}

// BuildStack builds the tree of local branches from the parentage table.
// It only reads the table; branches without a usable local parent are shown
// under the trunk with a note instead of being guessed.
func BuildStack(repo *git.Repo, store *parentage.Store, current string) (*Stack, error) {
	trunkName := store.Main()
	stack := &Stack{
		Nodes:     make(map[string]*Node),
		Current:   current,
		TrunkName: trunkName,
	}

	if !repo.BranchExists(trunkName) {
		return nil, fmt.Errorf("main branch '%s' does not exist", trunkName)
	}

	trunkSHA, _ := repo.RevParse(trunkName)
	stack.Trunk = &Node{
		Name:      trunkName,
		IsTrunk:   true,
		IsCurrent: trunkName == current,
		CommitSHA: trunkSHA,
	}
	stack.Nodes[trunkName] = stack.Trunk

	branches, err := repo.ListBranches()
	if err != nil {
		return nil, err
	}
	sort.Strings(branches)
	for _, name := range branches {
		if name == trunkName {
			continue
		}
		sha, _ := repo.RevParse(name)
		stack.Nodes[name] = &Node{
			Name:      name,
			IsCurrent: name == current,
			CommitSHA: sha,
		}
	}

	for _, name := range branches {
		if name == trunkName {
			continue
		}
		rec, ok, err := store.Lookup(name)
		if err != nil {
			return nil, err
		}
		node := stack.Nodes[name]

		switch parent := stack.Nodes[rec.Parent]; {
		case !ok || rec.Parent == "":
			stack.attach(node, stack.Trunk, "no recorded parent")
		case store.IsUpstream(rec.Parent):
			note := ""
			if rec.Parent != store.UpstreamMain() {
				note = "on " + rec.Parent
			}
			stack.attach(node, stack.Trunk, note)
		case parent == nil:
			stack.attach(node, stack.Trunk, "parent "+rec.Parent+" is gone")
		case parent == node || stack.descends(parent, node):
			stack.attach(node, stack.Trunk, "parentage cycle through "+rec.Parent)
		default:
			stack.attach(node, parent, "")
		}
	}

	return stack, nil
}

func (s *Stack) attach(child, parent *Node, note string) {
	child.Parent = parent
	child.Note = note
	parent.Children = append(parent.Children, child)
}

// descends reports whether node sits at or below ancestor in the tree built so far
func (s *Stack) descends(node, ancestor *Node) bool {
	for n := node; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}

// GetNode returns a node by branch name
func (s *Stack) GetNode(branch string) *Node {
	return s.Nodes[branch]
}

// FindPath finds the path from trunk to a given branch
func (s *Stack) FindPath(branch string) []*Node {
	node := s.GetNode(branch)
	if node == nil {
		return nil
	}

	path := []*Node{}
	current := node
	for current != nil {
		path = append([]*Node{current}, path...)
		current = current.Parent
	}

	return path
}

// GetStackDepth returns the depth of a branch in the tree (0 = trunk)
func (s *Stack) GetStackDepth(branch string) int {
	path := s.FindPath(branch)
	if path == nil {
		return -1
	}
	return len(path) - 1
}

// SortedChildren returns the children of a node sorted alphabetically by name
func (n *Node) SortedChildren() []*Node {
	if len(n.Children) == 0 {
		return nil
	}
	sorted := make([]*Node, len(n.Children))
	copy(sorted, n.Children)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// GetTopologicalOrder returns all non-trunk branches in topological order (parents before children)
func (s *Stack) GetTopologicalOrder() []*Node {
	var result []*Node
	visited := make(map[string]bool)

	var visit func(node *Node)
	visit = func(node *Node) {
		if visited[node.Name] {
			return
		}
		visited[node.Name] = true

		if !node.IsTrunk {
			result = append(result, node)
		}

		for _, child := range node.SortedChildren() {
			visit(child)
		}
	}

	if s.Trunk != nil {
		visit(s.Trunk)
	}

	return result
}
