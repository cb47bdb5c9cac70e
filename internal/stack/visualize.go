package stack

import (
	"fmt"
	"strings"

	"github.com/israelmalagutti/gee/internal/colors"
	"github.com/israelmalagutti/gee/internal/git"
)

// TreeOptions controls how the tree is rendered
type TreeOptions struct {
	ShowCommitSHA bool
	ShowCommitMsg bool
	ASCII         bool
}

func (o TreeOptions) chars() colors.TreeChars {
	if o.ASCII {
		return colors.ASCIITreeChars()
	}
	return colors.DefaultTreeChars()
}

// RenderTree renders the branch tree, trunk first
func (s *Stack) RenderTree(repo *git.Repo, opts TreeOptions) string {
	var result strings.Builder
	s.renderNode(&result, s.Trunk, "", true, repo, opts)
	return result.String()
}

func (s *Stack) branchLabel(node *Node, depth int) string {
	switch {
	case node.IsCurrent:
		return colors.BranchCurrent(node.Name)
	case node.IsTrunk:
		return colors.BranchTrunk(node.Name)
	default:
		return colors.CycleText(node.Name, depth)
	}
}

func (s *Stack) renderNode(result *strings.Builder, node *Node, prefix string, isLast bool, repo *git.Repo, opts TreeOptions) {
	if node == nil {
		return
	}

	depth := s.GetStackDepth(node.Name)
	chars := opts.chars()

	connector := chars.Tee + chars.Horizontal + chars.Horizontal
	if isLast {
		connector = chars.Corner + chars.Horizontal + chars.Horizontal
	}
	if node.Parent == nil {
		connector = chars.Bullet
		prefix = ""
	}

	result.WriteString(prefix)
	result.WriteString(colors.CycleText(connector, depth))
	result.WriteString(" ")
	result.WriteString(s.branchLabel(node, depth))

	if node.IsTrunk {
		result.WriteString(colors.Muted(" (main)"))
	}
	if node.Note != "" {
		result.WriteString(colors.Warning(" (" + node.Note + ")"))
	}
	if opts.ShowCommitSHA && len(node.CommitSHA) >= 7 {
		result.WriteString(colors.Muted(fmt.Sprintf(" [%s]", node.CommitSHA[:7])))
	}
	if opts.ShowCommitMsg && repo != nil {
		msg, err := repo.RunGitCommand("log", "-1", "--format=%s", node.Name)
		if err == nil && msg != "" {
			if len(msg) > 60 {
				msg = msg[:57] + "..."
			}
			result.WriteString(colors.DimText(fmt.Sprintf(" - %s", msg)))
		}
	}
	result.WriteString("\n")

	children := node.SortedChildren()
	for i, child := range children {
		var childPrefix string
		switch {
		case node.Parent == nil:
			childPrefix = ""
		case isLast:
			childPrefix = prefix + "    "
		default:
			childPrefix = prefix + colors.CycleText(chars.Vertical, depth) + "   "
		}
		s.renderNode(result, child, childPrefix, i == len(children)-1, repo, opts)
	}
}

// RenderShort renders one indented line per branch
func (s *Stack) RenderShort(opts TreeOptions) string {
	var result strings.Builder
	s.renderShortNode(&result, s.Trunk, 0, opts.chars())
	return result.String()
}

func (s *Stack) renderShortNode(result *strings.Builder, node *Node, depth int, chars colors.TreeChars) {
	if node == nil {
		return
	}

	indicator := chars.Circle
	if node.IsCurrent {
		indicator = chars.Bullet
	}

	suffix := ""
	if node.IsTrunk {
		suffix = colors.Muted(" (main)")
	}

	fmt.Fprintf(result, "%s%s %s%s\n", strings.Repeat("  ", depth), colors.CycleText(indicator, depth), s.branchLabel(node, depth), suffix)

	for _, child := range node.SortedChildren() {
		s.renderShortNode(result, child, depth+1, chars)
	}
}

// RenderPath renders the path from trunk to a branch
func (s *Stack) RenderPath(branch string) string {
	path := s.FindPath(branch)
	if path == nil {
		return ""
	}

	var result strings.Builder
	for i, node := range path {
		if i > 0 {
			result.WriteString(colors.Muted(" → "))
		}
		result.WriteString(s.branchLabel(node, i))
	}
	return result.String()
}
