package stack

import (
	"strings"

	"github.com/israelmalagutti/gee/internal/errors"
)

// DefaultMaxDepth bounds how far a chain may reach up the parentage graph
const DefaultMaxDepth = 500

// ParentSource answers parent queries. *parentage.Store implements it.
type ParentSource interface {
	Parent(branch string) (string, error)
	IsUpstream(ref string) bool
}

// Builder orders branches so every branch comes after its local parent
type Builder struct {
	parents  ParentSource
	maxDepth int
}

// NewBuilder creates a Builder. A maxDepth below one uses DefaultMaxDepth.
func NewBuilder(parents ParentSource, maxDepth int) *Builder {
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	return &Builder{parents: parents, maxDepth: maxDepth}
}

// ChainFor returns branch preceded by its local ancestors, oldest first.
// Upstream refs end the walk and never appear in the chain.
func (b *Builder) ChainFor(branch string) ([]string, error) {
	return b.ChainForAll([]string{branch})
}

// ChainForAll unions the chains of branches. A shared ancestor appears
// once, before every branch that descends from it.
func (b *Builder) ChainForAll(branches []string) ([]string, error) {
	var chain []string
	inChain := make(map[string]bool)
	for _, branch := range branches {
		var err error
		if chain, err = b.extend(chain, inChain, branch); err != nil {
			return nil, err
		}
	}
	return chain, nil
}

// extend walks up from branch until it meets an upstream ref or a branch
// already in the chain, then appends the walked path ancestors-first.
func (b *Builder) extend(chain []string, inChain map[string]bool, branch string) ([]string, error) {
	var path []string
	onPath := make(map[string]bool)

	for current := branch; !b.parents.IsUpstream(current) && !inChain[current]; {
		if onPath[current] {
			return nil, errors.Invariantf("parentage of %s loops back to %s", branch, current).
				Observed(describeLoop(path, current)).
				Wrapping(errors.ErrParentageCycle)
		}
		if len(path) >= b.maxDepth {
			return nil, errors.Invariantf("parentage of %s is deeper than %d branches", branch, b.maxDepth).
				Observed(describeLoop(path, current)).
				Wrapping(errors.ErrChainTooDeep)
		}
		onPath[current] = true
		path = append(path, current)

		parent, err := b.parents.Parent(current)
		if err != nil {
			return nil, err
		}
		current = parent
	}

	for i := len(path) - 1; i >= 0; i-- {
		chain = append(chain, path[i])
		inChain[path[i]] = true
	}
	return chain, nil
}

func describeLoop(path []string, last string) string {
	return strings.Join(append(append([]string{}, path...), last), " -> ")
}
