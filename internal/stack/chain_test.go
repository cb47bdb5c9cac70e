package stack

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/israelmalagutti/gee/internal/errors"
)

// mapParents is a parent table where unknown branches hang off main
type mapParents map[string]string

func (m mapParents) Parent(branch string) (string, error) {
	if branch == "main" {
		return "upstream/main", nil
	}
	if p, ok := m[branch]; ok {
		return p, nil
	}
	return "main", nil
}

func (m mapParents) IsUpstream(ref string) bool {
	return strings.HasPrefix(ref, "upstream/")
}

func assertAncestorsFirst(t *testing.T, parents mapParents, chain []string) {
	t.Helper()
	pos := make(map[string]int, len(chain))
	for i, b := range chain {
		_, dup := pos[b]
		require.False(t, dup, "%s appears twice in %v", b, chain)
		pos[b] = i
	}
	for _, b := range chain {
		p, _ := parents.Parent(b)
		if pi, ok := pos[p]; ok {
			assert.Less(t, pi, pos[b], "%s must come before %s in %v", p, b, chain)
		}
	}
}

func TestChainFor(t *testing.T) {
	parents := mapParents{"a": "main", "b": "a", "c": "b"}
	b := NewBuilder(parents, 0)

	t.Run("linear", func(t *testing.T) {
		chain, err := b.ChainFor("c")
		require.NoError(t, err)
		assert.Equal(t, []string{"main", "a", "b", "c"}, chain)
	})

	t.Run("main alone", func(t *testing.T) {
		chain, err := b.ChainFor("main")
		require.NoError(t, err)
		assert.Equal(t, []string{"main"}, chain)
	})

	t.Run("pull request parent", func(t *testing.T) {
		pr := mapParents{"fix": "upstream/refs/pull/12/head", "fix-2": "fix"}
		chain, err := NewBuilder(pr, 0).ChainFor("fix-2")
		require.NoError(t, err)
		assert.Equal(t, []string{"fix", "fix-2"}, chain)
	})
}

func TestChainForAll(t *testing.T) {
	// a diamond: b and c share a, d hangs off c
	parents := mapParents{"a": "main", "b": "a", "c": "a", "d": "c", "x": "main"}
	b := NewBuilder(parents, 0)

	chain, err := b.ChainForAll([]string{"d", "b", "x", "main", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "a", "c", "d", "b", "x"}, chain)
	assertAncestorsFirst(t, parents, chain)

	empty, err := b.ChainForAll(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestChainForCycle(t *testing.T) {
	parents := mapParents{"a": "b", "b": "c", "c": "a"}
	_, err := NewBuilder(parents, 0).ChainFor("a")
	require.Error(t, err)

	var inv *errors.InvariantError
	require.True(t, errors.As(err, &inv))
	assert.True(t, errors.Is(err, errors.ErrParentageCycle))
	assert.Equal(t, errors.ExitBug, errors.ExitCode(err))
	assert.Contains(t, err.Error(), "a -> b -> c -> a")
}

func TestChainForSelfParent(t *testing.T) {
	_, err := NewBuilder(mapParents{"a": "a"}, 0).ChainFor("a")
	assert.True(t, errors.Is(err, errors.ErrParentageCycle))
}

func TestChainForDepthBound(t *testing.T) {
	parents := mapParents{}
	for i := 1; i <= 20; i++ {
		parents[fmt.Sprintf("b%d", i)] = fmt.Sprintf("b%d", i-1)
	}
	parents["b0"] = "main"

	_, err := NewBuilder(parents, 10).ChainFor("b20")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrChainTooDeep))
	assert.Equal(t, errors.ExitBug, errors.ExitCode(err))

	chain, err := NewBuilder(parents, DefaultMaxDepth).ChainFor("b20")
	require.NoError(t, err)
	assert.Len(t, chain, 22)
	assertAncestorsFirst(t, parents, chain)
}
