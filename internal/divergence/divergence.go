// Package divergence counts how far branches have drifted apart.
package divergence

import (
	"fmt"

	"github.com/israelmalagutti/gee/internal/git"
)

// Counts is the symmetric difference of two histories
type Counts struct {
	// Ahead is the number of commits only in the first branch
	Ahead int
	// Behind is the number of commits only in the other branch
	Behind int
}

// Same reports whether both histories are identical
func (c Counts) Same() bool {
	return c.Ahead == 0 && c.Behind == 0
}

// Calculator compares refs of one repository
type Calculator struct {
	repo         *git.Repo
	originRemote string
}

// NewCalculator creates a Calculator. originRemote names the personal mirror.
func NewCalculator(repo *git.Repo, originRemote string) *Calculator {
	return &Calculator{repo: repo, originRemote: originRemote}
}

// AheadBehind counts the commits reachable from branch but not other, and
// the reverse.
func (c *Calculator) AheadBehind(branch, other string) (Counts, error) {
	ahead, behind, err := c.repo.CountAheadBehind(branch, other)
	if err != nil {
		return Counts{}, err
	}
	return Counts{Ahead: ahead, Behind: behind}, nil
}

// MirrorRef is the remote-tracking ref of branch on the personal mirror
func (c *Calculator) MirrorRef(branch string) string {
	return c.originRemote + "/" + branch
}

// MirrorAhead returns how many commits the mirror of branch has that the
// local branch lacks. A branch without a mirror yields zero.
func (c *Calculator) MirrorAhead(branch string) (int, error) {
	mirror := c.MirrorRef(branch)
	if !c.repo.RefExists(mirror) {
		return 0, nil
	}
	counts, err := c.AheadBehind(branch, mirror)
	if err != nil {
		return 0, err
	}
	return counts.Behind, nil
}

// Report describes branch relative to other in one line, e.g.
//
//	feat                : 2 ahead, 1 behind main, 3 behind origin/feat
func (c *Calculator) Report(branch, other string) (string, error) {
	counts, err := c.AheadBehind(branch, other)
	if err != nil {
		return "", err
	}

	var line string
	if counts.Same() {
		line = fmt.Sprintf("%-20s: same as %s", branch, other)
	} else {
		line = fmt.Sprintf("%-20s: %d ahead, %d behind %s", branch, counts.Ahead, counts.Behind, other)
	}

	mirrorAhead, err := c.MirrorAhead(branch)
	if err != nil {
		return "", err
	}
	if mirrorAhead > 0 {
		line += fmt.Sprintf(", %d behind %s", mirrorAhead, c.MirrorRef(branch))
	}
	return line, nil
}
