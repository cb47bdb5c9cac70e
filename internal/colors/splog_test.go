package colors

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestSplog() (*Splog, *bytes.Buffer) {
	SetEnabled(false)
	var buf bytes.Buffer
	return NewSplogTo(&buf), &buf
}

func TestSplogOutput(t *testing.T) {
	original := IsEnabled()
	defer SetEnabled(original)
	s, buf := newTestSplog()

	s.Infof("info %s", "msg")
	s.Successf("ok %s", "msg")
	s.Warnf("warn %s", "msg")
	s.Errorf("err %s", "msg")
	s.Tipf("tip %s", "msg")
	s.Rebased("feat", "main")
	s.AlreadyUpToDate("feat")

	out := buf.String()
	assert.Contains(t, out, "info msg\n")
	assert.Contains(t, out, "✓ ok msg\n")
	assert.Contains(t, out, "WARNING: warn msg\n")
	assert.Contains(t, out, "FATAL: err msg\n")
	assert.Contains(t, out, "tip: tip msg\n")
	assert.Contains(t, out, "Rebased feat onto main")
	assert.Contains(t, out, "feat is already up to date")
}

func TestSplogQuietKeepsWarnings(t *testing.T) {
	original := IsEnabled()
	defer SetEnabled(original)
	s, buf := newTestSplog()
	s.SetQuiet(true)

	s.Infof("hidden")
	s.Successf("hidden")
	s.Banner("hidden")
	s.Warnf("shown")

	assert.Equal(t, "WARNING: shown\n", buf.String())
}

func TestSplogBanner(t *testing.T) {
	original := IsEnabled()
	defer SetEnabled(original)
	s, buf := newTestSplog()

	s.Banner("Attempting to apply: abc fix", "onto: def base")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, lines[0], lines[3])
	assert.Equal(t, "# Attempting to apply: abc fix #", lines[1])
	assert.Equal(t, "# onto: def base               #", lines[2])
}
