// Package colors provides terminal styling for CLI output.
// It uses the ANSI 16-color palette through lipgloss, so colors adapt to the
// user's terminal theme.
package colors

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// ANSI palette indexes (theme-adaptive)
const (
	Black   = lipgloss.Color("0")
	Red     = lipgloss.Color("1")
	Green   = lipgloss.Color("2")
	Yellow  = lipgloss.Color("3")
	Blue    = lipgloss.Color("4")
	Magenta = lipgloss.Color("5")
	Cyan    = lipgloss.Color("6")
	White   = lipgloss.Color("7")

	BrightBlack   = lipgloss.Color("8")
	BrightRed     = lipgloss.Color("9")
	BrightGreen   = lipgloss.Color("10")
	BrightYellow  = lipgloss.Color("11")
	BrightBlue    = lipgloss.Color("12")
	BrightMagenta = lipgloss.Color("13")
	BrightCyan    = lipgloss.Color("14")
	BrightWhite   = lipgloss.Color("15")
)

// enabled tracks whether color output is enabled
var enabled = true

func init() {
	// Respect NO_COLOR environment variable (https://no-color.org/)
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		enabled = false
		return
	}

	if os.Getenv("TERM") == "dumb" {
		enabled = false
		return
	}

	// gee reports progress on stderr
	if fi, err := os.Stderr.Stat(); err == nil {
		if (fi.Mode() & os.ModeCharDevice) == 0 {
			enabled = false
		}
	}
}

// SetEnabled allows manually enabling/disabling colors
func SetEnabled(e bool) {
	enabled = e
}

// IsEnabled returns whether colors are enabled
func IsEnabled() bool {
	return enabled
}

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

var (
	successStyle   = fg(Green)
	errorStyle     = fg(BrightRed).Bold(true)
	warningStyle   = fg(BrightYellow)
	infoStyle      = fg(Cyan)
	mutedStyle     = fg(BrightBlack)
	highlightStyle = fg(BrightWhite).Bold(true)
	currentStyle   = fg(Green).Bold(true)
	parentStyle    = fg(Cyan)
	childStyle     = fg(Magenta)
	trunkStyle     = fg(Blue).Bold(true)
	shaStyle       = fg(Yellow)
	bannerStyle    = lipgloss.NewStyle().Bold(true).Foreground(BrightWhite).Background(Blue)
	boldStyle      = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Faint(true)
)

// apply renders text with the given style if colors are enabled
func apply(style lipgloss.Style, text string) string {
	if !enabled || text == "" {
		return text
	}
	return style.Render(text)
}

// Success formats text for successful operations (green)
func Success(text string) string {
	return apply(successStyle, text)
}

// Error formats text for errors (bright red)
func Error(text string) string {
	return apply(errorStyle, text)
}

// Warning formats text for warnings (yellow)
func Warning(text string) string {
	return apply(warningStyle, text)
}

// Info formats text for informational messages (cyan)
func Info(text string) string {
	return apply(infoStyle, text)
}

// Muted formats text for secondary information (gray)
func Muted(text string) string {
	return apply(mutedStyle, text)
}

// Highlight formats text that should stand out
func Highlight(text string) string {
	return apply(highlightStyle, text)
}

// Banner formats a full-width separator line
func Banner(text string) string {
	return apply(bannerStyle, text)
}

// BranchCurrent formats the current branch name (green + bold)
func BranchCurrent(text string) string {
	return apply(currentStyle, text)
}

// BranchParent formats parent branch names (cyan)
func BranchParent(text string) string {
	return apply(parentStyle, text)
}

// BranchChild formats child branch names (magenta)
func BranchChild(text string) string {
	return apply(childStyle, text)
}

// BranchTrunk formats the main branch name (blue + bold)
func BranchTrunk(text string) string {
	return apply(trunkStyle, text)
}

// CommitSHA formats a commit id
func CommitSHA(text string) string {
	return apply(shaStyle, text)
}

// BoldText makes text bold
func BoldText(text string) string {
	return apply(boldStyle, text)
}

// DimText makes text dim/faded
func DimText(text string) string {
	return apply(dimStyle, text)
}

// Cycling palette for tree visualization
var cyclePalette = []lipgloss.Color{
	Cyan,
	Green,
	Yellow,
	Blue,
	Magenta,
	BrightCyan,
	BrightGreen,
	BrightYellow,
	BrightBlue,
}

// Cycle returns a color from the cycling palette based on index
func Cycle(index int) lipgloss.Color {
	return cyclePalette[index%len(cyclePalette)]
}

// CycleText applies cycling color to text based on depth
func CycleText(text string, index int) string {
	return apply(fg(Cycle(index)), text)
}

// TreeChars provides characters for tree visualization
type TreeChars struct {
	Vertical   string
	Horizontal string
	Corner     string
	Tee        string
	Bullet     string
	Circle     string
}

// DefaultTreeChars returns the default tree drawing characters
func DefaultTreeChars() TreeChars {
	return TreeChars{
		Vertical:   "│",
		Horizontal: "─",
		Corner:     "└",
		Tee:        "├",
		Bullet:     "●",
		Circle:     "○",
	}
}

// ASCIITreeChars returns ASCII-only tree characters for limited terminals
func ASCIITreeChars() TreeChars {
	return TreeChars{
		Vertical:   "|",
		Horizontal: "-",
		Corner:     "`",
		Tee:        "|",
		Bullet:     "*",
		Circle:     "o",
	}
}
