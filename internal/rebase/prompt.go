package rebase

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/israelmalagutti/gee/internal/colors"
	"github.com/israelmalagutti/gee/internal/errors"
)

// Action is a user decision for one conflicted file
type Action int

const (
	KeepNew Action = iota
	KeepOld
	MergeTool
	GUIMergeTool
	Restart
	Shell
	ViewPatch
	Skip
	Abort
)

// Actions lists every action in menu order
var Actions = []Action{KeepNew, KeepOld, MergeTool, GUIMergeTool, Restart, Shell, ViewPatch, Skip, Abort}

// Key is the single letter that selects the action
func (a Action) Key() string {
	return [...]string{"N", "O", "M", "G", "P", "S", "V", "K", "A"}[a]
}

func (a Action) String() string {
	return [...]string{
		"keep the new version, from the commit being applied",
		"keep the old version, from the branch being rebased onto",
		"resolve with the text merge tool",
		"resolve with the graphical merge tool",
		"restart: abort and redo as an interactive rebase",
		"open a shell to fix things by hand",
		"view the patch being applied",
		"skip this whole commit",
		"abort the rebase",
	}[a]
}

// Conflict describes one conflicted file of a stopped rebase step
type Conflict struct {
	Path  string
	Code  string
	Label string
	// From is the commit being applied, Onto the commit it is applied to
	From string
	Onto string
}

// Prompter asks the user to make decisions during a rebase
type Prompter interface {
	Choose(c Conflict) (Action, error)
	Confirm(message string, defaultYes bool) (bool, error)
}

var conflictLabels = map[string]string{
	"DD": "Both deleted",
	"AU": "Added by us",
	"UD": "Deleted by them",
	"UA": "Added by them",
	"DU": "Deleted by us",
	"AA": "Both added",
	"UU": "Both modified",
}

// ConflictLabel turns a porcelain status code into words
func ConflictLabel(code string) string {
	if label, ok := conflictLabels[code]; ok {
		return label
	}
	return "Unknown conflict (" + code + ")"
}

// SurveyPrompter asks on the terminal
type SurveyPrompter struct{}

// Choose shows the action menu for one file
func (SurveyPrompter) Choose(c Conflict) (Action, error) {
	options := make([]string, len(Actions))
	for i, a := range Actions {
		options[i] = fmt.Sprintf("%s) %s", a.Key(), a)
	}
	var answer string
	prompt := &survey.Select{
		Message:  fmt.Sprintf("%s: %s", c.Label, c.Path),
		Options:  options,
		Default:  options[0],
		PageSize: len(options),
	}
	if err := survey.AskOne(prompt, &answer); err != nil {
		if err == terminal.InterruptErr {
			return Abort, nil
		}
		return Abort, fmt.Errorf("failed to read choice: %w", err)
	}
	for _, a := range Actions {
		if strings.HasPrefix(answer, a.Key()+")") {
			return a, nil
		}
	}
	return Abort, errors.Invariantf("unexpected menu answer %q", answer)
}

// Confirm asks a yes/no question
func (SurveyPrompter) Confirm(message string, defaultYes bool) (bool, error) {
	answer := defaultYes
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: defaultYes}, &answer); err != nil {
		if err == terminal.InterruptErr {
			return false, errors.Userf("Interrupted").Wrapping(errors.ErrRebaseAborted)
		}
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	return answer, nil
}

// AutoPrompter never asks: every conflict keeps the new version and every
// question is answered yes.
type AutoPrompter struct {
	Log *colors.Splog
}

// Choose always keeps the new version
func (p AutoPrompter) Choose(c Conflict) (Action, error) {
	if p.Log != nil {
		p.Log.Infof("%s: %s; keeping the new version.", c.Label, c.Path)
	}
	return KeepNew, nil
}

// Confirm always says yes
func (p AutoPrompter) Confirm(message string, _ bool) (bool, error) {
	if p.Log != nil {
		p.Log.Infof("%s yes", message)
	}
	return true, nil
}
