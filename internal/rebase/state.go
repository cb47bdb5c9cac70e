package rebase

// State is a step of the rebase state machine
type State int

const (
	Idle State = iota
	Attempting
	ConflictSuspended
	Succeeded
	Aborted
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Attempting:
		return "Attempting"
	case ConflictSuspended:
		return "ConflictSuspended"
	case Succeeded:
		return "Succeeded"
	case Aborted:
		return "Aborted"
	case Failed:
		return "Failed"
	}
	return "Unknown"
}

// Request asks to replay the commits of Child that are not in Parent.
// When Onto is set they are replayed on top of Onto instead of Parent.
type Request struct {
	Child  string
	Parent string
	Onto   string
}

// Target is the ref Child ends up on top of
func (r Request) Target() string {
	if r.Onto != "" {
		return r.Onto
	}
	return r.Parent
}

// Result reports how a rebase ended and the states it went through
type Result struct {
	Child string
	State State
	Trace []State
	// Skipped is set when the user declined at the open pull request gate
	Skipped bool
	// Backup is the checkpoint tag made before the attempt
	Backup string
}

func newResult(child string) *Result {
	return &Result{Child: child, State: Idle, Trace: []State{Idle}}
}

func (r *Result) transition(s State) {
	if r.State == s {
		return
	}
	r.State = s
	r.Trace = append(r.Trace, s)
}

// BackupTag names the checkpoint tag of branch
func BackupTag(branch string) string {
	return branch + ".REBASE_BACKUP"
}
