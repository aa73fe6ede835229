// Package tracking holds the storage-agnostic half of change auditing:
// stamping ownership/version fields onto entities and diffing their
// before/after states into change records.
package tracking

// State is the persistence state of an entity inside a unit-of-work.
type State int

const (
	Detached State = iota
	Unchanged
	Added
	Modified
	Deleted
)

var stateNames = map[State]string{
	Detached:  "detached",
	Unchanged: "unchanged",
	Added:     "added",
	Modified:  "modified",
	Deleted:   "deleted",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Dirty reports whether an entity in this state has to be written.
func (s State) Dirty() bool {
	return s == Added || s == Modified || s == Deleted
}

// Action is the verb stored on an audit record.
type Action string

const (
	ActionCreated Action = "CREATED"
	ActionUpdated Action = "UPDATED"
	ActionDeleted Action = "DELETED"
	ActionCustom  Action = "CUSTOM"
)

// ActionFor maps a dirty state to its audit action.
func ActionFor(s State) (Action, bool) {
	switch s {
	case Added:
		return ActionCreated, true
	case Modified:
		return ActionUpdated, true
	case Deleted:
		return ActionDeleted, true
	}
	return "", false
}

// ParseAction recognises the four audit verbs. Anything else is a free-form
// event name.
func ParseAction(s string) (Action, bool) {
	switch a := Action(s); a {
	case ActionCreated, ActionUpdated, ActionDeleted, ActionCustom:
		return a, true
	}
	return "", false
}
