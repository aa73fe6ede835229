package unitofwork

// Phase is a step in the unit-of-work lifecycle:
// Open -> Stamping -> Diffing -> Persisting -> Committed | Aborted.
type Phase int

const (
	PhaseOpen Phase = iota
	PhaseStamping
	PhaseDiffing
	PhasePersisting
	PhaseCommitted
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseOpen:
		return "open"
	case PhaseStamping:
		return "stamping"
	case PhaseDiffing:
		return "diffing"
	case PhasePersisting:
		return "persisting"
	case PhaseCommitted:
		return "committed"
	case PhaseAborted:
		return "aborted"
	}
	return "unknown"
}

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool {
	return p == PhaseCommitted || p == PhaseAborted
}
