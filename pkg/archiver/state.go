package archiver

// State is the pipeline's position in a run
type State int32

const (
	StateStart State = iota
	StateAuthenticating
	StateListing
	StateResolving
	StateFetching
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateAuthenticating:
		return "authenticating"
	case StateListing:
		return "listing"
	case StateResolving:
		return "resolving"
	case StateFetching:
		return "fetching"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}
