package engine

import "fmt"

// State is the outcome classification of one run. A run moves from
// StateUndefined through StateRunning and StateParsed (or StateInspected)
// to one of the final states.
type State int

const (
	StateUndefined State = iota
	StateRunning
	StateParsed
	StateInspected
	StateOk
	StateWarn
	StateError
)

var stateNames = map[State]string{
	StateUndefined: "undefined",
	StateRunning:   "running",
	StateParsed:    "parsed",
	StateInspected: "inspected",
	StateOk:        "ok",
	StateWarn:      "warn",
	StateError:     "error",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Final reports whether no stage moves the state any further.
func (s State) Final() bool {
	return s == StateOk || s == StateWarn || s == StateError
}
