package action

import "github.com/cockroachdb/errors"

// State is the lifecycle state of a Context.
type State int

// Context states. Rejected and Finished are terminal.
const (
	StateFiltering State = iota
	StateRejected
	StateStarted
	StateResumed
	StateSuspended
	StateFinished
)

var stateNames = map[State]string{
	StateFiltering: "filtering",
	StateRejected:  "rejected",
	StateStarted:   "started",
	StateResumed:   "resumed",
	StateSuspended: "suspended",
	StateFinished:  "finished",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateRejected || s == StateFinished
}

var transitions = map[State][]State{
	StateFiltering: {StateRejected, StateStarted},
	StateStarted:   {StateResumed},
	StateResumed:   {StateSuspended},
	StateSuspended: {StateResumed, StateFinished},
}

// moveTo advances the context to state to. An illegal transition is a bug
// in the tracker or in a flow that outlived its call, so it panics.
func (c *Context) moveTo(to State) {
	for _, allowed := range transitions[c.state] {
		if allowed == to {
			c.state = to
			return
		}
	}
	panic(errors.AssertionFailedf("action %q (%s): illegal transition %s -> %s",
		c.Name, c.ID, c.state, to))
}
