package scenario

import (
	"fmt"
)

// State is the scenario run progress.
type State byte

// Scenario run states, in the order they're reached.
const (
	StateUninitialized State = iota
	StateConnected
	StateDeployed
	StateCalled
	StateAsserted
	StateClosed
)

var stateNames = map[State]string{
	StateUninitialized: "UNINITIALIZED",
	StateConnected:     "CONNECTED",
	StateDeployed:      "DEPLOYED",
	StateCalled:        "CALLED",
	StateAsserted:      "ASSERTED",
	StateClosed:        "CLOSED",
}

// String implements fmt.Stringer interface.
func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", byte(s))
}

// MarshalText implements encoding.TextMarshaler interface.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler interface.
func (s *State) UnmarshalText(text []byte) error {
	for k, v := range stateNames {
		if v == string(text) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}
