package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// TransitionID labels a possible move out of a state.
// Non-negative values are user-defined and global in meaning across a graph.
// Negative values are reserved for the sentinels below.
type TransitionID int

const (
	// Start is used internally to request the initial state lookup.
	// Handlers never return it.
	Start TransitionID = -1

	// Finished marks the machine terminal. Only valid from a state without outputs.
	Finished TransitionID = -2

	// Default takes the only declared output, or behaves like Finished when the state
	// has no outputs.
	Default TransitionID = -3
)

// Handler is the body of a state. It runs once per step and returns the produced transition.
type Handler func() TransitionID

// IsSentinel reports whether id is one of the reserved negative values.
func (id TransitionID) IsSentinel() bool {
	return id == Start || id == Finished || id == Default
}

// IsUser reports whether id is a valid user-defined transition id.
func (id TransitionID) IsUser() bool {
	return id >= 0
}

func (id TransitionID) String() string {
	switch id {
	case Start:
		return "START"
	case Finished:
		return "FINISHED"
	case Default:
		return "DEFAULT"
	}
	return strconv.Itoa(int(id))
}

// ParseTransitionID accepts a sentinel name (case-insensitive) or a decimal integer.
func ParseTransitionID(s string) (TransitionID, error) {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "START":
		return Start, nil
	case "FINISHED":
		return Finished, nil
	case "DEFAULT":
		return Default, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid transition id %q: %w", s, err)
	}
	return TransitionID(n), nil
}
