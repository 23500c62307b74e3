package domain

import (
	"errors"
	"fmt"
)

// Configuration failures, raised while registering states or finalizing a graph.
var (
	ErrNoTransitions   = errors.New("state must declare at least one input or output")
	ErrNegativeID      = errors.New("transition ids must be >= 0, negative values are reserved")
	ErrNilHandler      = errors.New("state handler is nil")
	ErrDuplicateName   = errors.New("state name already registered")
	ErrAlreadyAssigned = errors.New("transitions can only be assigned once")
	ErrGraphFrozen     = errors.New("graph is frozen")
)

// Stepping failures. ErrNoUniqueStart and ErrInputMapping are also used by finalize.
var (
	ErrNoStates            = errors.New("machine has no states")
	ErrNoUniqueStart       = errors.New("no unique start state")
	ErrMustStartAtStart    = errors.New("must start at start state")
	ErrFinishedWithOutputs = errors.New("FINISHED used on a state with outputs")
	ErrDefaultAmbiguous    = errors.New("DEFAULT ambiguous with multiple outputs")
	ErrInputMapping        = errors.New("input id mapped in zero or multiple states")
	ErrUnsupportedOutput   = errors.New("unsupported output id")
)

// ConfigurationError indicates that the declared graph shape is invalid.
// It is only returned before stepping begins; the graph must be fixed and rebuilt.
// ID is only meaningful for ErrNegativeID and ErrInputMapping.
type ConfigurationError struct {
	State string
	ID    TransitionID
	Err   error
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + describe(e.State, e.ID, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// GraphError indicates a failure while resolving a produced transition.
// The machine that returned it stays where it was, fenced until it is reset or discarded.
type GraphError struct {
	Machine string
	State   string
	ID      TransitionID
	Err     error
}

func (e *GraphError) Error() string {
	return "graph error: " + describe(e.State, e.ID, e.Err)
}

func (e *GraphError) Unwrap() error {
	return e.Err
}

func describe(state string, id TransitionID, err error) string {
	msg := err.Error()
	if errors.Is(err, ErrUnsupportedOutput) || errors.Is(err, ErrInputMapping) || errors.Is(err, ErrNegativeID) {
		msg = fmt.Sprintf("%s: %s", msg, id)
	}
	if state != "" {
		msg = fmt.Sprintf("state %q: %s", state, msg)
	}
	return msg
}

// ErrorCode maps a failure to a short stable code, suitable for metric labels.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	codes := []struct {
		err  error
		code string
	}{
		{ErrNoStates, "no_states"},
		{ErrNoUniqueStart, "no_unique_start"},
		{ErrMustStartAtStart, "must_start_at_start"},
		{ErrFinishedWithOutputs, "finished_with_outputs"},
		{ErrDefaultAmbiguous, "default_ambiguous"},
		{ErrInputMapping, "input_mapping"},
		{ErrUnsupportedOutput, "unsupported_output"},
		{ErrNoTransitions, "no_transitions"},
		{ErrNegativeID, "negative_id"},
		{ErrNilHandler, "nil_handler"},
		{ErrDuplicateName, "duplicate_name"},
		{ErrAlreadyAssigned, "already_assigned"},
		{ErrGraphFrozen, "graph_frozen"},
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "unknown"
}
