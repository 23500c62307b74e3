package domain

import "slices"

// State binds a handler to the transitions it accepts and the transitions it may produce.
// Inputs and outputs are assigned once; after registration the record is read-only.
type State struct {
	name    string
	handler Handler

	inputs  []TransitionID
	outputs []TransitionID

	inputsSet  bool
	outputsSet bool
}

// NewState creates an unassigned state record. Use SetInputs/SetOutputs to declare transitions.
func NewState(name string, handler Handler) *State {
	return &State{
		name:    name,
		handler: handler,
	}
}

// Name returns the registration name of the state.
func (s *State) Name() string {
	return s.name
}

// SetInputs assigns the accepted transitions. It fails if inputs were already assigned.
// Duplicates are dropped, declaration order is kept.
func (s *State) SetInputs(ids ...TransitionID) error {
	if s.inputsSet {
		return &ConfigurationError{State: s.name, Err: ErrAlreadyAssigned}
	}
	s.inputsSet = true
	s.inputs = dedupe(ids)
	return nil
}

// SetOutputs assigns the producible transitions. It fails if outputs were already assigned.
func (s *State) SetOutputs(ids ...TransitionID) error {
	if s.outputsSet {
		return &ConfigurationError{State: s.name, Err: ErrAlreadyAssigned}
	}
	s.outputsSet = true
	s.outputs = dedupe(ids)
	return nil
}

// Inputs returns a copy of the accepted transitions (nil when none are declared).
func (s *State) Inputs() []TransitionID {
	return slices.Clone(s.inputs)
}

// Outputs returns a copy of the producible transitions (nil when none are declared).
func (s *State) Outputs() []TransitionID {
	return slices.Clone(s.outputs)
}

// IsStart reports whether the state declares no inputs, making it a start candidate.
func (s *State) IsStart() bool {
	return len(s.inputs) == 0
}

// IsStop reports whether the state declares no outputs. Stop states must return
// Finished or Default.
func (s *State) IsStop() bool {
	return len(s.outputs) == 0
}

// Accepts reports whether id is one of the declared inputs.
func (s *State) Accepts(id TransitionID) bool {
	return slices.Contains(s.inputs, id)
}

// Produces reports whether id is one of the declared outputs.
func (s *State) Produces(id TransitionID) bool {
	return slices.Contains(s.outputs, id)
}

// Run invokes the handler.
func (s *State) Run() TransitionID {
	return s.handler()
}

func dedupe(ids []TransitionID) []TransitionID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]TransitionID, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
