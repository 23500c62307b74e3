package dsl

import "github.com/aretw0/fsmlight/pkg/domain"

// StateBuilder provides a fluent API for configuring a state.
type StateBuilder struct {
	name    string
	inputs  []domain.TransitionID
	outputs []domain.TransitionID
	handler domain.Handler
	builder *Builder
}

// On adds input transition ids.
func (s *StateBuilder) On(ids ...domain.TransitionID) *StateBuilder {
	s.inputs = append(s.inputs, ids...)
	return s
}

// Emits adds output transition ids.
func (s *StateBuilder) Emits(ids ...domain.TransitionID) *StateBuilder {
	s.outputs = append(s.outputs, ids...)
	return s
}

// Do sets the handler. Without one the state returns DEFAULT.
func (s *StateBuilder) Do(h domain.Handler) *StateBuilder {
	s.handler = h
	return s
}

// Return sets a handler that always returns id.
func (s *StateBuilder) Return(id domain.TransitionID) *StateBuilder {
	return s.Do(func() domain.TransitionID { return id })
}

// Finish sets a handler that returns FINISHED.
func (s *StateBuilder) Finish() *StateBuilder {
	return s.Return(domain.Finished)
}

// State returns to the parent builder to declare another state.
func (s *StateBuilder) State(name string) *StateBuilder {
	return s.builder.State(name)
}
