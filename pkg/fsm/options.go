package fsm

import (
	"log/slog"

	"github.com/aretw0/fsmlight/pkg/domain"
)

// GraphOption configures a Graph.
type GraphOption func(*Graph)

// WithStrictValidation makes Finalize check that every declared output id is accepted by
// exactly one state, instead of deferring that check to the step that produces the id.
func WithStrictValidation() GraphOption {
	return func(g *Graph) {
		g.strict = true
	}
}

// WithGraphLogger sets a structured logger for registration events.
func WithGraphLogger(logger *slog.Logger) GraphOption {
	return func(g *Graph) {
		g.logger = logger
	}
}

// StateOption configures a state at registration time.
type StateOption func(*stateConfig)

type stateConfig struct {
	name string
}

// Named sets the state name. Names must be unique within a graph.
func Named(name string) StateOption {
	return func(c *stateConfig) {
		c.name = name
	}
}

// Option configures a Machine.
type Option func(*Machine)

// WithID sets the machine identifier (default: a random UUID).
func WithID(id string) Option {
	return func(m *Machine) {
		m.id = id
	}
}

// WithLogger sets a structured logger for the machine.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Machine) {
		m.hooks = hooks
	}
}
