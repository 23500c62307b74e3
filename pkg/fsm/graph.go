package fsm

import (
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/aretw0/fsmlight/internal/logging"
	"github.com/aretw0/fsmlight/pkg/domain"
)

// Graph is the validated collection of states plus its lookup indices.
//
// Registration happens on a single goroutine. The graph freezes when Finalize succeeds or
// when a machine over it resolves its start state; after that it is read-only and may be
// shared by any number of machines.
type Graph struct {
	states    []*domain.State
	byName    map[string]*domain.State
	acceptors map[domain.TransitionID][]*domain.State

	strict    bool
	finalized bool
	frozen    atomic.Bool

	logger *slog.Logger
}

// NewGraph creates an empty graph in its registration phase.
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		byName:    make(map[string]*domain.State),
		acceptors: make(map[domain.TransitionID][]*domain.State),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Register adds a handler with its declared input and output transitions.
// A nil or empty inputs set marks a start candidate; a nil or empty outputs set marks a
// stop candidate. Start uniqueness and output/input consistency are not checked here.
func (g *Graph) Register(handler domain.Handler, inputs, outputs []domain.TransitionID, opts ...StateOption) (*domain.State, error) {
	cfg := stateConfig{name: fmt.Sprintf("state-%d", len(g.states))}
	for _, opt := range opts {
		opt(&cfg)
	}

	if g.frozen.Load() {
		return nil, &domain.ConfigurationError{State: cfg.name, Err: domain.ErrGraphFrozen}
	}
	if handler == nil {
		return nil, &domain.ConfigurationError{State: cfg.name, Err: domain.ErrNilHandler}
	}
	if len(inputs) == 0 && len(outputs) == 0 {
		return nil, &domain.ConfigurationError{State: cfg.name, Err: domain.ErrNoTransitions}
	}
	for _, id := range slices.Concat(inputs, outputs) {
		if id < 0 {
			return nil, &domain.ConfigurationError{State: cfg.name, ID: id, Err: domain.ErrNegativeID}
		}
	}
	if _, exists := g.byName[cfg.name]; exists {
		return nil, &domain.ConfigurationError{State: cfg.name, Err: domain.ErrDuplicateName}
	}

	// Both sets are assigned even when empty, so the returned handle is sealed.
	state := domain.NewState(cfg.name, handler)
	if err := state.SetInputs(inputs...); err != nil {
		return nil, err
	}
	if err := state.SetOutputs(outputs...); err != nil {
		return nil, err
	}

	g.states = append(g.states, state)
	g.byName[cfg.name] = state
	for _, id := range state.Inputs() {
		g.acceptors[id] = append(g.acceptors[id], state)
	}

	g.logger.Debug("state registered",
		"state", cfg.name,
		"inputs", state.Inputs(),
		"outputs", state.Outputs(),
	)
	return state, nil
}

// Finalize validates the graph and freezes it.
// Exactly one state must declare no inputs. In strict mode every declared output must also
// be accepted by exactly one state.
func (g *Graph) Finalize() (*Graph, error) {
	if _, err := g.Start(); err != nil {
		return nil, &domain.ConfigurationError{Err: domain.ErrNoUniqueStart}
	}

	if g.strict {
		if err := g.validateOutputs(); err != nil {
			return nil, err
		}
	}

	g.finalized = true
	g.frozen.Store(true)
	g.logger.Debug("graph finalized", "states", len(g.states), "strict", g.strict)
	return g, nil
}

// validateOutputs checks output/input consistency for every state at once.
func (g *Graph) validateOutputs() error {
	for _, s := range g.states {
		for _, id := range s.Outputs() {
			if n := len(g.acceptors[id]); n != 1 {
				return &domain.ConfigurationError{State: s.Name(), ID: id, Err: domain.ErrInputMapping}
			}
		}
	}
	return nil
}

// Start returns the unique state without inputs.
func (g *Graph) Start() (*domain.State, error) {
	var start *domain.State
	count := 0
	for _, s := range g.states {
		if s.IsStart() {
			start = s
			count++
		}
	}
	if count != 1 {
		return nil, domain.ErrNoUniqueStart
	}
	return start, nil
}

// Acceptors returns every state declaring id as an input.
func (g *Graph) Acceptors(id domain.TransitionID) []*domain.State {
	return slices.Clone(g.acceptors[id])
}

// States returns a snapshot of the registered states in insertion order.
func (g *Graph) States() []*domain.State {
	return slices.Clone(g.states)
}

// State looks up a state by name.
func (g *Graph) State(name string) (*domain.State, bool) {
	s, ok := g.byName[name]
	return s, ok
}

// Len returns the number of registered states.
func (g *Graph) Len() int {
	return len(g.states)
}

// Finalized reports whether Finalize succeeded.
func (g *Graph) Finalized() bool {
	return g.finalized
}

// Frozen reports whether the graph rejects further registrations.
func (g *Graph) Frozen() bool {
	return g.frozen.Load()
}

// Strict reports whether Finalize performs full output validation.
func (g *Graph) Strict() bool {
	return g.strict
}

func (g *Graph) freeze() {
	g.frozen.Store(true)
}
