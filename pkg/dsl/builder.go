package dsl

import (
	"fmt"

	"github.com/aretw0/fsmlight/pkg/domain"
	"github.com/aretw0/fsmlight/pkg/fsm"
)

// Builder manages the graph construction.
type Builder struct {
	states []*StateBuilder
	byName map[string]*StateBuilder
	opts   []fsm.GraphOption
}

// New creates a new graph builder. The options are passed to the graph at Build time.
func New(opts ...fsm.GraphOption) *Builder {
	return &Builder{
		byName: make(map[string]*StateBuilder),
		opts:   opts,
	}
}

// State declares a state. If it was already declared, it returns the existing builder.
// States are registered in declaration order.
func (b *Builder) State(name string) *StateBuilder {
	if sb, ok := b.byName[name]; ok {
		return sb
	}
	sb := &StateBuilder{name: name, builder: b}
	b.byName[name] = sb
	b.states = append(b.states, sb)
	return sb
}

// Build registers every declared state and finalizes the graph.
func (b *Builder) Build() (*fsm.Graph, error) {
	g := fsm.NewGraph(b.opts...)
	for _, sb := range b.states {
		handler := sb.handler
		if handler == nil {
			handler = func() domain.TransitionID { return domain.Default }
		}
		if _, err := g.Register(handler, sb.inputs, sb.outputs, fsm.Named(sb.name)); err != nil {
			return nil, fmt.Errorf("failed to register %q: %w", sb.name, err)
		}
	}
	return g.Finalize()
}

// MustBuild is like Build but panics on error. Meant for tests and package-level graphs.
func (b *Builder) MustBuild() *fsm.Graph {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}
