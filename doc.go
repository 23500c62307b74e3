/*
Package fsmlight is a lightweight finite state machine engine.

A machine is a graph of states. Each state has a handler, a set of input transition ids and
a set of output transition ids. Calling SingleStep runs the current state's handler once;
the id it returns selects the next state, the unique state accepting that id as input.

# Concept

States are registered on a Graph, which is shared read-only by any number of Machines.
A Machine only holds a position in the graph, so stepping many machines is cheap. A
machineset.Set groups machines and advances them together, one tick at a time.

Three reserved ids drive control flow: START selects the unique state without inputs,
FINISHED ends the run from a state without outputs, and DEFAULT follows a state's only
output (or finishes when it has none).

# Packages

  - pkg/domain: transition ids, states, events and errors.
  - pkg/fsm: Graph registration and validation, Machine stepping.
  - pkg/machineset: a lock-protected group of machines.
  - pkg/definition: YAML/JSON machine definitions with scripted handlers.
  - pkg/observability: logging, Prometheus and journal hooks.
  - pkg/adapters: event journals (memory, Redis) and the HTTP API.

# Usage

	g := fsm.NewGraph()
	g.Register(func() domain.TransitionID { return 1 }, nil, []domain.TransitionID{1}, fsm.Named("A"))
	g.Register(func() domain.TransitionID { return domain.Finished }, []domain.TransitionID{1}, nil, fsm.Named("B"))
	graph, err := g.Finalize()
	if err != nil {
		log.Fatal(err)
	}

	m := fsm.NewMachine(graph)
	for {
		more, err := m.SingleStep()
		if err != nil {
			log.Fatal(err)
		}
		if !more {
			break
		}
	}

The fsmlight command (cmd/fsmlight) validates, draws, runs and serves definition files.
*/
package fsmlight
