/*
Package fsm implements the transition graph and the synchronous stepping machine.

Handlers are registered explicitly with the transitions they accept and produce. The graph
is then finalized (validated and frozen) and any number of machines can step over it.

	g := fsm.NewGraph()
	g.Register(initFn, nil, []domain.TransitionID{Running}, fsm.Named("init"))
	g.Register(workFn, []domain.TransitionID{Running}, []domain.TransitionID{Running, Done}, fsm.Named("work"))
	g.Register(doneFn, []domain.TransitionID{Done}, nil, fsm.Named("done"))

	graph, err := g.Finalize()
	if err != nil {
		return err
	}

	m := fsm.NewMachine(graph)
	for {
		more, err := m.SingleStep()
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}

# Resolution

After each handler call the produced id is resolved against the current state:

  - Finished stops the machine; it is only valid from a state without outputs.
  - Default follows the only declared output, or stops when there is none.
  - A user id must be a declared output of the current state and be accepted by exactly
    one state in the graph.

Anything else is a *domain.GraphError. The engine never guesses: ambiguity always fails.

# Validation

By default Finalize only checks that exactly one state has no inputs; whether each output
reaches exactly one acceptor is checked when the id is produced. WithStrictValidation moves
that check into Finalize.
*/
package fsm
