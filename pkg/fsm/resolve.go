package fsm

import (
	"github.com/aretw0/fsmlight/pkg/domain"
)

// resolve maps a produced transition id onto the next state, or stops the machine.
// Ambiguity is never broken by ordering: zero or several candidates is always an error.
func (m *Machine) resolve(id domain.TransitionID) error {
	cur := m.current

	switch {
	case id == domain.Start:
		if cur != nil {
			// Start is reserved for the initial lookup; a running handler cannot produce it.
			return m.fail(cur, id, domain.ErrUnsupportedOutput)
		}
		start, err := m.graph.Start()
		if err != nil {
			return m.fail(nil, id, err)
		}
		m.graph.freeze()
		m.current = start
		m.emitEnter(start)
		return nil

	case cur == nil:
		return m.fail(nil, id, domain.ErrMustStartAtStart)

	case id == domain.Finished:
		if !cur.IsStop() {
			return m.fail(cur, id, domain.ErrFinishedWithOutputs)
		}
		m.stop()
		return nil

	case id == domain.Default:
		outs := cur.Outputs()
		switch len(outs) {
		case 0:
			m.stop()
			return nil
		case 1:
			return m.transit(outs[0])
		default:
			return m.fail(cur, id, domain.ErrDefaultAmbiguous)
		}

	case id.IsUser() && cur.Produces(id):
		return m.transit(id)

	default:
		return m.fail(cur, id, domain.ErrUnsupportedOutput)
	}
}

// transit moves to the single state accepting id.
func (m *Machine) transit(id domain.TransitionID) error {
	candidates := m.graph.Acceptors(id)
	if len(candidates) != 1 {
		return m.fail(m.current, id, domain.ErrInputMapping)
	}
	m.current = candidates[0]
	m.emitEnter(m.current)
	return nil
}

func (m *Machine) stop() {
	m.stopped = true
	m.emitStop(m.current)
}
