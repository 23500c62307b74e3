package fsm

import (
	"log/slog"
	"time"

	"github.com/aretw0/fsmlight/internal/logging"
	"github.com/aretw0/fsmlight/pkg/domain"
	"github.com/google/uuid"
)

// Status is the coarse lifecycle position of a machine.
type Status string

const (
	StatusUnstarted Status = "unstarted"
	StatusRunning   Status = "running"
	StatusStopped   Status = "stopped"
	StatusFailed    Status = "failed"
)

// Machine steps through a Graph one handler invocation at a time.
//
// A Machine is not safe for concurrent use: SingleStep and Reset must be called from one
// goroutine at a time. Several machines may share the same frozen Graph.
type Machine struct {
	id      string
	graph   *Graph
	current *domain.State
	stopped bool
	steps   uint64
	err     error

	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// NewMachine creates an unstarted machine over g.
// The graph does not need to be finalized; a missing or ambiguous start state is then
// reported by the first SingleStep.
func NewMachine(g *Graph, opts ...Option) *Machine {
	m := &Machine{
		id:     uuid.NewString(),
		graph:  g,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SingleStep invokes the current state's handler exactly once and resolves the produced
// transition. On the first call it also selects the start state. It returns whether the
// machine has more work.
//
// A stopped machine returns false without invoking anything. After an error the machine
// stays where it was and is fenced: later calls return the same error without invoking any
// handler until Reset.
func (m *Machine) SingleStep() (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.stopped {
		return false, nil
	}
	if m.graph == nil || m.graph.Len() == 0 {
		m.err = m.fail(nil, domain.Start, domain.ErrNoStates)
		return false, m.err
	}

	if m.current == nil {
		if err := m.resolve(domain.Start); err != nil {
			m.err = err
			return false, err
		}
	}

	from := m.current
	id := from.Run()
	m.steps++

	err := m.resolve(id)
	m.emitStep(from, id, err)
	if err != nil {
		m.err = err
		m.logger.Warn("step failed",
			"machine_id", m.id,
			"state", from.Name(),
			"produced", id.String(),
			"err", err,
		)
		return false, err
	}

	return !m.stopped, nil
}

// Reset returns the machine to its unstarted position. The next SingleStep selects the
// start state again.
func (m *Machine) Reset() {
	m.current = nil
	m.stopped = false
	m.err = nil
	m.logger.Debug("machine reset", "machine_id", m.id)
}

// Stopped reports whether a stop state has finished the run.
func (m *Machine) Stopped() bool {
	return m.stopped
}

// Failed reports whether the last step failed. A failed machine steps again only after Reset.
func (m *Machine) Failed() bool {
	return m.err != nil
}

// Err returns the failure that fenced the machine, or nil.
func (m *Machine) Err() error {
	return m.err
}

// Current returns the current state, or nil before the first step.
func (m *Machine) Current() *domain.State {
	return m.current
}

// Status returns the lifecycle position of the machine.
func (m *Machine) Status() Status {
	switch {
	case m.err != nil:
		return StatusFailed
	case m.stopped:
		return StatusStopped
	case m.current == nil:
		return StatusUnstarted
	default:
		return StatusRunning
	}
}

// States returns a read-only snapshot of the graph's states.
func (m *Machine) States() []*domain.State {
	if m.graph == nil {
		return nil
	}
	return m.graph.States()
}

// Graph returns the graph the machine runs over.
func (m *Machine) Graph() *Graph {
	return m.graph
}

// ID returns the machine identifier.
func (m *Machine) ID() string {
	return m.id
}

// Steps returns the number of handler invocations since construction.
func (m *Machine) Steps() uint64 {
	return m.steps
}

func (m *Machine) fail(state *domain.State, id domain.TransitionID, err error) error {
	gerr := &domain.GraphError{Machine: m.id, ID: id, Err: err}
	if state != nil {
		gerr.State = state.Name()
	}
	return gerr
}

func (m *Machine) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: time.Now(),
		Type:      t,
		MachineID: m.id,
	}
}

func (m *Machine) emitEnter(s *domain.State) {
	m.logger.Debug("state entered", "machine_id", m.id, "state", s.Name())
	if m.hooks.OnStateEnter != nil {
		m.hooks.OnStateEnter(&domain.StateEvent{EventBase: m.base(domain.EventStateEnter), State: s.Name()})
	}
}

func (m *Machine) emitStop(s *domain.State) {
	m.logger.Info("machine stopped", "machine_id", m.id, "state", s.Name(), "steps", m.steps)
	if m.hooks.OnStop != nil {
		m.hooks.OnStop(&domain.StateEvent{EventBase: m.base(domain.EventStop), State: s.Name()})
	}
}

func (m *Machine) emitStep(from *domain.State, id domain.TransitionID, err error) {
	if m.hooks.OnStep == nil {
		return
	}
	ev := &domain.StepEvent{
		EventBase: m.base(domain.EventStep),
		State:     from.Name(),
		Produced:  id,
		Stopped:   m.stopped,
	}
	if err != nil {
		ev.Code = domain.ErrorCode(err)
		ev.Error = err.Error()
	} else if !m.stopped {
		ev.Next = m.current.Name()
	}
	m.hooks.OnStep(ev)
}
