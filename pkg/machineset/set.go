package machineset

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/fsmlight/internal/logging"
)

// Stepper is a unit the set can advance. *fsm.Machine satisfies it.
//
// A Stepper that returned an error reports Failed until it is reset; the set no longer
// steps it.
type Stepper interface {
	SingleStep() (bool, error)
	Stopped() bool
	Failed() bool
}

// Machine constrains the element type: a comparable Stepper, so duplicates can be detected.
type Machine interface {
	comparable
	Stepper
}

// StepError identifies the machine that failed during StepAll.
type StepError[M Machine] struct {
	Index   int
	Machine M
	Err     error
}

func (e *StepError[M]) Error() string {
	return fmt.Sprintf("machine %d: %v", e.Index, e.Err)
}

func (e *StepError[M]) Unwrap() error {
	return e.Err
}

// Set holds many machines behind one exclusive lock.
// It ticks machines from the caller's goroutine; it is not a scheduler.
type Set[M Machine] struct {
	mu       sync.Mutex
	machines []M
	logger   *slog.Logger
}

// Option configures a Set.
type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger configures a logger for the Set.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// New creates an empty set.
func New[M Machine](opts ...Option) *Set[M] {
	cfg := config{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Set[M]{logger: cfg.logger}
}

// Add inserts m unless it is already held. It reports whether m was added.
func (s *Set[M]) Add(m M) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.machines, m) {
		return false
	}
	s.machines = append(s.machines, m)
	return true
}

// Remove drops m. It reports whether m was held.
func (s *Set[M]) Remove(m M) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.Index(s.machines, m)
	if i < 0 {
		return false
	}
	s.machines = slices.Delete(s.machines, i, i+1)
	return true
}

// RemoveAllStopped prunes every stopped machine and returns how many were removed.
func (s *Set[M]) RemoveAllStopped() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.machines)
	s.machines = slices.DeleteFunc(s.machines, func(m M) bool {
		return m.Stopped()
	})
	removed := before - len(s.machines)
	if removed > 0 {
		s.logger.Debug("pruned stopped machines", "removed", removed, "remaining", len(s.machines))
	}
	return removed
}

// StepAll calls SingleStep once on every held machine while holding the lock.
// It returns true if any machine reported more work, and false for an empty set.
// Machines that already failed are skipped. A new failure does not prevent the others from
// stepping; each one is reported once as a *StepError and all are joined.
func (s *Set[M]) StepAll() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := false
	var errs []error
	for i, m := range s.machines {
		if m.Failed() {
			continue
		}
		more, err := m.SingleStep()
		if err != nil {
			errs = append(errs, &StepError[M]{Index: i, Machine: m, Err: err})
			continue
		}
		if more {
			pending = true
		}
	}

	if len(errs) > 0 {
		s.logger.Warn("step all finished with failures", "failed", len(errs), "machines", len(s.machines))
	}
	return pending, errors.Join(errs...)
}

// Failed returns the held machines that are fenced after an error.
func (s *Set[M]) Failed() []M {
	s.mu.Lock()
	defer s.mu.Unlock()

	var failed []M
	for _, m := range s.machines {
		if m.Failed() {
			failed = append(failed, m)
		}
	}
	return failed
}

// RemoveAllFailed discards every failed machine and returns how many were removed.
func (s *Set[M]) RemoveAllFailed() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.machines)
	s.machines = slices.DeleteFunc(s.machines, func(m M) bool {
		return m.Failed()
	})
	removed := before - len(s.machines)
	if removed > 0 {
		s.logger.Debug("discarded failed machines", "removed", removed, "remaining", len(s.machines))
	}
	return removed
}

// Machines returns a snapshot of the held machines.
func (s *Set[M]) Machines() []M {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.machines)
}

// All iterates over a snapshot taken under the lock, so the loop body may call back into
// the set.
func (s *Set[M]) All() iter.Seq2[int, M] {
	snapshot := s.Machines()
	return func(yield func(int, M) bool) {
		for i, m := range snapshot {
			if !yield(i, m) {
				return
			}
		}
	}
}

// Len returns the number of held machines.
func (s *Set[M]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.machines)
}
