package memory

import (
	"context"
	"sync"

	"github.com/aretw0/fsmlight/pkg/domain"
)

// DefaultCapacity is the journal size used when none is given.
const DefaultCapacity = 256

// Journal implements ports.EventJournal as a fixed-size ring buffer.
// Safe for concurrent use.
type Journal struct {
	mu     sync.RWMutex
	events []domain.StepEvent
	next   int
	full   bool
}

// NewJournal creates a journal keeping the newest capacity events.
func NewJournal(capacity int) *Journal {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Journal{events: make([]domain.StepEvent, capacity)}
}

// Publish stores the event, overwriting the oldest one once the buffer is full.
func (j *Journal) Publish(ctx context.Context, event domain.StepEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.events[j.next] = event
	j.next = (j.next + 1) % len(j.events)
	if j.next == 0 {
		j.full = true
	}
	return nil
}

// Recent returns up to n of the newest events, oldest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]domain.StepEvent, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	size := j.next
	if j.full {
		size = len(j.events)
	}
	n = min(n, size)
	if n <= 0 {
		return []domain.StepEvent{}, nil
	}

	out := make([]domain.StepEvent, n)
	start := j.next - n
	for i := range out {
		out[i] = j.events[(start+i+len(j.events))%len(j.events)]
	}
	return out, nil
}

// Len returns the number of events currently held.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.full {
		return len(j.events)
	}
	return j.next
}
