package ports

import (
	"context"

	"github.com/aretw0/fsmlight/pkg/domain"
)

// EventJournal records step events for later inspection.
// Implementations must be safe for concurrent use.
type EventJournal interface {
	// Publish appends an event. Implementations may drop the oldest entries to stay bounded.
	Publish(ctx context.Context, event domain.StepEvent) error

	// Recent returns up to n of the newest events, oldest first.
	// A non-positive n returns an empty slice.
	Recent(ctx context.Context, n int) ([]domain.StepEvent, error)
}
