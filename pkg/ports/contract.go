package ports

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/fsmlight/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunEventJournalContract runs a suite of tests to verify that an EventJournal implementation
// adheres to the defined interface contract. newJournal must return an empty journal that
// keeps at least 64 events.
func RunEventJournalContract(t *testing.T, newJournal func(t *testing.T) EventJournal) {
	ctx := context.Background()

	event := func(machine string, i int) domain.StepEvent {
		return domain.StepEvent{
			EventBase: domain.EventBase{
				Timestamp: time.Date(2024, 1, 1, 0, 0, i, 0, time.UTC),
				Type:      domain.EventStep,
				MachineID: machine,
			},
			State:    fmt.Sprintf("state-%d", i),
			Produced: domain.TransitionID(i),
		}
	}

	t.Run("Empty", func(t *testing.T) {
		j := newJournal(t)
		events, err := j.Recent(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("Publish and Recent", func(t *testing.T) {
		j := newJournal(t)
		for i := 0; i < 3; i++ {
			require.NoError(t, j.Publish(ctx, event("m1", i)))
		}

		events, err := j.Recent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, "state-0", events[0].State, "oldest first")
		assert.Equal(t, "state-2", events[2].State)
		assert.Equal(t, "m1", events[2].MachineID)
		assert.Equal(t, domain.TransitionID(2), events[2].Produced)
		assert.True(t, events[2].Timestamp.Equal(event("m1", 2).Timestamp))
	})

	t.Run("Recent Limits", func(t *testing.T) {
		j := newJournal(t)
		for i := 0; i < 5; i++ {
			require.NoError(t, j.Publish(ctx, event("m1", i)))
		}

		events, err := j.Recent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "state-3", events[0].State)
		assert.Equal(t, "state-4", events[1].State)

		events, err = j.Recent(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("Failure Fields", func(t *testing.T) {
		j := newJournal(t)
		e := event("m2", 1)
		e.Code = "unsupported_output"
		e.Error = "graph error: unsupported output id: 1"
		require.NoError(t, j.Publish(ctx, e))

		events, err := j.Recent(ctx, 1)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.True(t, events[0].Failed())
		assert.Equal(t, e.Code, events[0].Code)
		assert.Equal(t, e.Error, events[0].Error)
	})

	t.Run("Concurrent Publish", func(t *testing.T) {
		j := newJournal(t)
		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < 10; i++ {
					assert.NoError(t, j.Publish(ctx, event(fmt.Sprintf("w%d", w), i)))
				}
			}(w)
		}
		wg.Wait()

		events, err := j.Recent(ctx, 64)
		require.NoError(t, err)
		assert.Len(t, events, 40)
	})
}
