package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/fsmlight/pkg/adapters/redis"
	"github.com/aretw0/fsmlight/pkg/domain"
	"github.com/aretw0/fsmlight/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisJournal_Contract(t *testing.T) {
	ports.RunEventJournalContract(t, func(t *testing.T) ports.EventJournal {
		_, client := setup(t)
		return redis.NewFromClient(client)
	})
}

func TestRedisJournal_Trims(t *testing.T) {
	ctx := context.Background()
	mr, client := setup(t)
	j := redis.NewFromClient(client, redis.WithStream("test:events"), redis.WithMaxLen(3))

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, j.Publish(ctx, domain.StepEvent{State: name}))
	}

	assert.True(t, mr.Exists("test:events"))
	n, err := client.XLen(ctx, "test:events").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	events, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "c", events[0].State)
	assert.Equal(t, "e", events[2].State)
}

func TestRedisJournal_Ping(t *testing.T) {
	mr, client := setup(t)
	j := redis.NewFromClient(client)
	require.NoError(t, j.Ping(context.Background()))

	mr.Close()
	assert.Error(t, j.Ping(context.Background()))
}

func TestRedisJournal_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	_, client := setup(t)
	require.NoError(t, client.XAdd(ctx, &backend.XAddArgs{
		Stream: redis.DefaultStream,
		Values: map[string]any{"other": "x"},
	}).Err())

	_, err := redis.NewFromClient(client).Recent(ctx, 1)
	assert.ErrorContains(t, err, "has no")
}
