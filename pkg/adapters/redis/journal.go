package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/aretw0/fsmlight/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

const (
	// DefaultStream is the stream key used when none is configured.
	DefaultStream = "fsmlight:events"
	// DefaultMaxLen bounds the stream length when none is configured.
	DefaultMaxLen = 1000

	eventField = "event"
)

// Journal implements ports.EventJournal on top of a Redis stream.
// Each event is one stream entry holding its JSON encoding; the stream is trimmed on write.
type Journal struct {
	client *backend.Client
	stream string
	maxLen int64
}

type Option func(*Journal)

// WithStream sets the stream key.
func WithStream(stream string) Option {
	return func(j *Journal) {
		j.stream = stream
	}
}

// WithMaxLen sets how many entries the stream keeps. Zero disables trimming.
func WithMaxLen(n int64) Option {
	return func(j *Journal) {
		j.maxLen = n
	}
}

// New creates a journal with its own client.
func New(address, password string, db int, opts ...Option) *Journal {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a journal from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Journal {
	j := &Journal{
		client: client,
		stream: DefaultStream,
		maxLen: DefaultMaxLen,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Ping checks connectivity.
func (j *Journal) Ping(ctx context.Context) error {
	return j.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (j *Journal) Close() error {
	return j.client.Close()
}

// Publish appends the event to the stream.
func (j *Journal) Publish(ctx context.Context, event domain.StepEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &backend.XAddArgs{
		Stream: j.stream,
		MaxLen: j.maxLen,
		Values: map[string]any{eventField: data},
	}
	if err := j.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

// Recent reads up to n of the newest entries, oldest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]domain.StepEvent, error) {
	if n <= 0 {
		return []domain.StepEvent{}, nil
	}

	msgs, err := j.client.XRevRangeN(ctx, j.stream, "+", "-", int64(n)).Result()
	if err != nil {
		if err == backend.Nil {
			return []domain.StepEvent{}, nil
		}
		return nil, fmt.Errorf("failed to read from redis: %w", err)
	}

	events := make([]domain.StepEvent, 0, len(msgs))
	for _, msg := range msgs {
		raw, ok := msg.Values[eventField].(string)
		if !ok {
			return nil, fmt.Errorf("stream entry %s has no %q field", msg.ID, eventField)
		}
		var e domain.StepEvent
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event %s: %w", msg.ID, err)
		}
		events = append(events, e)
	}
	slices.Reverse(events)
	return events, nil
}
