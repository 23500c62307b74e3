package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/fsmlight/internal/logging"
	"github.com/aretw0/fsmlight/pkg/adapters/memory"
	"github.com/aretw0/fsmlight/pkg/domain"
	"github.com/aretw0/fsmlight/pkg/fsm"
	"github.com/aretw0/fsmlight/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoStateGraph(t *testing.T, last domain.TransitionID) *fsm.Graph {
	t.Helper()
	g := fsm.NewGraph()
	_, err := g.Register(func() domain.TransitionID { return 1 }, nil, []domain.TransitionID{1}, fsm.Named("A"))
	require.NoError(t, err)
	_, err = g.Register(func() domain.TransitionID { return last }, []domain.TransitionID{1}, nil, fsm.Named("B"))
	require.NoError(t, err)
	graph, err := g.Finalize()
	require.NoError(t, err)
	return graph
}

func run(m *fsm.Machine) error {
	for {
		more, err := m.SingleStep()
		if err != nil || !more {
			return err
		}
	}
}

func TestMetrics_CountsLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	g := twoStateGraph(t, domain.Finished)

	for i := 0; i < 3; i++ {
		m := fsm.NewMachine(g, fsm.WithLifecycleHooks(metrics.Hooks()))
		require.NoError(t, run(m))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.StateEntries.WithLabelValues("A")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.StateEntries.WithLabelValues("B")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Steps.WithLabelValues("B")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Stops.WithLabelValues("B")))
	assert.Equal(t, 0, testutil.CollectAndCount(metrics.StepErrors))

	count, err := testutil.GatherAndCount(reg, "fsmlight_steps_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per state")
}

func TestMetrics_CountsFailures(t *testing.T) {
	metrics := observability.NewMetrics(nil)
	g := twoStateGraph(t, 9)

	m := fsm.NewMachine(g, fsm.WithLifecycleHooks(metrics.Hooks()))
	err := run(m)
	require.ErrorIs(t, err, domain.ErrUnsupportedOutput)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StepErrors.WithLabelValues("unsupported_output")))
	assert.Equal(t, 0, testutil.CollectAndCount(metrics.Stops))
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewWithFormat(&buf, slog.LevelDebug, logging.FormatJSON)
	require.NoError(t, err)

	m := fsm.NewMachine(twoStateGraph(t, 4), fsm.WithID("m-1"),
		fsm.WithLifecycleHooks(observability.LoggingHooks(logger)))
	_ = run(m)

	out := buf.String()
	assert.Contains(t, out, `"msg":"state_enter"`)
	assert.Contains(t, out, `"machine_id":"m-1"`)
	assert.Contains(t, out, `"code":"unsupported_output"`)
	assert.Contains(t, out, `"level":"WARN"`)
}

func TestSinkHooks(t *testing.T) {
	ctx := context.Background()
	journal := memory.NewJournal(16)

	m := fsm.NewMachine(twoStateGraph(t, domain.Finished), fsm.WithID("sink"),
		fsm.WithLifecycleHooks(observability.SinkHooks(ctx, journal, logging.NewNop())))
	require.NoError(t, run(m))

	events, err := journal.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "A", events[0].State)
	assert.Equal(t, "B", events[0].Next)
	assert.True(t, events[1].Stopped)
	assert.Equal(t, "sink", events[1].MachineID)
}

type failingJournal struct{}

func (failingJournal) Publish(context.Context, domain.StepEvent) error {
	return errors.New("unavailable")
}

func (failingJournal) Recent(context.Context, int) ([]domain.StepEvent, error) {
	return nil, nil
}

func TestSinkHooks_PublishFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewWithFormat(&buf, slog.LevelInfo, logging.FormatText)
	require.NoError(t, err)

	m := fsm.NewMachine(twoStateGraph(t, domain.Finished),
		fsm.WithLifecycleHooks(observability.SinkHooks(context.Background(), failingJournal{}, logger)))
	require.NoError(t, run(m), "journal failures never reach the machine")
	assert.Contains(t, buf.String(), "failed to publish step event")
}

func TestCombine(t *testing.T) {
	var order []string
	a := domain.LifecycleHooks{
		OnStateEnter: func(*domain.StateEvent) { order = append(order, "a-enter") },
		OnStop:       func(*domain.StateEvent) { order = append(order, "a-stop") },
	}
	b := domain.LifecycleHooks{
		OnStateEnter: func(*domain.StateEvent) { order = append(order, "b-enter") },
		OnStep:       func(*domain.StepEvent) { order = append(order, "b-step") },
	}

	hooks := observability.Combine(a, domain.LifecycleHooks{}, b)
	require.NotNil(t, hooks.OnStop)

	m := fsm.NewMachine(twoStateGraph(t, domain.Finished), fsm.WithLifecycleHooks(hooks))
	require.NoError(t, run(m))

	assert.Equal(t, []string{
		"a-enter", "b-enter", // A
		"a-enter", "b-enter", "b-step", // A -> B
		"a-stop", "b-step", // B finished
	}, order)

	empty := observability.Combine()
	assert.Nil(t, empty.OnStep)
}
