package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/fsmlight/internal/logging"
	fsmhttp "github.com/aretw0/fsmlight/pkg/adapters/http"
	"github.com/aretw0/fsmlight/pkg/adapters/memory"
	"github.com/aretw0/fsmlight/pkg/domain"
	"github.com/aretw0/fsmlight/pkg/fsm"
	"github.com/aretw0/fsmlight/pkg/machineset"
	"github.com/aretw0/fsmlight/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// factory builds the A -(1)-> B graph; B returns last.
func factory(last domain.TransitionID) fsmhttp.GraphFactory {
	return func() (*fsm.Graph, error) {
		g := fsm.NewGraph()
		if _, err := g.Register(func() domain.TransitionID { return 1 }, nil, []domain.TransitionID{1}, fsm.Named("A")); err != nil {
			return nil, err
		}
		if _, err := g.Register(func() domain.TransitionID { return last }, []domain.TransitionID{1}, nil, fsm.Named("B")); err != nil {
			return nil, err
		}
		return g.Finalize()
	}
}

type fixture struct {
	handler http.Handler
	set     *machineset.Set[*fsm.Machine]
	journal *memory.Journal
}

func newFixture(t *testing.T, last domain.TransitionID) *fixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	journal := memory.NewJournal(32)
	set := machineset.New[*fsm.Machine]()

	srv, err := fsmhttp.NewServer(set, factory(last),
		fsmhttp.WithJournal(journal),
		fsmhttp.WithGatherer(reg),
		fsmhttp.WithHooks(observability.Combine(
			metrics.Hooks(),
			observability.SinkHooks(context.Background(), journal, logging.NewNop()),
		)),
	)
	require.NoError(t, err)
	return &fixture{handler: srv.Handler(), set: set, journal: journal}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestServer_Lifecycle(t *testing.T) {
	f := newFixture(t, domain.Finished)

	w := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = f.do(t, http.MethodPost, "/machines", `{"count": 2}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	spawned := decode[[]fsmhttp.MachineView](t, w)
	require.Len(t, spawned, 2)
	assert.Equal(t, "unstarted", spawned[0].Status)
	assert.Equal(t, 2, f.set.Len())

	w = f.do(t, http.MethodPost, "/step", "")
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[fsmhttp.StepResult](t, w)
	assert.True(t, res.Pending)
	assert.Empty(t, res.Errors)
	assert.Equal(t, "B", res.Machines[0].State)
	assert.Equal(t, "running", res.Machines[0].Status)

	res = decode[fsmhttp.StepResult](t, f.do(t, http.MethodPost, "/step", ""))
	assert.False(t, res.Pending)
	assert.Equal(t, "stopped", res.Machines[1].Status)

	w = f.do(t, http.MethodGet, "/graph", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "A((\"A\"))")
	assert.Contains(t, w.Body.String(), "class B stopped;")

	w = f.do(t, http.MethodPost, "/prune", "")
	assert.Equal(t, map[string]int{"removed": 2, "failed": 0, "remaining": 0}, decode[map[string]int](t, w))

	events := decode[[]domain.StepEvent](t, f.do(t, http.MethodGet, "/events?n=10", ""))
	assert.Len(t, events, 4)

	w = f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `fsmlight_stops_total{state="B"} 2`)
}

func TestServer_StepReportsFailures(t *testing.T) {
	f := newFixture(t, 9)
	f.do(t, http.MethodPost, "/machines", "")

	f.do(t, http.MethodPost, "/step", "")
	res := decode[fsmhttp.StepResult](t, f.do(t, http.MethodPost, "/step", ""))
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "unsupported output id: 9")
	assert.Contains(t, res.Errors[0], "machine 0")

	require.Len(t, res.Failed, 1)
	require.Len(t, res.Machines, 1)
	assert.Equal(t, res.Machines[0].ID, res.Failed[0])
	assert.Equal(t, "failed", res.Machines[0].Status)
	assert.Contains(t, res.Machines[0].Error, "unsupported output id: 9")

	// The failed machine is fenced: further ticks neither run it nor report it again.
	for i := 0; i < 3; i++ {
		res = decode[fsmhttp.StepResult](t, f.do(t, http.MethodPost, "/step", ""))
		assert.Empty(t, res.Errors)
		assert.False(t, res.Pending)
	}

	w := f.do(t, http.MethodGet, "/metrics", "")
	assert.Contains(t, w.Body.String(), `fsmlight_step_errors_total{code="unsupported_output"} 1`)
	assert.Contains(t, w.Body.String(), `fsmlight_steps_total{state="B"} 1`)

	w = f.do(t, http.MethodPost, "/prune", "")
	assert.Equal(t, map[string]int{"removed": 0, "failed": 0, "remaining": 1}, decode[map[string]int](t, w))
	w = f.do(t, http.MethodPost, "/prune?failed=true", "")
	assert.Equal(t, map[string]int{"removed": 0, "failed": 1, "remaining": 0}, decode[map[string]int](t, w))
}

func TestServer_SpawnIsAllOrNothing(t *testing.T) {
	builds := 0
	flaky := func() (*fsm.Graph, error) {
		builds++
		if builds > 2 {
			return nil, errors.New("out of graphs")
		}
		return factory(domain.Finished)()
	}
	set := machineset.New[*fsm.Machine]()
	srv, err := fsmhttp.NewServer(set, flaky)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/machines", strings.NewReader(`{"count": 3}`)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 0, set.Len(), "no machine is added when a build fails")

	_, err = srv.Spawn(1)
	assert.Error(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestServer_MachineRoutes(t *testing.T) {
	f := newFixture(t, domain.Finished)
	spawned := decode[[]fsmhttp.MachineView](t, f.do(t, http.MethodPost, "/machines", ""))
	require.Len(t, spawned, 1)
	id := spawned[0].ID

	f.do(t, http.MethodPost, "/step", "")
	w := f.do(t, http.MethodPost, "/machines/"+id+"/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[fsmhttp.MachineView](t, w)
	assert.Equal(t, "unstarted", view.Status)
	assert.Equal(t, uint64(1), view.Steps)

	list := decode[[]fsmhttp.MachineView](t, f.do(t, http.MethodGet, "/machines", ""))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/machines/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/machines/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/machines/nope/reset", "").Code)
}

func TestServer_BadRequests(t *testing.T) {
	f := newFixture(t, domain.Finished)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/machines", `{"count": 0}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/machines", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/events?n=abc", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, f.do(t, http.MethodGet, "/step", "").Code)
}

func TestServer_OptionalRoutes(t *testing.T) {
	set := machineset.New[*fsm.Machine]()
	srv, err := fsmhttp.NewServer(set, factory(domain.Finished))
	require.NoError(t, err)
	h := srv.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewServer_FactoryError(t *testing.T) {
	broken := func() (*fsm.Graph, error) { return fsm.NewGraph().Finalize() }
	_, err := fsmhttp.NewServer(machineset.New[*fsm.Machine](), broken)
	assert.ErrorIs(t, err, domain.ErrNoUniqueStart)
}
