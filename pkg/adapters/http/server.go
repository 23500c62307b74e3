package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/aretw0/fsmlight/internal/logging"
	"github.com/aretw0/fsmlight/internal/presentation/graph"
	"github.com/aretw0/fsmlight/pkg/domain"
	"github.com/aretw0/fsmlight/pkg/fsm"
	"github.com/aretw0/fsmlight/pkg/machineset"
	"github.com/aretw0/fsmlight/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultEvents = 50
	maxSpawn      = 1000
)

// GraphFactory builds the graph a new machine runs over. It may return a shared graph or
// a fresh one per call.
type GraphFactory func() (*fsm.Graph, error)

// Server exposes a machine set over HTTP.
// Every handler touching machines is serialized, since machines are not safe for
// concurrent use.
type Server struct {
	mu       sync.Mutex
	machines *machineset.Set[*fsm.Machine]
	factory  GraphFactory
	layout   *fsm.Graph

	journal  ports.EventJournal
	gatherer prometheus.Gatherer
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithJournal enables GET /events.
func WithJournal(j ports.EventJournal) Option {
	return func(s *Server) {
		s.journal = j
	}
}

// WithGatherer enables GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithHooks attaches lifecycle hooks to every machine the server spawns.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(s *Server) {
		s.hooks = h
	}
}

// WithLogger configures the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a server over set. The factory is called once up front to obtain the
// graph layout served by GET /graph.
func NewServer(set *machineset.Set[*fsm.Machine], factory GraphFactory, opts ...Option) (*Server, error) {
	s := &Server{
		machines: set,
		factory:  factory,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	layout, err := factory()
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	s.layout = layout
	return s, nil
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", s.health)
	r.Get("/graph", s.graph)
	r.Get("/machines", s.listMachines)
	r.Post("/machines", s.spawnMachines)
	r.Delete("/machines/{id}", s.deleteMachine)
	r.Post("/machines/{id}/reset", s.resetMachine)
	r.Post("/step", s.step)
	r.Post("/prune", s.prune)
	r.Get("/events", s.events)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Spawn creates n machines and adds them to the set.
func (s *Server) Spawn(n int) ([]MachineView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spawn(n)
}

// spawn builds every graph before touching the set, so a factory failure adds nothing.
func (s *Server) spawn(n int) ([]MachineView, error) {
	built := make([]*fsm.Machine, 0, n)
	for i := 0; i < n; i++ {
		g, err := s.factory()
		if err != nil {
			return nil, fmt.Errorf("failed to build graph %d of %d: %w", i+1, n, err)
		}
		built = append(built, fsm.NewMachine(g, fsm.WithLifecycleHooks(s.hooks), fsm.WithLogger(s.logger)))
	}

	views := make([]MachineView, 0, n)
	for _, m := range built {
		s.machines.Add(m)
		views = append(views, viewOf(m))
	}
	s.logger.Info("machines spawned", "count", n, "total", s.machines.Len())
	return views, nil
}

// MachineView is the JSON form of a machine.
type MachineView struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	State  string `json:"state,omitempty"`
	Steps  uint64 `json:"steps"`
	Error  string `json:"error,omitempty"`
}

func viewOf(m *fsm.Machine) MachineView {
	v := MachineView{ID: m.ID(), Status: string(m.Status()), Steps: m.Steps()}
	if cur := m.Current(); cur != nil {
		v.State = cur.Name()
	}
	if err := m.Err(); err != nil {
		v.Error = err.Error()
	}
	return v
}

// StepResult is the JSON response of POST /step.
type StepResult struct {
	Pending  bool          `json:"pending"`
	Errors   []string      `json:"errors,omitempty"`
	Failed   []string      `json:"failed,omitempty"`
	Machines []MachineView `json:"machines"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"machines": s.machines.Len(),
	})
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	overlay := &graph.GraphOverlay{}
	for _, m := range s.machines.All() {
		cur := m.Current()
		if cur == nil {
			continue
		}
		if m.Stopped() {
			overlay.Stopped = append(overlay.Stopped, cur.Name())
		} else {
			overlay.Current = append(overlay.Current, cur.Name())
		}
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(s.layout.States(), overlay))
}

func (s *Server) listMachines(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.views())
}

func (s *Server) spawnMachines(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Count int `json:"count"`
	}{Count: 1}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Count < 1 || req.Count > maxSpawn {
		writeError(w, http.StatusBadRequest, fmt.Errorf("count must be between 1 and %d", maxSpawn))
		return
	}

	views, err := s.Spawn(req.Count)
	if err != nil {
		s.logger.Error("spawn failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, views)
}

func (s *Server) deleteMachine(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.find(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("machine not found"))
		return
	}
	s.machines.Remove(m)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resetMachine(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.find(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("machine not found"))
		return
	}
	m.Reset()
	writeJSON(w, http.StatusOK, viewOf(m))
}

func (s *Server) step(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.machines.StepAll()
	res := StepResult{Pending: pending, Machines: s.views()}
	if err != nil {
		for _, e := range unwrapJoined(err) {
			res.Errors = append(res.Errors, e.Error())
			var stepErr *machineset.StepError[*fsm.Machine]
			if errors.As(e, &stepErr) {
				res.Failed = append(res.Failed, stepErr.Machine.ID())
			}
		}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) prune(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.machines.RemoveAllStopped()
	discarded := 0
	if r.URL.Query().Get("failed") == "true" {
		discarded = s.machines.RemoveAllFailed()
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"removed":   removed,
		"failed":    discarded,
		"remaining": s.machines.Len(),
	})
}

func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusNotImplemented, fmt.Errorf("event journal not configured"))
		return
	}

	n := defaultEvents
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid n %q", raw))
			return
		}
		n = v
	}

	events, err := s.journal.Recent(r.Context(), n)
	if err != nil {
		s.logger.Error("journal read failed", "err", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) views() []MachineView {
	views := make([]MachineView, 0, s.machines.Len())
	for _, m := range s.machines.All() {
		views = append(views, viewOf(m))
	}
	return views
}

func (s *Server) find(id string) (*fsm.Machine, bool) {
	for _, m := range s.machines.All() {
		if m.ID() == id {
			return m, true
		}
	}
	return nil, false
}

func unwrapJoined(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := map[string]string{"error": err.Error()}
	if code := domain.ErrorCode(err); code != "unknown" {
		body["code"] = code
	}
	writeJSON(w, status, body)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
