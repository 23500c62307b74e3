package definition

import (
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/aretw0/fsmlight/pkg/domain"
	"github.com/aretw0/fsmlight/pkg/fsm"
)

// BuildOption configures Build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	strict bool
	logger *slog.Logger
}

// WithStrict forces strict graph validation regardless of the definition's own flag.
func WithStrict() BuildOption {
	return func(c *buildConfig) {
		c.strict = true
	}
}

// WithLogger passes a logger to the built graph.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(c *buildConfig) {
		c.logger = logger
	}
}

// Build registers every state of the definition with a generated handler and finalizes
// the graph. Handler state (emit position, random source) belongs to the built graph, so
// callers wanting independent scripted machines build one graph per machine.
func Build(def *Definition, opts ...BuildOption) (*fsm.Graph, error) {
	cfg := buildConfig{strict: def.Strict}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}

	var graphOpts []fsm.GraphOption
	if cfg.strict {
		graphOpts = append(graphOpts, fsm.WithStrictValidation())
	}
	if cfg.logger != nil {
		graphOpts = append(graphOpts, fsm.WithGraphLogger(cfg.logger))
	}

	g := fsm.NewGraph(graphOpts...)
	for i, s := range def.States {
		handler := newHandler(s, def.Seed, uint64(i))
		if _, err := g.Register(handler, s.Inputs, s.Outputs, fsm.Named(s.Name)); err != nil {
			return nil, err
		}
	}
	return g.Finalize()
}

func newHandler(s StateDefinition, seed, stream uint64) domain.Handler {
	switch {
	case len(s.Emit) > 0:
		return emitHandler(s.Emit)
	case len(s.Choose) > 0:
		return chooseHandler(s.Choose, rand.New(rand.NewPCG(seed, stream)))
	default:
		return func() domain.TransitionID { return domain.Default }
	}
}

// emitHandler cycles through ids, one per call.
func emitHandler(ids []domain.TransitionID) domain.Handler {
	var mu sync.Mutex
	next := 0
	return func() domain.TransitionID {
		mu.Lock()
		defer mu.Unlock()
		id := ids[next]
		next = (next + 1) % len(ids)
		return id
	}
}

// chooseHandler draws one id per call, proportionally to the weights.
func chooseHandler(choices []Choice, rng *rand.Rand) domain.Handler {
	var mu sync.Mutex
	total := 0.0
	for _, c := range choices {
		total += c.Weight
	}
	return func() domain.TransitionID {
		mu.Lock()
		defer mu.Unlock()
		r := rng.Float64() * total
		for _, c := range choices {
			if r < c.Weight {
				return c.ID
			}
			r -= c.Weight
		}
		return choices[len(choices)-1].ID
	}
}
