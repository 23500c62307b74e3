package observability

import (
	"github.com/aretw0/fsmlight/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by machine hooks.
type Metrics struct {
	StateEntries *prometheus.CounterVec
	Steps        *prometheus.CounterVec
	Stops        *prometheus.CounterVec
	StepErrors   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StateEntries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsmlight_state_entries_total",
				Help: "Total number of times a machine entered a state",
			},
			[]string{"state"},
		),
		Steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsmlight_steps_total",
				Help: "Total number of handler invocations, by state",
			},
			[]string{"state"},
		),
		Stops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsmlight_stops_total",
				Help: "Total number of machines stopped, by final state",
			},
			[]string{"state"},
		),
		StepErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsmlight_step_errors_total",
				Help: "Total number of failed transition resolutions, by error code",
			},
			[]string{"code"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.StateEntries, m.Steps, m.Stops, m.StepErrors)
	}
	return m
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(e *domain.StateEvent) {
			m.StateEntries.WithLabelValues(e.State).Inc()
		},
		OnStep: func(e *domain.StepEvent) {
			m.Steps.WithLabelValues(e.State).Inc()
			if e.Failed() {
				m.StepErrors.WithLabelValues(e.Code).Inc()
			}
		},
		OnStop: func(e *domain.StateEvent) {
			m.Stops.WithLabelValues(e.State).Inc()
		},
	}
}
