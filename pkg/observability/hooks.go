package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/fsmlight/pkg/domain"
	"github.com/aretw0/fsmlight/pkg/ports"
)

// LoggingHooks logs every lifecycle event. Failed steps are logged at Warn, the rest at Debug
// and Info.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(e *domain.StateEvent) {
			logger.Debug("state_enter", "machine_id", e.MachineID, "state", e.State)
		},
		OnStep: func(e *domain.StepEvent) {
			if e.Failed() {
				logger.Warn("step",
					"machine_id", e.MachineID,
					"state", e.State,
					"produced", e.Produced.String(),
					"code", e.Code,
					"err", e.Error,
				)
				return
			}
			logger.Debug("step",
				"machine_id", e.MachineID,
				"state", e.State,
				"produced", e.Produced.String(),
				"next", e.Next,
				"stopped", e.Stopped,
			)
		},
		OnStop: func(e *domain.StateEvent) {
			logger.Info("stop", "machine_id", e.MachineID, "state", e.State)
		},
	}
}

// SinkHooks publishes every step event to the journal. Publish failures are logged and
// never reach the machine.
func SinkHooks(ctx context.Context, journal ports.EventJournal, logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(e *domain.StepEvent) {
			if err := journal.Publish(ctx, *e); err != nil {
				logger.Error("failed to publish step event", "machine_id", e.MachineID, "err", err)
			}
		},
	}
}

// Combine merges hooks; each callback runs the non-nil callbacks of hooks in order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var enter, stop []func(*domain.StateEvent)
	var step []func(*domain.StepEvent)
	for _, h := range hooks {
		if h.OnStateEnter != nil {
			enter = append(enter, h.OnStateEnter)
		}
		if h.OnStep != nil {
			step = append(step, h.OnStep)
		}
		if h.OnStop != nil {
			stop = append(stop, h.OnStop)
		}
	}

	var out domain.LifecycleHooks
	if len(enter) > 0 {
		out.OnStateEnter = func(e *domain.StateEvent) {
			for _, fn := range enter {
				fn(e)
			}
		}
	}
	if len(step) > 0 {
		out.OnStep = func(e *domain.StepEvent) {
			for _, fn := range step {
				fn(e)
			}
		}
	}
	if len(stop) > 0 {
		out.OnStop = func(e *domain.StateEvent) {
			for _, fn := range stop {
				fn(e)
			}
		}
	}
	return out
}
