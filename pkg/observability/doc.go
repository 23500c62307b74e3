/*
Package observability turns machine lifecycle hooks into logs, Prometheus metrics and
journal entries.

Each helper returns a domain.LifecycleHooks value; Combine merges several of them so a
machine can feed all sinks at once:

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	hooks := observability.Combine(
		observability.LoggingHooks(logger),
		metrics.Hooks(),
		observability.SinkHooks(ctx, journal, logger),
	)
	m := fsm.NewMachine(graph, fsm.WithLifecycleHooks(hooks))
*/
package observability
