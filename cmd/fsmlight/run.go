package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/fsmlight/internal/presentation/tui"
	"github.com/aretw0/fsmlight/pkg/adapters/memory"
	"github.com/aretw0/fsmlight/pkg/adapters/redis"
	"github.com/aretw0/fsmlight/pkg/definition"
	"github.com/aretw0/fsmlight/pkg/fsm"
	"github.com/aretw0/fsmlight/pkg/machineset"
	"github.com/aretw0/fsmlight/pkg/observability"
	"github.com/aretw0/fsmlight/pkg/ports"
	"github.com/spf13/cobra"
)

// ErrTickLimit is returned when machines are still running after the tick budget.
var ErrTickLimit = errors.New("tick limit reached")

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Step machines built from a definition until they all stop",
	Long: `Builds one graph per machine from the definition, then ticks the machine set until no
machine has more work, the tick limit is reached, or the process is interrupted. Step events
go to an in-memory journal, or to a Redis stream when --redis-addr is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOptions{
			path:      args[0],
			machines:  mustInt(cmd, "machines"),
			maxTicks:  cfg.MaxTicks,
			redisAddr: cfg.RedisAddr,
			events:    mustInt(cmd, "events"),
		}
		if cmd.Flags().Changed("max-ticks") {
			opts.maxTicks = mustInt(cmd, "max-ticks")
		}
		if cmd.Flags().Changed("redis-addr") {
			opts.redisAddr, _ = cmd.Flags().GetString("redis-addr")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(cmd.OutOrStdout())
		}
		return runMachines(ctx, cmd.OutOrStdout(), opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntP("machines", "n", 1, "Number of machines to run")
	runCmd.Flags().Int("max-ticks", 0, "Maximum number of ticks (default from FSMLIGHT_MAX_TICKS)")
	runCmd.Flags().String("redis-addr", "", "Publish step events to this Redis server (default from FSMLIGHT_REDIS_ADDR)")
	runCmd.Flags().Int("events", 0, "Print the last N journal events when done")
}

type runOptions struct {
	path      string
	machines  int
	maxTicks  int
	redisAddr string
	events    int
}

// runSummary is what runMachines observed.
type runSummary struct {
	ticks    int
	failures int
	stopped  int
}

func runMachines(ctx context.Context, w io.Writer, opts runOptions) error {
	if opts.machines < 1 {
		return fmt.Errorf("machines must be at least 1")
	}
	if opts.maxTicks < 1 {
		return fmt.Errorf("max ticks must be at least 1")
	}

	def, err := definition.LoadFile(opts.path)
	if err != nil {
		return err
	}

	journal, closeJournal, err := openJournal(ctx, opts.redisAddr)
	if err != nil {
		return err
	}
	defer closeJournal()

	hooks := observability.Combine(
		observability.LoggingHooks(logger),
		observability.SinkHooks(ctx, journal, logger),
	)

	set := machineset.New[*fsm.Machine](machineset.WithLogger(logger))
	machines := make([]*fsm.Machine, 0, opts.machines)
	for i := 0; i < opts.machines; i++ {
		// Scripted handlers keep per-graph state, so each machine gets its own graph.
		g, err := definition.Build(def, definition.WithLogger(logger))
		if err != nil {
			return err
		}
		m := fsm.NewMachine(g,
			fsm.WithID(fmt.Sprintf("%s-%d", def.Name, i)),
			fsm.WithLogger(logger),
			fsm.WithLifecycleHooks(hooks),
		)
		set.Add(m)
		machines = append(machines, m)
	}

	summary, err := tick(ctx, set, opts.maxTicks)
	p := tui.NewPrinter(w)
	for _, m := range machines {
		if m.Stopped() {
			summary.stopped++
		}
		state := "-"
		if cur := m.Current(); cur != nil {
			state = cur.Name()
		}
		p.Info("%s\t%s\t%s\tsteps=%d", m.ID(), m.Status(), state, m.Steps())
	}

	if opts.events > 0 {
		events, jerr := journal.Recent(ctx, opts.events)
		if jerr != nil {
			logger.Warn("failed to read journal", "err", jerr)
		}
		for _, e := range events {
			line := fmt.Sprintf("%s\t%s\t%s -> %s", e.Timestamp.Format("15:04:05.000"), e.MachineID, e.State, e.Produced)
			if e.Failed() {
				p.Warn("%s (%s)", line, e.Code)
				continue
			}
			p.Info("%s", line)
		}
	}

	switch {
	case err != nil:
		p.Error("%v", err)
	case summary.failures > 0:
		p.Warn("%d ticks, %d of %d machines stopped, %d failures", summary.ticks, summary.stopped, len(machines), summary.failures)
		err = fmt.Errorf("%d step failures", summary.failures)
	default:
		p.Success("%d ticks, %d of %d machines stopped", summary.ticks, summary.stopped, len(machines))
	}
	return err
}

// tick steps the set until nothing is pending. A failed machine is reported once and then
// fenced by the set, so it neither keeps the loop alive nor counts again.
func tick(ctx context.Context, set *machineset.Set[*fsm.Machine], maxTicks int) (runSummary, error) {
	var s runSummary
	for s.ticks < maxTicks {
		if err := ctx.Err(); err != nil {
			return s, err
		}

		pending, err := set.StepAll()
		s.ticks++
		if err != nil {
			for _, e := range unwrapJoined(err) {
				s.failures++
				var stepErr *machineset.StepError[*fsm.Machine]
				if errors.As(e, &stepErr) {
					logger.Warn("machine failed", "tick", s.ticks, "machine_id", stepErr.Machine.ID(), "err", stepErr.Err)
					continue
				}
				logger.Warn("tick finished with failures", "tick", s.ticks, "err", e)
			}
		}
		if !pending {
			return s, nil
		}
	}
	return s, fmt.Errorf("%w after %d ticks", ErrTickLimit, maxTicks)
}

func openJournal(ctx context.Context, redisAddr string) (ports.EventJournal, func(), error) {
	if redisAddr == "" {
		return memory.NewJournal(cfg.JournalSize), func() {}, nil
	}

	var opts []redis.Option
	if cfg.RedisStream != "" {
		opts = append(opts, redis.WithStream(cfg.RedisStream))
	}
	if cfg.RedisMaxLen > 0 {
		opts = append(opts, redis.WithMaxLen(cfg.RedisMaxLen))
	}
	j := redis.New(redisAddr, "", 0, opts...)
	if err := j.Ping(ctx); err != nil {
		_ = j.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", redisAddr, err)
	}
	logger.Info("publishing step events to redis", "addr", redisAddr)
	return j, func() { _ = j.Close() }, nil
}

func unwrapJoined(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

func mustInt(cmd *cobra.Command, name string) int {
	v, _ := cmd.Flags().GetInt(name)
	return v
}
