package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/aretw0/fsmlight/pkg/adapters/http"
	"github.com/aretw0/fsmlight/pkg/definition"
	"github.com/aretw0/fsmlight/pkg/fsm"
	"github.com/aretw0/fsmlight/pkg/machineset"
	"github.com/aretw0/fsmlight/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Start the HTTP server for a definition",
	Long: `Serves a machine set built from the definition over a JSON API, with Prometheus metrics
on /metrics and recent step events on /events.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.ListenAddr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}
		redisAddr := cfg.RedisAddr
		if cmd.Flags().Changed("redis-addr") {
			redisAddr, _ = cmd.Flags().GetString("redis-addr")
		}
		return runServe(cmd.Context(), args[0], addr, redisAddr, mustInt(cmd, "machines"))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default from FSMLIGHT_LISTEN_ADDR)")
	serveCmd.Flags().IntP("machines", "n", 0, "Machines to spawn at startup")
	serveCmd.Flags().String("redis-addr", "", "Publish step events to this Redis server (default from FSMLIGHT_REDIS_ADDR)")
}

func runServe(ctx context.Context, path, addr, redisAddr string, machines int) error {
	def, err := definition.LoadFile(path)
	if err != nil {
		return err
	}

	journal, closeJournal, err := openJournal(ctx, redisAddr)
	if err != nil {
		return err
	}
	defer closeJournal()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	srv, err := httpAdapter.NewServer(
		machineset.New[*fsm.Machine](machineset.WithLogger(logger)),
		func() (*fsm.Graph, error) { return definition.Build(def, definition.WithLogger(logger)) },
		httpAdapter.WithJournal(journal),
		httpAdapter.WithGatherer(reg),
		httpAdapter.WithLogger(logger),
		httpAdapter.WithHooks(observability.Combine(
			observability.LoggingHooks(logger),
			metrics.Hooks(),
			observability.SinkHooks(ctx, journal, logger),
		)),
	)
	if err != nil {
		return err
	}
	if machines > 0 {
		if _, err := srv.Spawn(machines); err != nil {
			return err
		}
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting fsmlight server", "addr", addr, "definition", def.Name)
		serverErrors <- httpSrv.ListenAndServe()
	}()

	shutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-shutdown.Done():
		logger.Info("shutting down")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpSrv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return httpSrv.Close()
		}
		logger.Info("fsmlight server stopped gracefully")
		return nil
	}
}
