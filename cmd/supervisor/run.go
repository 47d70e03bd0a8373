package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"go-attention-agent/internal/blackboard"
	"go-attention-agent/internal/eval"
	"go-attention-agent/internal/eventbus"
	"go-attention-agent/internal/metrics"
	"go-attention-agent/internal/registry"
	"go-attention-agent/internal/scheduler"
)

var withOperator bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Supervise the environment until interrupted",
	RunE:  runSupervisor,
}

func init() {
	runCmd.Flags().BoolVar(&withOperator, "operator", false, "add the simulated operator")
}

func runSupervisor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store := blackboard.NewRedisStore(redisOptions(), logger)
	defer store.Close()
	snap, err := loadSnapshot(ctx, store)
	if err != nil {
		return err
	}

	kinds := append([]string{}, cfg.Agents...)
	if withOperator {
		kinds = append(kinds, registry.KindOperator)
	}
	reg := registry.New(registry.SnapshotFactory{Snapshot: snap, Config: cfg, Logger: logger})
	if err := reg.SpawnAll(kinds); err != nil {
		return err
	}
	logger.Println("agents", reg.AgentIDs())

	bus := eventbus.NewRedisBus(redisOptions(), logger)
	defer bus.Close()
	if err := bus.Ping(ctx); err != nil {
		return err
	}
	transport, err := eventbus.NewTransport(ctx, bus, cfg.Topics(), cfg.Redis.Buffer, logger)
	if err != nil {
		return err
	}
	defer transport.Close(context.Background())

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)
	metrics.RegisterBacklog(promReg, transport.Pending, transport.Dropped)
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Println("metrics server", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	opts := []scheduler.Option{scheduler.WithObserver(m)}
	if ev, ok := reg.Evaluator(); ok {
		opts = append(opts, scheduler.WithAfterCycle(func(ctx context.Context, now time.Time) {
			scores := ev.Scores(now)
			m.SetScores(scores)
			if err := eval.Publish(ctx, store, scores); err != nil {
				logger.Println("publish scores", err)
			}
		}))
	}
	sched, err := scheduler.New(transport, reg.Agents(), cfg.Scheduler(), logger, opts...)
	if err != nil {
		return err
	}

	logger.Printf("supervising %s every %v", cfg.Redis.Addr, cfg.Cycle.Period)
	if err := sched.Run(ctx); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	logger.Println("stopped")
	return nil
}
