package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"golang.org/x/sync/errgroup"

	"tradecore/internal/bus"
	"tradecore/internal/clock"
	"tradecore/internal/identifier"
	"tradecore/internal/journal"
	"tradecore/internal/obs"
	"tradecore/internal/ops"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	duration := flag.Duration("duration", 0, "Stop after this long (0=config, then run until signal)")
	flag.Parse()

	if err := run(*configPath, *duration); err != nil {
		logs.Errorf("live failed, err: %+v", err)
		os.Exit(1)
	}
}

func run(configPath string, duration time.Duration) error {
	loaded, err := ops.LoadAndValidate(configPath, ops.NewSymbolCache())
	if err != nil {
		return err
	}
	if duration == 0 {
		duration = loaded.Live.Duration
	}

	if loaded.Profiler.Enabled {
		profiler, err := startProfiler(loaded.Profiler, loaded.Trader)
		if err != nil {
			return err
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	j, err := journal.Open(loaded.Journal.Driver, loaded.Journal.Conn, journal.PostgresOption{BatchSize: loaded.Journal.BatchSize})
	if err != nil {
		return err
	}
	defer func() {
		if err := j.Close(); err != nil {
			logs.Warnf("close journal, err: %+v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	metrics := obs.NewMetrics()
	clk := clock.NewLive(clock.Option{Metrics: metrics})
	queue := bus.NewQueue(loaded.Live.QueueCapacity, metrics)

	// generators are only touched by the consumer goroutine
	orders := make(map[string]*identifier.ClientOrderIDGenerator, len(loaded.Strategies)*len(loaded.Timers))
	for _, s := range loaded.Strategies {
		gen := identifier.NewClientOrderIDGenerator(loaded.Trader, s.ID, clk)
		for _, spec := range loaded.Timers {
			orders[ops.TimerName(s, spec)] = gen
		}
	}

	count, err := loaded.Schedule(clk, func(_ ops.Strategy, e clock.TimeEvent) error {
		return queue.TryPublish(e)
	})
	if err != nil {
		clk.Close()
		return err
	}
	logs.Infof("live trader %s started, %d timers", loaded.Trader, count)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		consume(context.WithoutCancel(gctx), queue, j, orders)
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-sys.Shutdown():
		}
		clk.Close()
		queue.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	printSummary(metrics.Snapshot())
	return nil
}

// consume journals events until the queue is closed and drained. ctx must outlive the
// shutdown signal, so events buffered at shutdown are still journaled.
func consume(ctx context.Context, queue *bus.Queue, j journal.Journal, orders map[string]*identifier.ClientOrderIDGenerator) {
	queue.Run(ctx, func(e clock.TimeEvent) {
		if gen, ok := orders[e.Name]; ok {
			id := gen.Generate()
			logs.Infof("%s fired, drift %s, order %s", e.Name, e.Drift(), id)
		}
		if err := j.Append(ctx, e); err != nil {
			logs.Errorf("journal %s, err: %+v", e.Name, err)
		}
	})
}

func startProfiler(cfg ops.ProfilerConfig, trader identifier.TraderID) (*pyroscope.Profiler, error) {
	return pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ApplicationName,
		ServerAddress:   cfg.ServerAddress,
		Tags: map[string]string{
			"trader": strings.ToLower(trader.Value()),
		},
		Logger: profilerLogger{},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
		},
	})
}

type profilerLogger struct{}

func (profilerLogger) Infof(format string, args ...any)  { logs.Infof(format, args...) }
func (profilerLogger) Debugf(string, ...any)             {}
func (profilerLogger) Errorf(format string, args ...any) { logs.Errorf(format, args...) }

func printSummary(snap obs.Snapshot) {
	fmt.Printf("fired=%d failures=%d panics=%d cancelled=%d expired=%d dropped=%d\n",
		snap.EventsFired, snap.HandlerFailures, snap.HandlerPanics, snap.TimersCancelled, snap.TimersExpired, snap.QueueDrops)
	fmt.Printf("drift %s\n", snap.Drift)
	fmt.Printf("handler %s\n", snap.HandlerDuration)
}
