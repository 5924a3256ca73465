package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/yanun0323/logs"

	"tradecore/internal/clock"
	"tradecore/internal/errors"
	"tradecore/internal/identifier"
	"tradecore/internal/journal"
	"tradecore/internal/obs"
	"tradecore/internal/ops"
	"tradecore/pkg/exception"
)

type strategyRun struct {
	orders *identifier.ClientOrderIDGenerator
	last   identifier.ClientOrderID
	fired  int
}

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	start := flag.String("start", "", "Replay start, RFC 3339 (overrides config)")
	end := flag.String("end", "", "Replay end, RFC 3339 (overrides config)")
	verbose := flag.Bool("v", false, "Print every fired event")
	flag.Parse()

	if err := run(*configPath, *start, *end, *verbose); err != nil {
		logs.Errorf("replay failed, err: %+v", err)
		os.Exit(1)
	}
}

func run(configPath, start, end string, verbose bool) error {
	cfg, err := ops.LoadWithDefaults(configPath)
	if err != nil {
		return err
	}
	if start != "" {
		cfg.Replay.Start = start
	}
	if end != "" {
		cfg.Replay.End = end
	}

	loaded, err := cfg.Resolve(ops.NewSymbolCache())
	if err != nil {
		return errors.Wrap(err, "validate config")
	}
	window := loaded.Replay
	if window.Start.IsZero() || window.End.IsZero() {
		return errors.Wrap(exception.ErrValueRange, "replay window needs start and end")
	}

	ctx := context.Background()
	j, err := journal.Open(loaded.Journal.Driver, loaded.Journal.Conn, journal.PostgresOption{BatchSize: loaded.Journal.BatchSize})
	if err != nil {
		return err
	}
	defer func() {
		if err := j.Close(); err != nil {
			logs.Warnf("close journal, err: %+v", err)
		}
	}()

	metrics := obs.NewMetrics()
	clk := clock.NewSimulated(window.Start, clock.Option{Metrics: metrics})

	runs := make(map[string]*strategyRun, len(loaded.Strategies))
	for _, s := range loaded.Strategies {
		runs[s.ID.Value()] = &strategyRun{
			orders: identifier.NewClientOrderIDGenerator(loaded.Trader, s.ID, clk),
		}
	}

	count, err := loaded.Schedule(clk, func(s ops.Strategy, e clock.TimeEvent) error {
		r := runs[s.ID.Value()]
		r.fired++
		r.last = r.orders.Generate()
		if verbose {
			fmt.Printf("%s %-32s %s %s\n", e.Scheduled.Format(time.RFC3339), e.Name, s.Symbol, r.last)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logs.Infof("replay %s -> %s step %s, %d timers", window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339), window.Step, count)

	begin := time.Now()
	total, err := advance(ctx, clk, j, window)
	if err != nil {
		return err
	}

	printSummary(loaded, runs, total, metrics.Snapshot(), time.Since(begin))
	return nil
}

// advance walks the clock through the window in steps, the last one clamped to the
// window end, and journals every batch of fired events.
func advance(ctx context.Context, clk *clock.SimulatedClock, j journal.Journal, window ops.ReplayWindow) (int, error) {
	var total int
	for now := clk.UTCNow(); now.Before(window.End); {
		next := now.Add(window.Step)
		if next.After(window.End) {
			next = window.End
		}

		events, err := clk.AdvanceTime(next)
		if err != nil {
			return total, err
		}
		if err := j.Append(ctx, events...); err != nil {
			return total, err
		}
		total += len(events)
		now = next
	}
	return total, nil
}

func printSummary(loaded ops.Loaded, runs map[string]*strategyRun, total int, snap obs.Snapshot, elapsed time.Duration) {
	fmt.Printf("trader %s: %d events in %s\n", loaded.Trader, total, elapsed)

	names := make([]string, 0, len(runs))
	for name := range runs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r := runs[name]
		fmt.Printf("  %-24s fired=%-8d orders=%-8d last=%s\n", name, r.fired, r.orders.Count(), r.last)
	}

	fmt.Printf("handler failures=%d panics=%d expired=%d\n", snap.HandlerFailures, snap.HandlerPanics, snap.TimersExpired)
}
