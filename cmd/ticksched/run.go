package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	"slicesched/internal/job"
	"slicesched/internal/logx"
	"slicesched/internal/sched"
)

var runFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "config, c",
		Usage: "path to the YAML config",
		Value: "config.yml",
	},
	cli.StringFlag{
		Name:  "csv",
		Usage: "write every scheduler event to this CSV file",
	},
	cli.StringFlag{
		Name:  "log-level, l",
		Usage: "override log.level from the config",
	},
	cli.BoolFlag{
		Name:  "realtime",
		Usage: "use the wall clock and really sleep in jobs instead of simulating time",
	},
	cli.DurationFlag{
		Name:  "timeout",
		Usage: "give up if the workload has not drained after this long",
		Value: 30 * time.Second,
	},
}

func run(c *cli.Context) error {
	cfg, err := sched.Load(c.String("config"))
	if err != nil {
		return err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}

	log, err := logx.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Close()

	rec := sched.NewRecorder(log.With(logx.String("component", "recorder")))
	if path := c.String("csv"); path != "" {
		if err := rec.EnableCSVLogging(path); err != nil {
			return err
		}
	}
	defer rec.Close()

	var (
		clock sched.Clock
		tick  *sched.TickClock
	)
	if c.Bool("realtime") {
		clock = sched.NewMonotonicClock()
	} else {
		tick = sched.NewTickClock()
		step := time.Duration(cfg.TickMS) * time.Millisecond
		tick.Start(step, step)
		defer tick.Stop()
		clock = tick
	}

	loop := sched.NewEventLoop(log.With(logx.String("component", "loop")))
	defer loop.Stop()

	s := sched.New(loop, cfg,
		sched.WithClock(clock),
		sched.WithLogger(log.With(logx.String("component", "scheduler"))),
		sched.WithEventSink(rec.Sink),
	)
	sub := job.NewSubmitter(s, tick, log)

	log.Info("workload starting",
		logx.Int("jobs", len(cfg.Workload)),
		logx.Int("slice_ms", cfg.SliceMS),
		logx.Bool("realtime", tick == nil),
	)
	started := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, c.Duration("timeout"))
	defer cancel()

	done := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(done)
		var subErr error
		if err := loop.Do(gctx, func() { subErr = sub.Submit(cfg.Workload) }); err != nil {
			return err
		}
		if subErr != nil {
			return subErr
		}
		return sched.WaitIdle(gctx, loop, s)
	})
	g.Go(func() error {
		return progress(gctx, done, loop, s, log)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("run workload: %w", err)
	}

	var (
		stats  sched.Stats
		report job.Report
	)
	if err := loop.Do(context.Background(), func() {
		stats = s.Stats()
		report = sub.Report()
		s.Close()
	}); err != nil {
		return err
	}

	log.Info("workload drained",
		logx.Duration("elapsed", time.Since(started)),
		logx.Int("scheduled", report.Scheduled),
		logx.Int("suppressed", report.Suppressed),
		logx.Int("sync_ran", report.SyncRan),
		logx.Int("sync_refused", report.SyncRefused),
		logx.Int("completed", report.Completed),
		logx.Int64("aborted", stats.Aborted),
		logx.Int64("faults", stats.Faults),
		logx.Int64("bursts", stats.Bursts),
		logx.Int64("yields", stats.Yields),
		logx.Int64("idle_events", rec.Count(sched.StatusIdle)),
	)
	return nil
}

// progress logs queue depth once a second until done is closed.
func progress(ctx context.Context, done <-chan struct{}, loop *sched.EventLoop, s *sched.Scheduler, log logx.Logger) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			var pending int
			var now time.Duration
			if err := loop.Do(ctx, func() {
				pending = s.Pending()
				now = s.Now()
			}); err != nil {
				return nil
			}
			log.Info("progress", logx.Int("pending", pending), logx.Duration("clock", now))
		}
	}
}
