// Package runner executes sub-tasks on a bounded pool of goroutines. The
// connector itself is synchronous; this is the caller side concurrency that
// consumes what the partitioner emits.
package runner

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
	"github.com/ajitpratap0/nebula-ftp/pkg/logger"
	"github.com/ajitpratap0/nebula-ftp/pkg/observability"
	"github.com/ajitpratap0/nebula-ftp/pkg/partition"
)

// Func processes one sub-task.
type Func func(ctx context.Context, task *partition.SubTaskContext) error

// Config configures a Runner.
type Config struct {
	// Workers bounds the sub-tasks in flight. 0 = runtime.NumCPU()
	Workers int
	// ContinueOnError keeps scheduling after a failure instead of
	// cancelling the remaining sub-tasks.
	ContinueOnError bool
}

// Stats summarizes a run.
type Stats struct {
	Completed int64
	Failed    int64
	Duration  time.Duration
	// Errors holds the failure of each sub-task by id
	Errors map[string]error
}

// Runner executes sub-tasks with bounded concurrency.
type Runner struct {
	workers         int
	continueOnError bool
	logger          *zap.Logger
}

// New creates a runner.
func New(cfg Config, log *zap.Logger) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if log == nil {
		log = logger.Get()
	}
	return &Runner{
		workers:         cfg.Workers,
		continueOnError: cfg.ContinueOnError,
		logger:          log.With(zap.String("component", "runner")),
	}
}

// Workers returns the concurrency bound.
func (r *Runner) Workers() int { return r.workers }

// RunRead drains it and runs fn for each sub-task.
func (r *Runner) RunRead(ctx context.Context, it *partition.Iterator, fn Func) (*Stats, error) {
	if it == nil {
		return nil, errors.New(errors.ErrorTypeInternal, "runner requires an iterator")
	}
	return r.run(ctx, func(submit func(string, func(context.Context) error) bool) {
		for task, ok := it.Next(); ok; task, ok = it.Next() {
			task := task
			if !submit(task.ID(), func(ctx context.Context) error { return fn(ctx, task) }) {
				return
			}
		}
	})
}

// RunWrite executes every plan, pre-tasks first, and hands each main
// sub-task to fn. Failures are keyed by "<plan index>:<target>" since several
// plans may write to the same target.
func (r *Runner) RunWrite(ctx context.Context, plans []*partition.WritePlan, fn Func) (*Stats, error) {
	return r.run(ctx, func(submit func(string, func(context.Context) error) bool) {
		for i, plan := range plans {
			plan := plan
			if !submit(fmt.Sprintf("%d:%s", i, plan.Main.Target()), func(ctx context.Context) error { return plan.Execute(ctx, fn) }) {
				return
			}
		}
	})
}

func (r *Runner) run(ctx context.Context, schedule func(submit func(string, func(context.Context) error) bool)) (*Stats, error) {
	start := time.Now()
	stats := &Stats{Errors: make(map[string]error)}
	var (
		completed, failed atomic.Int64
		mu                sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	submit := func(id string, work func(context.Context) error) bool {
		if gctx.Err() != nil {
			return false
		}
		g.Go(func() error {
			taskCtx := logger.ContextWithSubTask(gctx, id)
			taskCtx, span := observability.StartSpan(taskCtx, "runner.subtask", attribute.String("subtask", id))
			err := work(taskCtx)
			observability.EndSpan(span, err)

			if err == nil {
				completed.Add(1)
				return nil
			}
			failed.Add(1)
			mu.Lock()
			stats.Errors[id] = err
			mu.Unlock()
			logger.FromContext(taskCtx, r.logger).Warn("sub-task failed", zap.Error(err))
			if r.continueOnError {
				return nil
			}
			return errors.Wrap(err, errors.TypeOr(err, errors.ErrorTypeInternal), "sub-task "+id+" failed").
				WithDetail("subtask", id)
		})
		return true
	}

	schedule(submit)
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	stats.Completed = completed.Load()
	stats.Failed = failed.Load()
	stats.Duration = time.Since(start)

	r.logger.Info("run finished",
		zap.Int64("completed", stats.Completed),
		zap.Int64("failed", stats.Failed),
		zap.Duration("duration", stats.Duration))
	return stats, err
}
