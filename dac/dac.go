// Package dac implements the fork/join orchestration of a parallel
// divide-and-conquer computation on top of two dacrun/scheduler
// instances: one for the divide ("fork") phase, one for the combine
// ("join") phase.
//
// A caller supplies divide, conquer, baseTest, and baseCase callbacks to
// New, then calls Compute to run them over a single input. Compute seeds
// the fork scheduler with one root task, drives n workers through the
// fork phase to completion, then through the join phase, and returns the
// value the root task's promise was eventually set to.
package dac

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/exascience/dacrun/dacerr"
	"github.com/exascience/dacrun/future"
	"github.com/exascience/dacrun/internal"
	"github.com/exascience/dacrun/scheduler"
	"github.com/exascience/dacrun/trace"
)

type (
	// Divide splits input into an ordered sequence of smaller
	// subproblems. It must return at least two subproblems whenever the
	// matching BaseTest call returned false for the same input.
	Divide[In any] func(input In) ([]In, error)

	// Conquer combines results, in the same order the matching Divide
	// call produced their inputs, into a single output.
	Conquer[Out any] func(results []Out) (Out, error)

	// BaseTest reports whether input is small enough to be solved
	// directly by BaseCase instead of being divided further.
	BaseTest[In any] func(input In) bool

	// BaseCase solves a single leaf input directly.
	BaseCase[In, Out any] func(input In) (Out, error)
)

// DefaultWorkers returns a reasonable worker count for Compute when a
// caller has no more specific preference, the way
// parallel.ComputeEffectiveThreshold picks a default batch count from
// runtime.GOMAXPROCS(0) in pargo.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// A DAC holds the four callbacks needed to run a divide-and-conquer
// computation, plus the two schedulers that drive one Compute call at a
// time.
//
// A single DAC instance may be reused across any number of sequential
// Compute calls; mu serializes them, matching the source's single
// std::mutex guarding the whole of compute().
type DAC[In, Out any] struct {
	divide   Divide[In]
	conquer  Conquer[Out]
	baseTest BaseTest[In]
	baseCase BaseCase[In, Out]

	mu    sync.Mutex
	forks *scheduler.Scheduler
	joins *scheduler.Scheduler
}

// An Option configures a DAC at construction time.
type Option func(*dacConfig)

type dacConfig struct {
	forkTracer trace.Tracer
	joinTracer trace.Tracer
}

// WithTracer attaches t to both the fork and join schedulers, so every
// worker's scheduling decisions in both phases are reported to it.
func WithTracer(t trace.Tracer) Option {
	return func(c *dacConfig) {
		c.forkTracer = t
		c.joinTracer = t
	}
}

// New constructs a DAC from the four callbacks that together describe
// one divide-and-conquer algorithm. The callbacks are opaque to DAC: it
// never inspects their behavior, only their return values.
func New[In, Out any](
	divide Divide[In],
	conquer Conquer[Out],
	baseTest BaseTest[In],
	baseCase BaseCase[In, Out],
	opts ...Option,
) *DAC[In, Out] {
	cfg := &dacConfig{forkTracer: trace.Nop{}, joinTracer: trace.Nop{}}
	for _, opt := range opts {
		opt(cfg)
	}
	return &DAC[In, Out]{
		divide:   divide,
		conquer:  conquer,
		baseTest: baseTest,
		baseCase: baseCase,
		forks:    scheduler.New(1, scheduler.Strict, scheduler.WithTracer(cfg.forkTracer)),
		joins:    scheduler.New(1, scheduler.OnlyLocal, scheduler.WithTracer(cfg.joinTracer)),
	}
}

// Compute runs the divide-and-conquer algorithm described by d's
// callbacks over input, using the given number of workers, and returns
// the combined result.
//
// forkPolicy balances tasks in the divide phase; it may be any
// scheduler.Policy. joinPolicy balances tasks in the combine phase; it
// must be scheduler.OnlyLocal or scheduler.OnlyGlobal, since mixing
// local and global placement for join tasks can deadlock a join against
// its own children. Any other
// joinPolicy, or workers < 1, is rejected as a *dacerr.UsageError before
// any goroutine is spawned.
//
// ctx governs only how long Compute is willing to wait for the result
// once the run has been dispatched: canceling ctx makes Compute return
// early with ctx.Err(), but the dispatched goroutines are not
// interrupted and continue running to completion in the background, per
// the "no per-task cancellation" design of this runtime.
func (d *DAC[In, Out]) Compute(
	ctx context.Context,
	input In,
	workers int,
	forkPolicy, joinPolicy scheduler.Policy,
) (Out, error) {
	var zero Out

	if workers < 1 {
		return zero, &dacerr.UsageError{Reason: fmt.Sprintf("workers must be >= 1, got %d", workers)}
	}
	if joinPolicy != scheduler.OnlyLocal && joinPolicy != scheduler.OnlyGlobal {
		return zero, &dacerr.UsageError{
			Reason: fmt.Sprintf("join policy must be only_local or only_global, got %v", joinPolicy),
		}
	}

	d.mu.Lock()

	d.forks.Reset(workers, forkPolicy)
	d.joins.Reset(workers, joinPolicy)

	root := future.New[Out]()
	d.forks.Schedule(func(workerID int) {
		d.fork(input, root, workerID)
	}, 0)

	type outcome struct {
		value Out
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		// Holds d.mu until this run has actually finished, not just
		// until Compute stops waiting for it: abandoning the wait below
		// must not let a subsequent Compute call Reset these same
		// schedulers while this run's workers are still reading them.
		defer d.mu.Unlock()
		var wg sync.WaitGroup
		wg.Add(workers - 1)
		for id := 0; id < workers-1; id++ {
			go func(id int) {
				defer wg.Done()
				d.run(id)
			}(id)
		}
		d.run(workers - 1)
		wg.Wait()
		value, err := root.Get()
		done <- outcome{value, err}
	}()

	select {
	case o := <-done:
		return o.value, o.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// run is the per-worker drain loop: it exhausts the fork scheduler
// before touching the join scheduler at all. By the time forks.GetJob
// returns false for every worker, every fork task has completed, so
// every base-case promise has been fulfilled and every join task has
// been scheduled. A join whose child was itself divided still waits for
// that child's join to set the child's promise.
func (d *DAC[In, Out]) run(id int) {
	for {
		task, ok := d.forks.GetJob(id)
		if !ok {
			break
		}
		task(id)
	}
	for {
		task, ok := d.joins.GetJob(id)
		if !ok {
			break
		}
		task(id)
	}
}

// fork solves input directly if it is a base case, or otherwise divides
// it, schedules one join task and the first N-1 sub-fork tasks, and
// tail-calls the last sub-fork inline.
//
// The tail call fuses this stack frame with the last child's: the
// remaining-task slot this fork was scheduled with is not marked done
// here, but is implicitly inherited by the tail-called child, which
// will itself either mark it done directly (if it is a base case) or
// pass it further down its own tail chain. Exactly one forks.MarkDone
// call happens per originally scheduled fork task, at whichever base
// case or divide-error finally terminates its tail chain — never once
// per divide() call along the way.
func (d *DAC[In, Out]) fork(input In, promise *future.Future[Out], id int) {
	isBase, err := d.safeBaseTest(input)
	if err != nil {
		promise.Fail(dacerr.NewCallbackError(id, err))
		d.forks.MarkDone(id)
		return
	}
	if isBase {
		out, err := d.safeBaseCase(input)
		if err != nil {
			promise.Fail(dacerr.NewCallbackError(id, err))
		} else {
			promise.Set(out)
		}
		d.forks.MarkDone(id)
		return
	}

	children, err := d.safeDivide(input)
	if err == nil && len(children) < 2 {
		err = fmt.Errorf("divide returned %d subproblems, want at least 2 when baseTest is false", len(children))
	}
	if err != nil {
		promise.Fail(dacerr.NewCallbackError(id, err))
		d.forks.MarkDone(id)
		return
	}

	n := len(children)
	childFutures := make([]*future.Future[Out], n)
	for i := range childFutures {
		childFutures[i] = future.New[Out]()
	}

	// Invariant I3: schedule the join before any child fork, so the join
	// exists before any child can finish and attempt to rendezvous on
	// this promise.
	d.joins.Schedule(func(workerID int) {
		d.join(childFutures, promise, workerID)
	}, id)

	for i := 0; i < n-1; i++ {
		i := i
		d.forks.Schedule(func(workerID int) {
			d.fork(children[i], childFutures[i], workerID)
		}, id)
	}

	d.fork(children[n-1], childFutures[n-1], id)
}

// join waits for every child future in order, then combines them with
// conquer. If any child failed, join propagates the first such failure
// to promise instead of calling conquer, so a failure anywhere in the
// tree unblocks every ancestor join waiting above it rather than
// stranding them.
//
// id is the id of the worker that is actually executing this join, as
// handed to it by Scheduler.GetJob at the call site — not whatever id
// happened to be in scope when the join closure was built, which the
// source sometimes used incorrectly.
func (d *DAC[In, Out]) join(childFutures []*future.Future[Out], promise *future.Future[Out], id int) {
	results := make([]Out, len(childFutures))
	var firstErr error
	for i, cf := range childFutures {
		value, err := cf.Get()
		if err != nil && firstErr == nil {
			firstErr = err
		}
		results[i] = value
	}

	if firstErr != nil {
		promise.Fail(firstErr)
		d.joins.MarkDone(id)
		return
	}

	out, err := d.safeConquer(results)
	if err != nil {
		promise.Fail(dacerr.NewCallbackError(id, err))
	} else {
		promise.Set(out)
	}
	d.joins.MarkDone(id)
}

func (d *DAC[In, Out]) safeBaseTest(input In) (isBase bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = internal.RecoverToError(p)
		}
	}()
	return d.baseTest(input), nil
}

func (d *DAC[In, Out]) safeBaseCase(input In) (out Out, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = internal.RecoverToError(p)
		}
	}()
	return d.baseCase(input)
}

func (d *DAC[In, Out]) safeDivide(input In) (children []In, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = internal.RecoverToError(p)
		}
	}()
	return d.divide(input)
}

func (d *DAC[In, Out]) safeConquer(results []Out) (out Out, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = internal.RecoverToError(p)
		}
	}()
	return d.conquer(results)
}
