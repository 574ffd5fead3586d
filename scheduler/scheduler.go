// Package scheduler implements the two-phase task scheduler that drives
// a divide-and-conquer run: a per-worker local list plus one shared
// global queue, and a chi-squared load-balancing rule that decides, at
// each Schedule call, whether a newly scheduled task stays local or
// migrates to the global queue.
//
// A Scheduler does not run anything by itself; it is driven by callers
// repeatedly calling GetJob from each of n worker goroutines and running
// whatever Task comes back, until GetJob reports false. See dacrun/dac
// for the fork/join orchestration built on top of two Schedulers.
package scheduler

import (
	"sync"
	"time"

	"github.com/exascience/dacrun/trace"
)

var nextSchedulerID uint64
var nextSchedulerIDMu sync.Mutex

func allocSchedulerID() int {
	nextSchedulerIDMu.Lock()
	defer nextSchedulerIDMu.Unlock()
	nextSchedulerID++
	return int(nextSchedulerID)
}

// A Scheduler owns one global job list and a fixed-size slice of
// Workers, one per thread of parallelism.
//
// A Scheduler is not safe to Reset concurrently with in-flight Schedule,
// GetJob, or MarkDone calls; callers (dacrun/dac) reset both of their
// schedulers before starting any worker goroutine for a run, and never
// concurrently with a previous run's goroutines still active.
type Scheduler struct {
	id      int
	global  *syncJobList
	workers []*Worker
	policy  Policy
	tracer  trace.Tracer
}

// An Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithTracer attaches t to the Scheduler, so every worker's scheduling
// decisions are reported to it. Without WithTracer, a Scheduler reports
// to trace.Nop{} and tracing costs nothing.
func WithTracer(t trace.Tracer) Option {
	return func(s *Scheduler) { s.tracer = t }
}

// New constructs a Scheduler with nWorkers workers and the given
// balancing policy. nWorkers must be at least 1.
func New(nWorkers int, policy Policy, opts ...Option) *Scheduler {
	s := &Scheduler{id: allocSchedulerID(), tracer: trace.Nop{}}
	for _, opt := range opts {
		opt(s)
	}
	s.reset(nWorkers, policy)
	return s
}

// Reset discards any pending tasks, rebuilds the worker slice for
// nWorkers workers, and sets policy. It must be called before a
// Scheduler is reused for a new run.
func (s *Scheduler) Reset(nWorkers int, policy Policy) {
	s.reset(nWorkers, policy)
}

func (s *Scheduler) reset(nWorkers int, policy Policy) {
	if s.global == nil {
		s.global = newSyncJobList()
	} else {
		s.global.clear()
	}
	s.workers = make([]*Worker, nWorkers)
	for i := range s.workers {
		s.workers[i] = newWorker(i, s)
	}
	s.SetPolicy(policy)
}

// SetPolicy changes the balancing policy used by subsequent Schedule
// calls. It does not affect tasks already placed on a local list or the
// global queue.
func (s *Scheduler) SetPolicy(policy Policy) {
	s.policy = policy
}

// NWorkers reports the number of workers this Scheduler was constructed
// or last Reset with.
func (s *Scheduler) NWorkers() int {
	return len(s.workers)
}

// Schedule submits task to worker to. The outstanding-task counter is
// incremented before the worker's balancing decision runs, so that a
// concurrent reader of RemainingJobs (or another worker's chi-squared
// test) never undercounts work that has already been committed to this
// scheduler.
func (s *Scheduler) Schedule(task Task, to int) {
	s.global.incRemaining(1)
	s.workers[to].schedule(task)
}

// GetJob retrieves the next task for worker from, blocking if none is
// immediately available. It reports false once there will never be
// another task: every task previously scheduled on this Scheduler has
// been marked done.
func (s *Scheduler) GetJob(from int) (Task, bool) {
	return s.workers[from].getJob()
}

// MarkDone records that one task has finished executing. This is the
// only operation that decreases the outstanding-task counter; every
// task scheduled on this Scheduler must eventually call MarkDone
// exactly once, or the scheduler either deadlocks (too few) or
// terminates early (too many).
func (s *Scheduler) MarkDone(from int) {
	s.global.decRemaining(1)
	s.tracer.Event(time.Now(), from, trace.JDone, nil, nil)
}

// RemainingJobs reports the number of tasks outstanding anywhere in
// this scheduler: queued globally, queued in a local list, or currently
// executing. It is exposed for diagnostics and for tests asserting the
// conservation invariant (RemainingJobs reaches exactly 0 when a run
// completes).
func (s *Scheduler) RemainingJobs() int64 {
	return s.global.getRemaining()
}
