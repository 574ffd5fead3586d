package scheduler

import (
	"math"
	"time"

	"github.com/exascience/dacrun/trace"
)

// A Worker owns a single-threaded local list of tasks and a reference
// to the Scheduler it belongs to. Only the goroutine that drives this
// Worker ever touches its local list, so no synchronization guards it.
type Worker struct {
	id        int
	parent    *Scheduler
	localList []Task // tail-pushed, tail-popped: LIFO
}

func newWorker(id int, parent *Scheduler) *Worker {
	parent.tracer.Event(time.Now(), id, trace.Create, parent.id, id)
	return &Worker{id: id, parent: parent}
}

// getJob returns the next task for this worker to run: the tail of its
// local list if non-empty, otherwise whatever the global queue yields.
// It reports false once the global queue reports termination.
func (w *Worker) getJob() (Task, bool) {
	w.parent.tracer.Event(time.Now(), w.id, trace.RtBgn, nil, nil)
	if n := len(w.localList); n > 0 {
		task := w.localList[n-1]
		w.localList = w.localList[:n-1]
		w.parent.tracer.Event(time.Now(), w.id, trace.RtLoc, nil, nil)
		return task, true
	}
	task, ok := w.parent.global.pop()
	if !ok {
		w.parent.tracer.Event(time.Now(), w.id, trace.NoJob, nil, nil)
		return nil, false
	}
	w.parent.tracer.Event(time.Now(), w.id, trace.RtGlb, nil, nil)
	return task, true
}

// schedule appends task to the tail of the local list, then runs the
// chi-squared balancing decision. If the decision says to migrate, the
// head of the local list (the oldest resident, not necessarily task
// itself) is moved to the global queue: stale work migrates, the
// fresh, cache-warm task just scheduled stays local.
func (w *Worker) schedule(task Task) {
	w.parent.tracer.Event(time.Now(), w.id, trace.ScBgn, nil, nil)
	w.localList = append(w.localList, task)
	if w.keepLocal() {
		w.parent.tracer.Event(time.Now(), w.id, trace.ScLoc, nil, nil)
		return
	}
	head := w.localList[0]
	w.localList = w.localList[1:]
	w.parent.global.push(head)
	w.parent.tracer.Event(time.Now(), w.id, trace.ScGlb, nil, nil)
}

// keepLocal runs the chi-squared goodness-of-fit test described in
// Policy's doc comment. It compares the worker's local queue length L
// against the expected share E of the scheduler's outstanding work,
// under the null hypothesis that work is perfectly evenly distributed
// across the p workers.
func (w *Worker) keepLocal() bool {
	p := float64(len(w.parent.workers))
	chiLimit := w.parent.policy.chiLimit()

	if p < 2 {
		return true // no parallelism to balance against
	}
	if math.IsInf(chiLimit, 1) {
		return true // only_local
	}
	if chiLimit < 0 {
		return false // only_global
	}

	remaining := w.parent.global.getRemaining()
	if remaining == 0 {
		return false // avoid division by zero; also a reasonable tiebreak
	}

	localCount := float64(len(w.localList))
	expected := float64(remaining) / p

	if localCount < expected {
		w.parent.tracer.Event(time.Now(), w.id, trace.ChiSk, localCount, expected)
		return true
	}

	diff := localCount - expected
	chiSquare := diff * diff * p / (expected * (p - 1))

	if chiSquare <= chiLimit {
		w.parent.tracer.Event(time.Now(), w.id, trace.ChiOk, chiSquare, chiLimit)
		return true
	}
	w.parent.tracer.Event(time.Now(), w.id, trace.ChiNo, chiSquare, chiLimit)
	return false
}
