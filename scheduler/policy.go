package scheduler

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// A Policy controls how aggressively Worker.Schedule migrates newly
// scheduled tasks from a worker's local list to the scheduler's global
// queue.
//
// Taking as null hypothesis that outstanding tasks are perfectly evenly
// distributed across workers, a worker's local queue length is compared
// against that null hypothesis with a chi-squared goodness-of-fit test.
// The policy picks how surprising the local queue has to be, under that
// null hypothesis, before the worker gives up on keeping a task local:
//
//   - Relaxed keeps a task local unless the local queue is so imbalanced
//     that it would occur by chance less than 0.5% of the time under
//     perfect balance.
//   - Strict keeps a task local unless the local queue is so imbalanced
//     that it would occur by chance less than 5% of the time.
//   - Strong keeps a task local unless the local queue is so imbalanced
//     that it would occur by chance less than 50% of the time — i.e.
//     migrates readily.
//   - Perfect migrates as soon as the local queue is above its expected
//     share of outstanding work.
//   - OnlyLocal never migrates; every task stays where it was scheduled.
//   - OnlyGlobal never keeps a task local; every task is migrated.
type Policy int

const (
	Relaxed Policy = iota
	Strict
	Strong
	Perfect
	OnlyLocal
	OnlyGlobal
)

func (p Policy) String() string {
	switch p {
	case Relaxed:
		return "relaxed"
	case Strict:
		return "strict"
	case Strong:
		return "strong"
	case Perfect:
		return "perfect"
	case OnlyLocal:
		return "only_local"
	case OnlyGlobal:
		return "only_global"
	default:
		return "unknown"
	}
}

// chi-squared critical values with one degree of freedom, derived from
// the same distribution the source's hand-copied constants were
// tabulated from, so a change in policy semantics can never silently
// drift from the distribution it is supposed to approximate.
var chiSquared1 = distuv.ChiSquared{K: 1}

var policyChiLimit = map[Policy]float64{
	Relaxed:    chiSquared1.Quantile(0.995), // ~7.879
	Strict:     chiSquared1.Quantile(0.95),  // ~3.841
	Strong:     chiSquared1.Quantile(0.5),   // ~0.455
	Perfect:    0,
	OnlyLocal:  math.Inf(1),
	OnlyGlobal: -1,
}

// chiLimit returns the chi-squared critical value associated with p. It
// panics if p is not one of the six Policy constants. Worker.keepLocal
// calls it on every balancing decision; Scheduler.SetPolicy stores a
// policy without checking it, so an invalid policy panics there.
func (p Policy) chiLimit() float64 {
	limit, ok := policyChiLimit[p]
	if !ok {
		panic("scheduler: invalid policy")
	}
	return limit
}
