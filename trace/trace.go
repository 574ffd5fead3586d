// Package trace provides the optional diagnostic hook for
// dacrun/scheduler. It is strictly observational: nothing in the
// scheduler's correctness depends on whether a Tracer is attached.
package trace

import "time"

// An EventCode identifies one kind of scheduling event. The set of
// codes is closed; see the constants below.
type EventCode string

// The closed set of event codes a Worker or Scheduler can report.
const (
	Create EventCode = "CREATE" // worker instantiated; info1=scheduler id, info2=worker id
	RtBgn  EventCode = "RT_BGN" // worker started retrieving a job
	RtGlb  EventCode = "RT_GLB" // job retrieved from the global queue
	RtLoc  EventCode = "RT_LOC" // job retrieved from the local list
	NoJob  EventCode = "NO_JOB" // no job found; scheduler has terminated
	ScBgn  EventCode = "SC_BGN" // worker started scheduling a job
	ScGlb  EventCode = "SC_GLB" // job scheduled to the global queue
	ScLoc  EventCode = "SC_LOC" // job scheduled to the local list
	ChiSk  EventCode = "CHI_SK" // chi-squared test skipped, local count below expectation
	ChiOk  EventCode = "CHI_OK" // chi-squared test passed, job kept local
	ChiNo  EventCode = "CHI_NO" // chi-squared test failed, job migrated
	JDone  EventCode = "J_DONE" // job completed
)

// A Tracer receives scheduling events as they happen. Implementations
// must be safe for concurrent use: every worker goroutine in a run
// shares the same Tracer.
type Tracer interface {
	Event(t time.Time, workerID int, code EventCode, info1, info2 interface{})
}

// Nop is a Tracer that discards every event. It is the default when a
// Scheduler is constructed without scheduler.WithTracer, so tracing costs
// nothing unless a caller opts in.
type Nop struct{}

// Event implements Tracer by doing nothing.
func (Nop) Event(time.Time, int, EventCode, interface{}, interface{}) {}
