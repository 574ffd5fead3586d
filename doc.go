// Package dacrun provides a runtime for executing divide-and-conquer
// computations in parallel across a fixed-size pool of worker goroutines.
//
// A caller supplies four callbacks (divide, conquer, baseTest, baseCase)
// through dacrun/dac and asks the runtime to compute a single result. The
// runtime decomposes the input into a dynamically sized tree of
// subproblems, solves the leaves in parallel, and combines the results
// bottom-up.
//
// dacrun provides the following subpackages:
//
// dacrun/scheduler implements the two-phase task scheduler that drives
// execution: a per-worker local list plus a shared global queue, and a
// chi-squared load-balancing rule that decides whether a newly scheduled
// task stays local or migrates to the global queue.
//
// dacrun/dac implements the fork/join orchestration on top of two
// schedulers (one for the divide phase, one for the combine phase) and
// exposes the single Compute entry point.
//
// dacrun/future provides the single-assignment Future type used to pass
// results from a child fork task back up to its parent's join task.
//
// dacrun/trace provides an optional diagnostic hook that records
// per-worker scheduling events, for callers who want to observe the
// balancing decisions a run actually made.
//
// dacrun/dacerr distinguishes the error categories a Compute call can
// surface: caller misuse versus user callback failure.
package dacrun
