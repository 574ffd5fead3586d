package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"sync"
	"time"
)

// A CSVTracer writes scheduling events as CSV rows with columns
// time_ms,worker_id,event_code,info1,info2, matching the format the
// source's debug build wrote to one file per worker. CSVTracer writes
// every worker's events to a single io.Writer instead, serialized by an
// internal mutex, since Go programs more commonly want one combined
// trace than one file per goroutine.
//
// The zero value is not ready to use; construct one with NewCSVTracer.
type CSVTracer struct {
	mu    sync.Mutex
	w     *csv.Writer
	start time.Time
}

// NewCSVTracer returns a CSVTracer that writes to w, with elapsed times
// measured from the moment NewCSVTracer is called. It writes the header
// row immediately.
func NewCSVTracer(w io.Writer) *CSVTracer {
	t := &CSVTracer{w: csv.NewWriter(w), start: time.Now()}
	_ = t.w.Write([]string{"time_ms", "worker_id", "event_code", "info1", "info2"})
	t.w.Flush()
	return t
}

// Event implements Tracer.
func (t *CSVTracer) Event(at time.Time, workerID int, code EventCode, info1, info2 interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	elapsedMs := float64(at.Sub(t.start)) / float64(time.Millisecond)
	_ = t.w.Write([]string{
		fmt.Sprintf("%.3f", elapsedMs),
		fmt.Sprintf("%d", workerID),
		string(code),
		fmt.Sprint(info1),
		fmt.Sprint(info2),
	})
	t.w.Flush()
}
