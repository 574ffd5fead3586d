package trace_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/exascience/dacrun/trace"
)

func TestCSVTracerWritesHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	tr := trace.NewCSVTracer(&buf)
	tr.Event(time.Now(), 3, trace.ChiOk, 1.25, 3.841)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (header + row): %q", len(lines), buf.String())
	}
	if lines[0] != "time_ms,worker_id,event_code,info1,info2" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "3,CHI_OK,1.25,3.841") {
		t.Fatalf("unexpected row: %q", lines[1])
	}
}

func TestNopTracerDiscardsEvents(t *testing.T) {
	var n trace.Nop
	n.Event(time.Now(), 0, trace.Create, 1, 2)
}
