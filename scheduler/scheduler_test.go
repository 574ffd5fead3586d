package scheduler_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/exascience/dacrun/scheduler"
)

// runToCompletion drives n workers against s, each running whatever
// GetJob returns and calling MarkDone, until GetJob reports false.  It
// returns how many tasks each worker executed.
func runToCompletion(s *scheduler.Scheduler, n int) []int {
	counts := make([]int, n)
	var wg sync.WaitGroup
	for id := 0; id < n; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				task, ok := s.GetJob(id)
				if !ok {
					return
				}
				task(id)
				s.MarkDone(id)
				counts[id]++
			}
		}(id)
	}
	wg.Wait()
	return counts
}

func TestScheduleAndRunToCompletion(t *testing.T) {
	s := scheduler.New(4, scheduler.Strict)
	const n = 200
	var executed int64
	for i := 0; i < n; i++ {
		i := i
		s.Schedule(func(workerID int) {
			atomic.AddInt64(&executed, 1)
			if workerID < 0 || workerID >= 4 {
				t.Errorf("task %d ran with invalid worker id %d", i, workerID)
			}
		}, i%4)
	}
	counts := runToCompletion(s, 4)

	if atomic.LoadInt64(&executed) != n {
		t.Fatalf("executed %d tasks, want %d", executed, n)
	}
	if got := s.RemainingJobs(); got != 0 {
		t.Fatalf("RemainingJobs() = %d, want 0 after drain", got)
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	if total != n {
		t.Fatalf("sum of per-worker counts = %d, want %d", total, n)
	}
}

func TestResetClearsCountersBetweenRuns(t *testing.T) {
	s := scheduler.New(2, scheduler.OnlyLocal)
	s.Schedule(func(int) {}, 0)
	if got := s.RemainingJobs(); got != 1 {
		t.Fatalf("RemainingJobs() = %d, want 1", got)
	}
	s.Reset(3, scheduler.OnlyGlobal)
	if got := s.RemainingJobs(); got != 0 {
		t.Fatalf("RemainingJobs() after Reset = %d, want 0", got)
	}
	if got := s.NWorkers(); got != 3 {
		t.Fatalf("NWorkers() after Reset = %d, want 3", got)
	}
}

func TestOnlyLocalKeepsTaskOnSchedulingWorker(t *testing.T) {
	s := scheduler.New(4, scheduler.OnlyLocal)
	ran := make(chan int, 1)
	s.Schedule(func(workerID int) { ran <- workerID }, 2)

	// Worker 2 should find it locally without ever touching the global
	// queue; other workers must see no job and return immediately once
	// worker 2 marks it done.
	task, ok := s.GetJob(2)
	if !ok {
		t.Fatal("GetJob(2) reported no task, want the one just scheduled")
	}
	task(2)
	if got := <-ran; got != 2 {
		t.Fatalf("task ran with worker id %d, want 2", got)
	}
	s.MarkDone(2)
}

func TestOnlyGlobalMigratesEveryTask(t *testing.T) {
	s := scheduler.New(4, scheduler.OnlyGlobal)
	s.Schedule(func(int) {}, 0)
	// Any worker, not just worker 0, must be able to retrieve the task,
	// since only_global always migrates it to the shared queue.
	task, ok := s.GetJob(3)
	if !ok {
		t.Fatal("GetJob(3) reported no task, want the migrated one")
	}
	task(3)
	s.MarkDone(3)
	if got := s.RemainingJobs(); got != 0 {
		t.Fatalf("RemainingJobs() = %d, want 0", got)
	}
}

func TestGetJobTerminatesWhenRemainingReachesZero(t *testing.T) {
	s := scheduler.New(2, scheduler.Strict)
	done := make(chan struct{})
	go func() {
		for {
			_, ok := s.GetJob(1)
			if !ok {
				close(done)
				return
			}
		}
	}()
	s.Schedule(func(int) {}, 0)
	task, ok := s.GetJob(0)
	if !ok {
		t.Fatal("GetJob(0) reported no task")
	}
	task(0)
	s.MarkDone(0)
	<-done
}
