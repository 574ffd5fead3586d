// Package future provides a single-assignment cell used to pass a value
// from the task that produces it to the task that waits on it.
//
// A Future is the Go realization of the promise/future pair of the
// divide-and-conquer runtime: a fork task (or a base case) is the sole
// producer, and the matching join task (or the top-level caller) is the
// consumer. Exactly one of Set or Fail is called exactly once per Future;
// any number of goroutines may call Get.
package future

import "sync"

// A Future holds a single value of type T, written at most once.
//
// The zero value is not ready to use; construct one with New.
type Future[T any] struct {
	mu   sync.Mutex
	cond *sync.Cond
	done bool
	val  T
	err  error
}

// New returns a Future with no value set yet.
func New[T any]() *Future[T] {
	f := &Future[T]{}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Set stores value in the future and wakes any goroutines blocked in
// Get. Set panics if called more than once, or after Fail: exactly-once
// write is an invariant of the divide-and-conquer algorithm, not a
// condition callers need to guard against in normal operation.
func (f *Future[T]) Set(value T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		panic("future: value already set")
	}
	f.val = value
	f.done = true
	f.cond.Broadcast()
}

// Fail marks the future as failed with err, waking any goroutines
// blocked in Get. Fail is how a callback failure unblocks join tasks
// that would otherwise wait forever on a promise nobody will fulfill.
// Like Set, Fail may be called only once.
func (f *Future[T]) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		panic("future: value already set")
	}
	f.err = err
	f.done = true
	f.cond.Broadcast()
}

// Get blocks until a value or error has been set, then returns it.
func (f *Future[T]) Get() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for !f.done {
		f.cond.Wait()
	}
	return f.val, f.err
}
