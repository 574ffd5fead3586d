// Package dacerr defines the error categories a dac.Compute call can
// surface, so that callers can distinguish a caller mistake from a
// failure of their own divide/conquer/baseTest/baseCase callbacks.
package dacerr

import "fmt"

// A UsageError reports that Compute was called with an invalid
// configuration: a bad join policy or a non-positive worker count.
// Compute returns a UsageError before spawning any goroutine. A Compute
// call on a DAC instance that is already computing is not an error: it
// blocks until the earlier run has finished.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("dac: invalid configuration: %s", e.Reason)
}

// A CallbackError wraps a panic or error value that originated in a
// user-supplied divide, conquer, baseTest, or baseCase callback. Compute
// returns a CallbackError instead of a result once any task in the run
// has failed.
type CallbackError struct {
	// WorkerID identifies the worker on which the callback failed.
	WorkerID int
	Err      error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("dac: callback failed on worker %d: %v", e.WorkerID, e.Err)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

// NewCallbackError wraps err, or the result of recovering a panic, as a
// CallbackError attributed to workerID.
func NewCallbackError(workerID int, err error) *CallbackError {
	return &CallbackError{WorkerID: workerID, Err: err}
}
