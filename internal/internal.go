package internal

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
)

type runtimeError struct{ error }

func (runtimeError) RuntimeError() {}

// RecoverToError turns a recovered panic value into an error carrying
// stack trace information, adapted from pargo/internal.WrapPanic: a
// panic inside a divide/conquer/baseTest/baseCase callback must reach
// the waiting Future as a dacerr.CallbackError, not unwind the worker
// goroutine, so this returns an error to store rather than a value to
// repanic.
func RecoverToError(p interface{}) error {
	if p == nil {
		return nil
	}
	s := fmt.Sprintf("%v\n%s", p, debug.Stack())
	if err, isError := p.(error); isError {
		wrapped := fmt.Errorf("%s: %w", s, err)
		if _, isRuntimeError := p.(runtime.Error); isRuntimeError {
			return runtimeError{wrapped}
		}
		return wrapped
	}
	return errors.New(s)
}
