package engine

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// Run calls fn once for every index in [0, n) and returns the results in
// index order, whatever order the calls complete in. Calls are started
// without waiting on each other; limit > 0 bounds how many run at once.
// fn must not panic; wrap fallible work with Call.
func Run[T any](ctx context.Context, n, limit int, fn func(ctx context.Context, i int) T) []T {
	out := make([]T, n)
	if n == 0 {
		return out
	}
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := 0; i < n; i++ {
		g.Go(func() error {
			out[i] = fn(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// PanicError carries the value recovered from a panicking call.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Unwrap exposes the panic value when it was an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Call invokes fn, converting a panic into a *PanicError so that one broken
// call cannot take down its siblings.
func Call[T any](fn func() (T, error)) (res T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			res, err = zero, &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
